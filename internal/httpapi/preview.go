package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/orchestrator"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/validation"
)

// submitPath is the action of the rendered preview form.
const submitPath = "/api/submit"

type submitResponse struct {
	Data   validation.Submission `json:"data,omitempty"`
	Errors validation.Errors     `json:"errors,omitempty"`
}

type validateRequest struct {
	Value any `json:"value"`
}

type validateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

type staleResponse struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func (s *Server) addPreviewRoutes(router *http.ServeMux) {
	router.HandleFunc("GET /preview", s.preview)
	router.HandleFunc("POST /api/submit", s.submit)
	router.HandleFunc("POST /api/validate/{id}", s.validateField)
	router.HandleFunc("GET /api/export", s.export)
	router.HandleFunc("POST /api/import", s.importForm)
}

func (s *Server) preview(w http.ResponseWriter, r *http.Request) {
	s.renderPreview(w, r, http.StatusOK, render.RenderOptions{})
}

func (s *Server) renderPreview(w http.ResponseWriter, r *http.Request, status int, opts render.RenderOptions) {
	opts.Action = submitPath
	res, err := s.orchestrator.Generate(r.Context(), orchestrator.Request{
		Elements:      s.store.Elements(),
		Title:         s.title,
		RenderOptions: opts,
		Versioned:     true,
	})
	if err != nil {
		s.logger.Error("preview failed", slog.Any("error", err))
		replyWithError(w, http.StatusInternalServerError, "preview failed")
		return
	}
	w.Header().Set("Content-Type", res.ContentType)
	w.WriteHeader(status)
	_, _ = w.Write(res.Body)
}

// submit validates a submission against the current collection. JSON bodies
// are objects keyed by element id; form posts come from the HTML preview and
// are answered with the re-rendered page when they fail validation. A
// _version that does not match the current collection is rejected with 409.
func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	elements := s.store.Elements()
	current := render.Fingerprint(elements)

	values, isForm, err := submittedValues(w, r)
	if err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if version, ok := values[render.VersionFieldName]; ok {
		delete(values, render.VersionFieldName)
		if got := firstString(version); got != "" && got != current {
			s.metrics.submissions.WithLabelValues("stale").Inc()
			replyJSON(w, http.StatusConflict, staleResponse{
				Message: "the form changed since it was rendered",
				Version: current,
			})
			return
		}
	}

	result := validation.Build(elements).Submit(values)
	if result.Valid {
		s.metrics.submissions.WithLabelValues("valid").Inc()
		s.logger.Info("submission accepted", slog.Int("fields", len(result.Data)))
		replyJSON(w, http.StatusOK, submitResponse{Data: result.Data})
		return
	}

	s.metrics.submissions.WithLabelValues("invalid").Inc()
	if isForm {
		prefill := make(map[string]any, len(elements))
		for _, el := range model.Fields(elements) {
			if v, ok := values[el.ID]; ok {
				prefill[el.ID] = v
			} else {
				prefill[el.ID] = ""
			}
		}
		s.renderPreview(w, r, http.StatusUnprocessableEntity, render.RenderOptions{
			Values: prefill,
			Errors: render.FieldErrors(result.Errors),
		})
		return
	}
	replyJSON(w, http.StatusUnprocessableEntity, submitResponse{Errors: result.Errors})
}

// validateField runs the single field check used when a user leaves a field.
func (s *Server) validateField(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	v := validation.Build(s.store.Elements())
	if _, ok := v.Rule(id); !ok {
		replyWithError(w, http.StatusNotFound, "field not found")
		return
	}
	var req validateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	msg := v.ValidateField(id, req.Value)
	replyJSON(w, http.StatusOK, validateResponse{Valid: msg == "", Error: msg})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.store.CanExport() {
		replyWithError(w, http.StatusConflict, "add at least one element before exporting")
		return
	}
	artifact, err := export.Render(r.Context(), format, s.store.Elements(), export.Options{
		Info: export.Info{Title: s.title},
	})
	if err != nil {
		s.logger.Error("export failed", slog.String("format", string(format)), slog.Any("error", err))
		replyWithError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.FileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

// importForm replaces the collection with an uploaded JSON export or OpenAPI
// document.
func (s *Server) importForm(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := readBody(r)
	if err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var elements []model.Element
	switch format {
	case export.FormatJSON:
		elements, err = export.ParseJSON(body)
	case export.FormatOpenAPI:
		elements, err = export.ParseOpenAPI(r.Context(), body)
	default:
		err = fmt.Errorf("import from %s is not supported", format)
	}
	if err == nil {
		err = s.store.Replace(r.Context(), elements)
	}
	if err != nil {
		replyWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.metrics.mutations.WithLabelValues("import").Inc()
	replyJSON(w, http.StatusOK, s.elements())
}

func submittedValues(w http.ResponseWriter, r *http.Request) (map[string]any, bool, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return nil, true, fmt.Errorf("parsing form: %w", err)
		}
		values := make(map[string]any, len(r.PostForm))
		for key, vals := range r.PostForm {
			values[key] = vals
		}
		return values, true, nil
	default:
		values := map[string]any{}
		if err := decodeJSONBody(r, &values); err != nil {
			return nil, false, err
		}
		return values, false, nil
	}
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []string:
		if len(t) == 0 {
			return ""
		}
		return strings.TrimSpace(t[0])
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
