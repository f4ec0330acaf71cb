package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

type elementsResponse struct {
	Elements  []model.Element `json:"elements"`
	CanExport bool            `json:"canExport"`
}

type addRequest struct {
	Type string `json:"type"`
}

type reorderRequest struct {
	OldIndex *int   `json:"oldIndex"`
	NewIndex *int   `json:"newIndex"`
	ActiveID string `json:"activeId"`
	OverID   string `json:"overId"`
}

type optionRequest struct {
	Value string `json:"value"`
}

func (s *Server) addBuilderRoutes(router *http.ServeMux) {
	router.HandleFunc("GET /api/palette", s.getPalette)
	router.HandleFunc("GET /api/elements", s.listElements)
	router.HandleFunc("POST /api/elements", s.addElement)
	router.HandleFunc("POST /api/elements/reorder", s.reorderElements)
	router.HandleFunc("GET /api/elements/{id}", s.getElement)
	router.HandleFunc("PATCH /api/elements/{id}", s.updateElement)
	router.HandleFunc("DELETE /api/elements/{id}", s.removeElement)
	router.HandleFunc("POST /api/elements/{id}/options", s.addOption)
	router.HandleFunc("PUT /api/elements/{id}/options/{index}", s.setOption)
	router.HandleFunc("DELETE /api/elements/{id}/options/{index}", s.removeOption)
	router.HandleFunc("POST /api/reset", s.reset)
}

func (s *Server) elements() elementsResponse {
	return elementsResponse{Elements: s.store.Elements(), CanExport: s.store.CanExport()}
}

func (s *Server) getPalette(w http.ResponseWriter, _ *http.Request) {
	replyJSON(w, http.StatusOK, model.Palette())
}

func (s *Server) listElements(w http.ResponseWriter, _ *http.Request) {
	replyJSON(w, http.StatusOK, s.elements())
}

func (s *Server) getElement(w http.ResponseWriter, r *http.Request) {
	el, ok := s.store.Find(r.PathValue("id"))
	if !ok {
		replyWithError(w, http.StatusNotFound, "element not found")
		return
	}
	replyJSON(w, http.StatusOK, el)
}

// addElement is the drop target. Payloads that do not name an addable type
// are ignored: the response is 204 and the collection is unchanged.
func (s *Server) addElement(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeJSONBody(r, &req); err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	el, ok := s.store.AddFromPayload(r.Context(), req.Type)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.metrics.mutations.WithLabelValues("add").Inc()
	replyJSON(w, http.StatusCreated, el)
}

func (s *Server) updateElement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	el, ok := s.store.Find(id)
	if !ok {
		replyWithError(w, http.StatusNotFound, "element not found")
		return
	}
	body, err := readBody(r)
	if err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := model.DecodePatch(el.Type, body)
	if err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.store.Update(r.Context(), id, patch) {
		s.metrics.mutations.WithLabelValues("update").Inc()
	}
	el, ok = s.store.Find(id)
	if !ok {
		replyWithError(w, http.StatusNotFound, "element not found")
		return
	}
	replyJSON(w, http.StatusOK, el)
}

func (s *Server) removeElement(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == model.SubmitID {
		replyWithError(w, http.StatusConflict, "the submit element cannot be removed")
		return
	}
	if !s.store.Remove(r.Context(), id) {
		replyWithError(w, http.StatusNotFound, "element not found")
		return
	}
	s.metrics.mutations.WithLabelValues("remove").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// reorderElements accepts either positional indices into the non-submit
// elements or a pair of ids as produced by a drag and drop.
func (s *Server) reorderElements(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case strings.TrimSpace(req.ActiveID) != "":
		if s.store.ReorderByID(r.Context(), req.ActiveID, req.OverID) {
			s.metrics.mutations.WithLabelValues("reorder").Inc()
		}
	case req.OldIndex != nil && req.NewIndex != nil:
		err := s.store.Reorder(r.Context(), *req.OldIndex, *req.NewIndex)
		if errors.Is(err, store.ErrIndexOutOfRange) {
			replyWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			replyWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if *req.OldIndex != *req.NewIndex {
			s.metrics.mutations.WithLabelValues("reorder").Inc()
		}
	default:
		replyWithError(w, http.StatusBadRequest, "oldIndex and newIndex, or activeId and overId, are required")
		return
	}
	replyJSON(w, http.StatusOK, s.elements())
}

func (s *Server) addOption(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.requireOptions(w, id) {
		return
	}
	s.store.AddOption(r.Context(), id)
	s.metrics.mutations.WithLabelValues("add_option").Inc()
	s.replyElement(w, id)
}

func (s *Server) setOption(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, ok := optionIndex(w, r)
	if !ok || !s.requireOptions(w, id) {
		return
	}
	var req optionRequest
	if err := decodeJSONBody(r, &req); err != nil {
		replyWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.store.SetOption(r.Context(), id, index, req.Value) {
		replyWithError(w, http.StatusBadRequest, "option index out of range")
		return
	}
	s.metrics.mutations.WithLabelValues("set_option").Inc()
	s.replyElement(w, id)
}

func (s *Server) removeOption(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	index, ok := optionIndex(w, r)
	if !ok || !s.requireOptions(w, id) {
		return
	}
	if !s.store.RemoveOption(r.Context(), id, index) {
		el, _ := s.store.Find(id)
		if index >= 0 && index < len(el.Options) {
			replyWithError(w, http.StatusConflict, "at least one option is required")
			return
		}
		replyWithError(w, http.StatusBadRequest, "option index out of range")
		return
	}
	s.metrics.mutations.WithLabelValues("remove_option").Inc()
	s.replyElement(w, id)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.store.Reset(r.Context())
	s.metrics.mutations.WithLabelValues("reset").Inc()
	replyJSON(w, http.StatusOK, s.elements())
}

func (s *Server) requireOptions(w http.ResponseWriter, id string) bool {
	el, ok := s.store.Find(id)
	if !ok {
		replyWithError(w, http.StatusNotFound, "element not found")
		return false
	}
	if !el.HasOptions() {
		replyWithError(w, http.StatusBadRequest, "element has no options")
		return false
	}
	return true
}

func (s *Server) replyElement(w http.ResponseWriter, id string) {
	el, ok := s.store.Find(id)
	if !ok {
		replyWithError(w, http.StatusNotFound, "element not found")
		return
	}
	replyJSON(w, http.StatusOK, el)
}

func optionIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		replyWithError(w, http.StatusBadRequest, "option index must be an integer")
		return 0, false
	}
	return index, true
}
