package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds every request body the API reads.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Message string `json:"message"`
}

func replyWithError(w http.ResponseWriter, statusCode int, errMsg string) {
	replyJSON(w, statusCode, &ErrorResponse{Message: errMsg})
}

func replyJSON(w http.ResponseWriter, statusCode int, output any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(output)
}

func readBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return body, nil
}

// decodeJSONBody decodes the request body into placeholder. Numbers are kept
// as json.Number when placeholder holds interfaces.
func decodeJSONBody(r *http.Request, placeholder any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(placeholder); err != nil {
		return fmt.Errorf("decoding json: %w", err)
	}
	return nil
}
