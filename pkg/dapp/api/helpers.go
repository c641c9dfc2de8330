package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/phenomenon0/betpool/pkg/betting"
	"github.com/phenomenon0/betpool/pkg/betting/pager"
)

type jsonResponse map[string]interface{}

const maxBodyBytes = 1 << 20

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var typeError *json.UnmarshalTypeError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &typeError):
			if typeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", typeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", typeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return fmt.Errorf("body contains unknown key %s", strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	js, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(js, '\n'))
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, jsonResponse{"error": message})
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	s.errorResponse(w, http.StatusBadRequest, err.Error())
}

// statusFor translates the error taxonomy to HTTP. The API is the only
// place where errors become user-visible.
func statusFor(err error) int {
	switch {
	case errors.Is(err, betting.ErrUserRejected),
		errors.Is(err, betting.ErrNotAdmin):
		return http.StatusForbidden

	case errors.Is(err, betting.ErrProviderUnavailable),
		errors.Is(err, betting.ErrNotInitialized):
		return http.StatusServiceUnavailable

	case errors.Is(err, betting.ErrReverted),
		errors.Is(err, pager.ErrStale):
		return http.StatusConflict

	case errors.Is(err, betting.ErrShapeMismatch),
		errors.Is(err, pager.ErrUnsuccessful):
		return http.StatusBadGateway

	case errors.Is(err, betting.ErrInvalidInput),
		errors.Is(err, betting.ErrInvalidAmount):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) mapError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
		s.errorResponse(w, status, "the server encountered a problem and could not process your request")
		return
	}
	s.errorResponse(w, status, err.Error())
}

func idParam(r *http.Request, name string) (uint64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", betting.ErrInvalidInput, name, raw)
	}
	return id, nil
}

func wantsMore(r *http.Request) bool {
	switch r.URL.Query().Get("more") {
	case "1", "true":
		return true
	}
	return false
}
