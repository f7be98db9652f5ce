package mockapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sumandas0/worldkit/pkg/sdk"
	"github.com/sumandas0/worldkit/pkg/utils"
)

// ErrorResponse represents the error body returned by the fake API
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id,omitempty"`
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(sdk.HeaderAPIKey)
		pin := r.Header.Get(sdk.HeaderAPIPin)

		if key == "" || pin == "" {
			s.sendError(w, r, utils.NewAppError(utils.CodeUnauthorized, "authentication credentials were not provided", utils.ErrUnauthorized))
			return
		}
		if s.config.APIKey != "" && (key != s.config.APIKey || pin != s.config.APIPin) {
			s.sendError(w, r, utils.NewAppError(utils.CodeUnauthorized, "invalid API key or PIN", utils.ErrUnauthorized))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireKnownType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		elementType := chi.URLParam(r, "elementType")
		if !sdk.IsElementType(elementType) {
			s.sendError(w, r, utils.NewAppError(utils.CodeNotFound, "unknown element type: "+elementType, utils.ErrNotFound))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listElements(w http.ResponseWriter, r *http.Request) {
	elementType := chi.URLParam(r, "elementType")

	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}

	sendJSON(w, http.StatusOK, s.store.List(elementType, filters))
}

func (s *Server) getElement(w http.ResponseWriter, r *http.Request) {
	record, err := s.store.Get(chi.URLParam(r, "elementType"), chi.URLParam(r, "elementID"))
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, record)
}

func (s *Server) createElement(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	elementType := chi.URLParam(r, "elementType")
	created, err := s.store.Create(elementType, record)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	id, _ := created[sdk.FieldID].(string)
	s.logChange(elementType, id, "element created")
	sendJSON(w, http.StatusCreated, created)
}

func (s *Server) replaceElement(w http.ResponseWriter, r *http.Request) {
	record, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}

	elementType, id := chi.URLParam(r, "elementType"), chi.URLParam(r, "elementID")
	updated, err := s.store.Replace(elementType, id, record)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	s.logChange(elementType, id, "element replaced")
	sendJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteElement(w http.ResponseWriter, r *http.Request) {
	elementType, id := chi.URLParam(r, "elementType"), chi.URLParam(r, "elementID")
	if err := s.store.Delete(elementType, id); err != nil {
		s.sendError(w, r, err)
		return
	}
	s.logChange(elementType, id, "element deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logChange(elementType, id, msg string) {
	if s.logger == nil {
		return
	}
	s.logger.WithElement(elementType, id).Debug().Msg(msg)
}

func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (Record, bool) {
	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		s.sendError(w, r, utils.NewAppError(utils.CodeInvalidInput, "invalid request body", err))
		return nil, false
	}
	if record == nil {
		s.sendError(w, r, utils.NewAppError(utils.CodeInvalidInput, "request body must be a JSON object", utils.ErrInvalidInput))
		return nil, false
	}
	return record, true
}

func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := utils.HTTPStatus(err)

	detail := ErrorDetail{
		Code:      utils.CodeInternal,
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
		RequestID: chiMiddleware.GetReqID(r.Context()),
	}
	if appErr, ok := err.(*utils.AppError); ok {
		detail.Code = appErr.Code
		detail.Message = appErr.Message
		if len(appErr.Details) > 0 {
			detail.Details = appErr.Details
		}
	}

	if s.logger != nil && statusCode >= http.StatusInternalServerError {
		s.logger.WithError(err).Error().Str("path", r.URL.Path).Msg("fake API request failed")
	}

	sendJSON(w, statusCode, ErrorResponse{Error: detail})
}

func sendJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
