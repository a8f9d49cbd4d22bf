package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"fundraiser/internal/domain"
	"fundraiser/internal/middleware"
	"fundraiser/internal/service"
)

const maxBodyBytes = 1 << 20

type App struct {
	Svc          *service.Service
	Logger       zerolog.Logger
	DefaultLimit int
}

func NewApp(svc *service.Service, logger zerolog.Logger, defaultLimit int) *App {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &App{Svc: svc, Logger: logger, DefaultLimit: defaultLimit}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type problem struct {
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Code   string            `json:"code"`
	Detail string            `json:"detail,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (a *App) error(w http.ResponseWriter, status int, code, detail string) {
	a.problem(w, problem{Status: status, Code: code, Detail: detail})
}

func (a *App) problem(w http.ResponseWriter, p problem) {
	p.Title = http.StatusText(p.Status)
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// fail writes the problem document matching err.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrUnavailable) {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("service unavailable")
		a.error(w, http.StatusServiceUnavailable, "unavailable", "campaign state is being restored")
		return
	}
	status := statusFor(domain.CategoryOf(err))
	if status == http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("request_id", middleware.RequestIDFromContext(r.Context())).Msg("request failed")
		a.error(w, status, "internal", "internal error")
		return
	}
	p := problem{Status: status, Code: domain.CodeOf(err), Detail: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		p.Detail = de.Kind.Error()
		p.Fields = de.Fields
	}
	a.problem(w, p)
}

func statusFor(c domain.Category) int {
	switch c {
	case domain.CategoryCapacity:
		return http.StatusUnprocessableEntity
	case domain.CategoryNotFound:
		return http.StatusNotFound
	case domain.CategoryConflict, domain.CategoryState:
		return http.StatusConflict
	case domain.CategoryInvalidArgument:
		return http.StatusBadRequest
	case domain.CategoryUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			a.fail(w, r, de)
			return false
		}
		a.error(w, http.StatusBadRequest, "invalid_body", err.Error())
		return false
	}
	return true
}

// pathID parses the chi URL parameter name as an identifier.
func (a *App) pathID(w http.ResponseWriter, r *http.Request, name string) (domain.ID, bool) {
	id, err := domain.ParseID(chi.URLParam(r, name))
	if err != nil {
		a.error(w, http.StatusBadRequest, "invalid_id", err.Error())
		return domain.ID{}, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
