package api

import (
	"net/http"

	"startup-intake/internal/common/logger"

	"github.com/gorilla/mux"
)

const BasePath = "/api/startup"

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter mounts h under BasePath and returns the root router so the
// binary can add its own operational endpoints.
func NewRouter(h *Handler, cfg RouterConfig, log logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(CORS(cfg.AllowedOrigins))
	r.Use(Logging(log.WithFields(map[string]interface{}{"component": "http"})))
	r.Use(Metrics)

	s := r.PathPrefix(BasePath).Subrouter()
	s.HandleFunc("/applications", h.CreateApplication).Methods(http.MethodPost, http.MethodOptions)
	s.HandleFunc("/applications", h.ListApplications).Methods(http.MethodGet, http.MethodOptions)
	s.HandleFunc("/applications/validate", h.ValidateApplication).Methods(http.MethodPost, http.MethodOptions)
	s.HandleFunc("/applications/{id:[0-9]+}", h.GetApplication).Methods(http.MethodGet, http.MethodOptions)
	s.HandleFunc("/applications/{id:[0-9]+}", h.UpdateApplication).Methods(http.MethodPut, http.MethodOptions)
	s.HandleFunc("/applications/{id:[0-9]+}", h.DeleteApplication).Methods(http.MethodDelete, http.MethodOptions)
	s.HandleFunc("/applications/{id:[0-9]+}/validate", h.ValidateApplication).Methods(http.MethodPost, http.MethodOptions)
	s.HandleFunc("/policy", h.GetPolicy).Methods(http.MethodGet, http.MethodOptions)

	return r
}
