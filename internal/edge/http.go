package edge

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/capitalize-ai/theology-chat/internal/middleware"
	"github.com/capitalize-ai/theology-chat/pkg/logger"
)

// ScopeControl is the JWT scope required by the control endpoints.
const ScopeControl = "edge:control"

// HandlerOptions configures the edge HTTP surface.
type HandlerOptions struct {
	Origin        *url.URL
	Router        *Router
	Controller    *Controller
	Notifications *Notifications
	JWTSecret     string
	Logger        *logger.Logger
}

type pushRequest struct {
	Payload string `json:"payload"`
}

type syncRequest struct {
	Tag string `json:"tag"`
}

// NewHandler builds the edge: control endpoints under /_edge and a reverse
// proxy to the origin, through the router, for everything else.
func NewHandler(opts HandlerOptions) http.Handler {
	log := opts.Logger.Named("edge")

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(opts.Origin)
			pr.SetXForwarded()
		},
		Transport: opts.Router,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Warn("proxy request failed", zap.String("path", r.URL.Path), zap.Error(err))
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"success": false,
				"error":   "Origen no disponible",
			})
		},
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)

	r.Route("/_edge", func(r chi.Router) {
		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, opts.Controller.Status())
		})
		r.Handle("/metrics", promhttp.Handler())
		r.Get("/notification-click", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"url": NotificationClick(r.URL.Query().Get("action")),
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(opts.JWTSecret))
			r.Use(middleware.RequireScope(ScopeControl))

			r.Post("/control", func(w http.ResponseWriter, r *http.Request) {
				var msg ControlMessage
				if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
					return
				}
				if err := opts.Controller.HandleMessage(r.Context(), msg); err != nil {
					status := http.StatusInternalServerError
					if errors.Is(err, ErrUnknownMessage) {
						status = http.StatusBadRequest
					}
					writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
					return
				}
				writeJSON(w, http.StatusOK, opts.Controller.Status())
			})

			r.Post("/push", func(w http.ResponseWriter, r *http.Request) {
				var req pushRequest
				if r.ContentLength != 0 {
					if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
						writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
						return
					}
				}
				notification, err := opts.Notifications.Push(r.Context(), req.Payload)
				if err != nil {
					log.Warn("push delivery failed", zap.Error(err))
					writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "error": err.Error()})
					return
				}
				writeJSON(w, http.StatusOK, notification)
			})

			r.Post("/sync", func(w http.ResponseWriter, r *http.Request) {
				var req syncRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
					return
				}
				handled := opts.Notifications.BackgroundSync(r.Context(), req.Tag)
				writeJSON(w, http.StatusOK, map[string]any{"success": true, "handled": handled})
			})
		})
	})

	r.NotFound(proxy.ServeHTTP)
	r.MethodNotAllowed(proxy.ServeHTTP)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
