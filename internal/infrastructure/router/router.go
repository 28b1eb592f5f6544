package router

import (
	"net/http"
	"time"

	"ecovision-etl/pkg/logger"
)

// Route binds a method and path to a handler
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Router collects routes and serves them with request logging
type Router struct {
	routes []Route
	logger logger.Logger
}

// NewRouter creates a new router
func NewRouter(logger logger.Logger) *Router {
	return &Router{
		routes: make([]Route, 0),
		logger: logger,
	}
}

// Register adds a route
func (r *Router) Register(method, path string, handler http.HandlerFunc) {
	r.routes = append(r.routes, Route{Method: method, Path: path, Handler: handler})
	r.logger.Info("Registered route", "method", method, "path", path)
}

// Handle adds a route for any method
func (r *Router) Handle(path string, handler http.Handler) {
	r.Register("", path, handler.ServeHTTP)
}

// Routes returns the registered routes in registration order
func (r *Router) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}

// Handler builds the http.Handler serving every registered route
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	for _, route := range r.routes {
		pattern := route.Path
		if route.Method != "" {
			pattern = route.Method + " " + route.Path
		}
		mux.Handle(pattern, route.Handler)
	}
	return r.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		r.logger.Debug("HTTP request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}
