// Package site serves the service index at the root path.
package site

import (
	"context"
	"encoding/json"
	"net/http"
)

// Route describes one endpoint listed by the index.
type Route struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Routes is the endpoint list served at /.
var Routes = []Route{
	{Method: http.MethodPost, Path: "/predict", Description: "acceptance probability in percent"},
	{Method: http.MethodPost, Path: "/explain/shap", Description: "Shapley attribution"},
	{Method: http.MethodPost, Path: "/explain/lime", Description: "local surrogate attribution"},
	{Method: http.MethodPost, Path: "/explain/rules", Description: "rule-based attribution"},
	{Method: http.MethodPost, Path: "/explain/combined", Description: "shap and lime with their agreement"},
	{Method: http.MethodPost, Path: "/explain/importance", Description: "features ordered by importance"},
	{Method: http.MethodPost, Path: "/retrain", Description: "retrain on fresh synthetic data"},
	{Method: http.MethodGet, Path: "/health", Description: "readiness"},
	{Method: http.MethodGet, Path: "/healthz", Description: "prometheus metrics"},
	{Method: http.MethodGet, Path: "/stats", Description: "service statistics"},
	{Method: http.MethodGet, Path: "/api-docs", Description: "API reference"},
}

type index struct {
	Service string  `json:"service"`
	Docs    string  `json:"docs"`
	Routes  []Route `json:"routes"`
}

// Register attaches the index route to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", NewRootHandler("matchxai"))
}

// RootHandler serves the service index.
type RootHandler struct {
	service string
}

// NewRootHandler creates a new root handler
func NewRootHandler(service string) *RootHandler {
	return &RootHandler{service: service}
}

// ServeHTTP answers exactly GET / and 404s every other unmatched path.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(index{
		Service: h.service,
		Docs:    "/api-docs",
		Routes:  Routes,
	})
}
