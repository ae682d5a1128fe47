package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// handler provides global values that must be safe for concurrent use from
// multiple goroutines to each handler method.
type handler struct {
	*Global

	router *mux.Router
}

func (h *handler) JSON(w http.ResponseWriter, r *http.Request, output interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(output); err != nil {
		h.Global.log.Println(r.URL.Path, err)
	}
}

// HTTPError reports err to the client as JSON with the given status.
func HTTPError(h *handler, w http.ResponseWriter, r *http.Request, status int, err error) {
	h.Global.log.Println(r.Method, r.URL.Path, status, err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{err.Error()})
}
