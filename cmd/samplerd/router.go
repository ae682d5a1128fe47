package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/interpose/middleware"
	"github.com/justinas/alice"
)

func router(config *Global) http.Handler {
	router := mux.NewRouter()
	POST := router.Methods("POST").Subrouter()
	GET := router.Methods("GET", "HEAD").Subrouter()

	h := handler{Global: config, router: router}

	GET.HandleFunc("/", h.Index).Name("index")
	GET.HandleFunc("/goroutines", h.Goroutines)
	GET.HandleFunc("/pairs", h.Pairs).Name("pairs")
	GET.HandleFunc("/tables", h.Tables).Name("tables")
	GET.HandleFunc("/sample", h.Sample).Name("sample")

	//
	// POST
	//
	POST.Handle("/", http.NotFoundHandler())
	POST.HandleFunc("/sample", h.SampleBatch)
	POST.HandleFunc("/reload", h.Reload)

	standard := alice.New(
		// Log all requests to STDOUT
		middleware.GorillaLog(),
	)

	return standard.Then(router)
}
