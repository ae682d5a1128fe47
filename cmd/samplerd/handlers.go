package main

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"

	"github.com/carbocation/tcrsampler/record"
	"github.com/carbocation/tcrsampler/sampler"
	"gopkg.in/guregu/null.v3"
)

type pairSize struct {
	V    string `json:"v"`
	J    string `json:"j"`
	Rows int    `json:"rows"`
}

type sampleResponse struct {
	Sequences []null.String `json:"sequences"`
	Misses    int           `json:"misses"`
}

type batchResponse struct {
	Draws  [][]null.String `json:"draws,omitempty"`
	Flat   []null.String   `json:"flat,omitempty"`
	Misses int             `json:"misses"`
}

func (h *handler) Index(w http.ResponseWriter, r *http.Request) {
	store := h.sampler.Store()

	h.JSON(w, r, struct {
		Site       string `json:"site"`
		Organism   string `json:"organism"`
		Background string `json:"background"`
		Pairs      int    `json:"pairs"`
	}{h.Site, h.sampler.Organism, h.BackgroundPath, store.Len()})
}

func (h *handler) Goroutines(w http.ResponseWriter, r *http.Request) {
	goroutines := fmt.Sprintf("%d goroutines are currently active\n", runtime.NumGoroutine())

	w.Write([]byte(goroutines))
}

func (h *handler) Pairs(w http.ResponseWriter, r *http.Request) {
	store := h.sampler.Store()

	out := make([]pairSize, 0, store.Len())
	for _, p := range store.Pairs() {
		group, _ := store.Lookup(p)
		out = append(out, pairSize{V: p.V, J: p.J, Rows: len(group)})
	}

	h.JSON(w, r, out)
}

func (h *handler) Tables(w http.ResponseWriter, r *http.Request) {
	tables := h.sampler.Tables()
	if tables == nil {
		HTTPError(h, w, r, http.StatusServiceUnavailable, fmt.Errorf("No background has been built"))
		return
	}

	w.Header().Set("Content-Type", "text/tab-separated-values")
	if err := tables.WriteTSV(w); err != nil {
		h.Global.log.Println(r.URL.Path, err)
	}
}

// Sample draws for a single pair: /sample?v=...&j=...&n=...
func (h *handler) Sample(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	v, j := q.Get("v"), q.Get("j")
	if v == "" || j == "" {
		HTTPError(h, w, r, http.StatusBadRequest, fmt.Errorf("Both v and j are required"))
		return
	}

	n, err := intParam(q.Get("n"), 1)
	if err != nil || n < 0 {
		HTTPError(h, w, r, http.StatusBadRequest, fmt.Errorf("n must be a non-negative integer, got %q", q.Get("n")))
		return
	}

	opts, err := h.sampleOptions(r)
	if err != nil {
		HTTPError(h, w, r, http.StatusBadRequest, err)
		return
	}

	if _, err := opts.Draws(n); err != nil {
		HTTPError(h, w, r, http.StatusBadRequest, err)
		return
	}

	draws := h.sampler.SampleBackground(v, j, n, opts)

	h.JSON(w, r, sampleResponse{Sequences: draws, Misses: sampler.Misses(draws)})
}

// SampleBatch draws for every v, j, n row of the request body. With
// flatten=true the draws are concatenated in request order.
func (h *handler) SampleBatch(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	reqs, err := sampler.ParseRequests(r.Body)
	if err != nil {
		HTTPError(h, w, r, http.StatusBadRequest, err)
		return
	}

	opts, err := h.sampleOptions(r)
	if err != nil {
		HTTPError(h, w, r, http.StatusBadRequest, err)
		return
	}

	for i, req := range reqs {
		if _, err := opts.Draws(req.N); err != nil {
			HTTPError(h, w, r, http.StatusBadRequest, fmt.Errorf("request %d (%s): %w", i+1, req.Pair(), err))
			return
		}
	}

	draws := h.sampler.Sample(reqs, opts)
	flat := sampler.Flatten(draws)

	out := batchResponse{Misses: sampler.Misses(flat)}
	if flatten, _ := strconv.ParseBool(r.URL.Query().Get("flatten")); flatten {
		out.Flat = flat
	} else {
		out.Draws = draws
	}

	h.JSON(w, r, out)
}

func (h *handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Global.Reload(); err != nil {
		HTTPError(h, w, r, http.StatusInternalServerError, err)
		return
	}

	h.Index(w, r)
}

func (h *handler) sampleOptions(r *http.Request) (sampler.SampleOptions, error) {
	q := r.URL.Query()
	opts := sampler.DefaultSampleOptions()
	opts.MaxDraws = h.MaxDraws
	if store := h.sampler.Store(); store != nil {
		opts.Weight = store.Weight
	}

	var err error
	if opts.Depth, err = intParam(q.Get("depth"), opts.Depth); err != nil {
		return opts, fmt.Errorf("depth: %w", err)
	}

	if seed := q.Get("seed"); seed != "" {
		if opts.Seed, err = strconv.ParseInt(seed, 10, 64); err != nil {
			return opts, fmt.Errorf("seed: %w", err)
		}
	}

	if weight := q.Get("weight"); weight != "" {
		if opts.Weight, err = record.ParseWeight(weight); err != nil {
			return opts, err
		}
	}

	return opts, nil
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}

	return strconv.Atoi(s)
}
