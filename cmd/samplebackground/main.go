package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/tcrsampler"
	"github.com/carbocation/tcrsampler/bgdb"
	_ "github.com/carbocation/tcrsampler/compileinfoprint"
	"github.com/carbocation/tcrsampler/record"
	"github.com/carbocation/tcrsampler/sampler"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		backgroundPath string
		requestsPath   string
		organism       string
		depth          int
		seed           int64
		flatten        bool
		weightName     string
		maxDraws       int
		usage          bool
		missing        string
		verbose        bool
	)

	flag.StringVar(&backgroundPath, "background", "", "Background artifact written by buildbackground: a TSV (optionally compressed, local or gs://) or a .db SQLite file.")
	flag.StringVar(&requestsPath, "requests", "", "TSV of v, j, n requests. Use - for STDIN.")
	flag.BoolVar(&usage, "usage", false, "Instead of -requests, draw one sequence for every V/J pair in the background.")
	flag.StringVar(&organism, "organism", "human", "Organism: human or mouse.")
	flag.IntVar(&depth, "depth", 1, "Multiplier on each request's n.")
	flag.Int64Var(&seed, "seed", 1, "Seed for the random number generator. Each request is drawn with the same seed.")
	flag.BoolVar(&flatten, "flatten", false, "Print one sequence per line instead of one line per draw with its request.")
	flag.StringVar(&weightName, "weight", "", "Weight draws by freq or count. Defaults to the column the background was built with.")
	flag.IntVar(&maxDraws, "max-draws", sampler.DefaultMaxDraws, "Maximum n*depth for a single request. Larger requests draw nothing.")
	flag.StringVar(&missing, "missing", "NA", "Value printed when a V/J pair is absent from the background.")
	flag.BoolVar(&verbose, "verbose", false, "Log debug output.")
	flag.Parse()

	if backgroundPath == "" || (requestsPath == "" && !usage) {
		fmt.Fprintln(os.Stderr, "Please provide -background and either -requests or -usage")
		flag.Usage()
		os.Exit(1)
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var client *storage.Client
	if strings.HasPrefix(backgroundPath, "gs://") || strings.HasPrefix(requestsPath, "gs://") {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	s, err := sampler.New(organism, sampler.WithLogger(logrus.StandardLogger()))
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	rs, buildOpts, err := bgdb.LoadArtifact(backgroundPath, client)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	if weightName != "" {
		if buildOpts.Weight, err = record.ParseWeight(weightName); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}

	s.RestoreBackground(rs, buildOpts)
	log.Printf("Loaded a background of %d V/J pairs from %s\n", s.Store().Len(), backgroundPath)

	var reqs []sampler.Request
	if usage {
		reqs = sampler.UsageRequests(s.Store().Pairs())
	} else {
		reqs, err = readRequests(requestsPath, client)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}

	opts := sampler.SampleOptions{Depth: depth, Seed: seed, Weight: buildOpts.Weight, MaxDraws: maxDraws}

	draws := s.Sample(reqs, opts)
	flat := sampler.Flatten(draws)
	if misses := sampler.Misses(flat); misses > 0 {
		log.Printf("%d of %d draws had no background for their V/J pair\n", misses, len(flat))
	}

	if flatten {
		fmt.Fprintln(STDOUT, "sequence")
		for _, seq := range flat {
			fmt.Fprintln(STDOUT, value(seq, missing))
		}
		return
	}

	fmt.Fprintln(STDOUT, strings.Join([]string{"request", "v_segment", "j_segment", "sequence"}, "\t"))
	for i, req := range reqs {
		for _, seq := range draws[i] {
			fmt.Fprintf(STDOUT, "%d\t%s\t%s\t%s\n", i+1, req.V, req.J, value(seq, missing))
		}
	}
}

func readRequests(path string, client *storage.Client) ([]sampler.Request, error) {
	var r io.ReadCloser = os.Stdin
	if path != "-" {
		var err error
		r, err = tcrsampler.Open(path, client)
		if err != nil {
			return nil, err
		}
	}
	defer r.Close()

	return sampler.ParseRequests(r)
}

func value(seq null.String, missing string) string {
	if !seq.Valid {
		return missing
	}

	return seq.String
}
