package main

import (
	"bufio"
	"compress/gzip"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/tcrsampler"
	"github.com/carbocation/tcrsampler/background"
	"github.com/carbocation/tcrsampler/bgdb"
	_ "github.com/carbocation/tcrsampler/compileinfoprint"
	"github.com/carbocation/tcrsampler/genedb"
	"github.com/carbocation/tcrsampler/record"
	"github.com/carbocation/tcrsampler/sampler"
	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		inputs         string
		layoutName     string
		perSubject     bool
		maxRows        int
		stratify       bool
		byCount        bool
		singleton      bool
		splitAmbiguous bool
		output         string
		sqlitePath     string
		tablesPath     string
		organism       string
		geneDBPath     string
		progress       bool
		verbose        bool
	)

	flag.StringVar(&inputs, "input", "", "Comma-separated local or gs:// paths to clonotype tables. Further paths may be given as arguments. May be compressed.")
	flag.StringVar(&layoutName, "layout", "CANONICAL", fmt.Sprintf("Column layout of the input. One of: %s", record.LayoutNames()))
	flag.BoolVar(&perSubject, "per-subject", false, "Treat each input file as one subject, named after the file.")
	flag.IntVar(&maxRows, "max-rows", background.DefaultMaxRows, "Maximum sequences retained per V/J pair (per subject with -stratify).")
	flag.BoolVar(&stratify, "stratify", false, "Cap each subject separately within a V/J pair. Requires a subject column or -per-subject.")
	flag.BoolVar(&byCount, "count", false, "Rank and weight by clone count instead of frequency.")
	flag.BoolVar(&singleton, "singleton", false, "Set every retained row's count and frequency to 1, making draws uniform within a pair.")
	flag.BoolVar(&splitAmbiguous, "split-ambiguous", false, "Register rows with comma-separated V or J calls under every combination.")
	flag.StringVar(&output, "output", "", "Path for the TSV background artifact. Ending in .gz compresses it.")
	flag.StringVar(&sqlitePath, "sqlite", "", "Path for a SQLite copy of the background.")
	flag.StringVar(&tablesPath, "tables", "", "Path for the frequency tables. Use - for STDOUT.")
	flag.StringVar(&organism, "organism", "human", "Organism the repertoire comes from: human or mouse.")
	flag.StringVar(&geneDBPath, "genedb", "", "Optional gene database TSV (id, organism, ...) used to warn about unrecognized V/J names.")
	flag.BoolVar(&progress, "progress", true, "Show a progress bar while grouping.")
	flag.BoolVar(&verbose, "verbose", false, "Log debug output.")
	flag.Parse()

	paths := splitPaths(inputs, flag.Args())
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Please provide at least one -input")
		flag.Usage()
		os.Exit(1)
	}

	if output == "" && sqlitePath == "" && tablesPath == "" {
		fmt.Fprintln(os.Stderr, "Please provide at least one of -output, -sqlite, or -tables")
		flag.Usage()
		os.Exit(1)
	}

	layout, ok := record.Layouts[layoutName]
	if !ok {
		log.Fatalf("Layout %s is not recognized. Options: %s\n", layoutName, record.LayoutNames())
	}

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	var client *storage.Client
	if anyGS(append(paths, geneDBPath)) {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	opts := []sampler.Option{sampler.WithLogger(logrus.StandardLogger())}
	if geneDBPath != "" {
		db, err := loadGeneDB(geneDBPath, organism, client)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		log.Printf("Loaded %d %s genes from %s\n", db.Len(), organism, geneDBPath)
		opts = append(opts, sampler.WithGeneDB(db))
	}

	s, err := sampler.New(organism, opts...)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	if err := loadInputs(s, paths, layout, perSubject, client); err != nil {
		log.Fatalln(pfx.Err(err))
	}

	rs, _ := s.Records()
	log.Printf("Loaded %d records from %d file(s), dropping %d invalid rows\n", rs.Len(), len(paths), rs.Dropped)

	weight := record.WeightFrequency
	if byCount {
		weight = record.WeightCount
	}

	buildOpts := background.Options{
		MaxRows:           maxRows,
		StratifyBySubject: stratify,
		Weight:            weight,
		MakeSingleton:     singleton,
		SplitAmbiguous:    splitAmbiguous,
	}

	var bar *pb.ProgressBar
	if progress {
		bar = pb.New(0).SetWriter(os.Stderr)
		buildOpts.Progress = bar
		bar.Start()
	}

	err = s.BuildBackground(nil, buildOpts)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	store, tables := s.Store(), s.Tables()
	log.Printf("Built a background of %d V/J pairs holding %d sequences\n", store.Len(), len(store.Records()))

	if output != "" {
		if err := writeArtifact(output, store); err != nil {
			log.Fatalln(pfx.Err(err))
		}
		log.Println("Wrote", output)
	}

	if sqlitePath != "" {
		if err := bgdb.Save(sqlitePath, store); err != nil {
			log.Fatalln(pfx.Err(err))
		}
		log.Println("Wrote", sqlitePath)
	}

	if tablesPath == "-" {
		if err := tables.WriteTSV(STDOUT); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	} else if tablesPath != "" {
		if err := writeFile(tablesPath, tables.WriteTSV); err != nil {
			log.Fatalln(pfx.Err(err))
		}
		log.Println("Wrote", tablesPath)
	}
}

func splitPaths(inputs string, args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, p := range strings.Split(inputs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return append(out, args...)
}

func anyGS(paths []string) bool {
	for _, p := range paths {
		if strings.HasPrefix(p, "gs://") {
			return true
		}
	}

	return false
}

func loadInputs(s *sampler.Sampler, paths []string, layout record.Layout, perSubject bool, client *storage.Client) error {
	if perSubject {
		rs, err := record.LoadPerSubject(paths, layout, client, subjectName)
		if err != nil {
			return err
		}
		s.SetRecords(rs)
		return nil
	}

	if len(paths) == 1 {
		_, err := s.LoadRecords(paths[0], layout, client)
		return err
	}

	var all record.RecordSet
	for i, path := range paths {
		rs, err := record.Load(path, layout, client)
		if err != nil {
			return err
		}
		if i > 0 && rs.HasSubject != all.HasSubject {
			return fmt.Errorf("%s: some inputs have a subject column and some do not", path)
		}
		all = all.Concat(rs)
	}
	s.SetRecords(all)

	return nil
}

// subjectName strips the directory and every extension, so that
// gs://bucket/A5-S11.txt.gz becomes A5-S11.
func subjectName(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}

	return base
}

func loadGeneDB(path, organism string, client *storage.Client) (*genedb.DB, error) {
	rc, err := tcrsampler.Open(path, client)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return genedb.Load(rc, organism)
}

func writeArtifact(path string, store *background.Store) error {
	return writeFile(path, func(w io.Writer) error {
		return bgdb.WriteArtifact(w, store)
	})
}

// writeFile creates path and hands a buffered writer to write, gzipping when
// the name ends in .gz.
func writeFile(path string, write func(io.Writer) error) error {
	if strings.HasPrefix(path, "gs://") {
		return fmt.Errorf("%s: outputs must be local paths", path)
	}

	f, err := os.Create(tcrsampler.ExpandHome(path))
	if err != nil {
		return err
	}
	defer f.Close()

	buf := bufio.NewWriterSize(f, BufferSize)

	var w io.Writer = buf
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(buf)
		w = gz
	}

	if err := write(w); err != nil {
		return err
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			return err
		}
	}

	if err := buf.Flush(); err != nil {
		return err
	}

	return f.Close()
}
