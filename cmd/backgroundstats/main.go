package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/tcrsampler/background"
	"github.com/carbocation/tcrsampler/bgdb"
	_ "github.com/carbocation/tcrsampler/compileinfoprint"
	"github.com/carbocation/tcrsampler/record"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		backgroundPath string
		layoutName     string
		maxRows        int
		byCount        bool
		tables         bool
	)

	flag.StringVar(&backgroundPath, "background", "", "Background artifact (TSV or .db), or a raw clonotype table when -layout is set.")
	flag.StringVar(&layoutName, "layout", "", fmt.Sprintf("If set, treat -background as a raw table with this layout and build it with -max-rows. One of: %s", record.LayoutNames()))
	flag.IntVar(&maxRows, "max-rows", background.DefaultMaxRows, "Cap per V/J pair when building from a raw table.")
	flag.BoolVar(&byCount, "count", false, "Rank by clone count instead of frequency when building from a raw table.")
	flag.BoolVar(&tables, "tables", false, "Also print the frequency tables after the summary.")
	flag.Parse()

	if backgroundPath == "" {
		fmt.Fprintln(os.Stderr, "Please provide -background")
		flag.Usage()
		os.Exit(1)
	}

	var client *storage.Client
	if strings.HasPrefix(backgroundPath, "gs://") {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	var (
		store *background.Store
		tabs  *background.Tables
	)
	if layoutName != "" {
		layout, ok := record.Layouts[layoutName]
		if !ok {
			log.Fatalf("Layout %s is not recognized. Options: %s\n", layoutName, record.LayoutNames())
		}
		rs, err := record.Load(backgroundPath, layout, client)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}

		opts := background.Options{MaxRows: maxRows}
		if byCount {
			opts.Weight = record.WeightCount
		}
		if store, tabs, err = background.Build(rs, opts); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	} else {
		rs, opts, err := bgdb.LoadArtifact(backgroundPath, client)
		if err != nil {
			log.Fatalln(pfx.Err(err))
		}
		store, tabs = background.Restore(rs, opts)
	}

	summary, err := background.Summarize(store, tabs)
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}

	printSummary(summary)

	if tables {
		fmt.Fprintln(STDOUT)
		if err := tabs.WriteTSV(STDOUT); err != nil {
			log.Fatalln(pfx.Err(err))
		}
	}
}

func printSummary(s background.Summary) {
	fmt.Fprintf(STDOUT, "pairs\t%d\n", s.Pairs)
	fmt.Fprintf(STDOUT, "rows\t%d\n", s.Rows)
	fmt.Fprintf(STDOUT, "mean_group_size\t%.4f\n", s.MeanGroupSize)
	fmt.Fprintf(STDOUT, "median_group_size\t%.4f\n", s.MedianGroupSize)
	fmt.Fprintf(STDOUT, "max_group_size\t%d\n", s.MaxGroupSize)
	fmt.Fprintf(STDOUT, "capped_groups\t%d\n", s.CappedGroups)
	fmt.Fprintf(STDOUT, "occurrence_depth\t%d\n", s.OccurrenceDepth)
	fmt.Fprintf(STDOUT, "entropy_pair_bits\t%.4f\n", s.EntropyPair)
	fmt.Fprintf(STDOUT, "entropy_v_bits\t%.4f\n", s.EntropyV)
	fmt.Fprintf(STDOUT, "entropy_j_bits\t%.4f\n", s.EntropyJ)
	fmt.Fprintf(STDOUT, "entropy_occurrence_pair_bits\t%.4f\n", s.EntropyOccurrencePair)
	fmt.Fprintf(STDOUT, "entropy_occurrence_v_bits\t%.4f\n", s.EntropyOccurrenceV)
	fmt.Fprintf(STDOUT, "entropy_occurrence_j_bits\t%.4f\n", s.EntropyOccurrenceJ)
}
