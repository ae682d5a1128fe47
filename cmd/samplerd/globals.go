package main

import (
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/tcrsampler/bgdb"
	"github.com/carbocation/tcrsampler/record"
	"github.com/carbocation/tcrsampler/sampler"
)

type Global struct {
	log           logger
	storageClient *storage.Client

	Site           string
	BackgroundPath string

	// Weight, when set, replaces the weight column the background was built
	// with.
	Weight string

	// MaxDraws bounds n*depth for one pair; larger requests are rejected.
	MaxDraws int

	sampler *sampler.Sampler

	// Serializes reloads; sampling is guarded inside the sampler.
	reload sync.Mutex
}

type logger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

// Reload reads BackgroundPath again and swaps the sampler's background.
// Requests in flight keep sampling from the old background until the swap.
func (g *Global) Reload() error {
	g.reload.Lock()
	defer g.reload.Unlock()

	rs, opts, err := bgdb.LoadArtifact(g.BackgroundPath, g.storageClient)
	if err != nil {
		return err
	}
	if g.Weight != "" {
		if opts.Weight, err = record.ParseWeight(g.Weight); err != nil {
			return err
		}
	}

	g.sampler.RestoreBackground(rs, opts)

	g.log.Printf("Loaded a background of %d V/J pairs from %s\n", g.sampler.Store().Len(), g.BackgroundPath)

	return nil
}
