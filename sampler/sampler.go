// Package sampler draws synthetic background repertoires from a built
// background: for each requested (V, J) pair it samples CDR3 sequences with
// replacement, weighted by abundance.
package sampler

import (
	"sync"

	"cloud.google.com/go/storage"
	"github.com/carbocation/tcrsampler/background"
	"github.com/carbocation/tcrsampler/genedb"
	"github.com/carbocation/tcrsampler/record"
	"github.com/sirupsen/logrus"
)

// Sampler owns one background. BuildBackground replaces the store and tables
// together under a write lock, so concurrent sampling sees either the old
// background or the new one.
type Sampler struct {
	Organism string

	log   logrus.FieldLogger
	genes *genedb.DB

	mu      sync.RWMutex
	records *record.RecordSet
	store   *background.Store
	tables  *background.Tables
}

type Option func(*Sampler)

// WithLogger routes warnings (unseen pairs, unknown genes) to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Sampler) {
		s.log = l
	}
}

// WithGeneDB enables gene-name consistency warnings when building.
func WithGeneDB(db *genedb.DB) Option {
	return func(s *Sampler) {
		s.genes = db
	}
}

// New validates organism and returns an empty sampler.
func New(organism string, opts ...Option) (*Sampler, error) {
	if err := genedb.ValidateOrganism(organism); err != nil {
		return nil, err
	}

	s := &Sampler{
		Organism: organism,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// LoadRecords reads a record set and keeps it as the default input of
// BuildBackground.
func (s *Sampler) LoadRecords(path string, layout record.Layout, client *storage.Client) (record.RecordSet, error) {
	rs, err := record.Load(path, layout, client)
	if err != nil {
		return rs, err
	}

	s.log.WithFields(logrus.Fields{
		"path":    path,
		"records": rs.Len(),
		"dropped": rs.Dropped,
	}).Debug("Loaded records")

	s.SetRecords(rs)

	return rs, nil
}

func (s *Sampler) SetRecords(rs record.RecordSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = &rs
}

// Records returns the loaded record set, if any.
func (s *Sampler) Records() (record.RecordSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.records == nil {
		return record.RecordSet{}, false
	}
	return *s.records, true
}

// BuildBackground builds from rs, or from the loaded records when rs is nil,
// and replaces the sampler's store and tables. On error the previous
// background is kept.
func (s *Sampler) BuildBackground(rs *record.RecordSet, opts background.Options) error {
	if rs == nil {
		loaded, ok := s.Records()
		if !ok {
			loaded = record.RecordSet{}
		}
		rs = &loaded
	}

	store, tables, err := background.Build(*rs, opts)
	if err != nil {
		return err
	}

	s.install(store, tables, rs.Len(), "Built background")

	return nil
}

// RestoreBackground installs a persisted background, as read back from a
// saved artifact, without re-ranking or capping its groups. See
// background.Restore.
func (s *Sampler) RestoreBackground(rs record.RecordSet, opts background.Options) {
	store, tables := background.Restore(rs, opts)

	s.install(store, tables, rs.Len(), "Restored background")
}

func (s *Sampler) install(store *background.Store, tables *background.Tables, records int, msg string) {
	if s.genes != nil {
		for _, gene := range s.genes.Unknown(store.Pairs()) {
			s.log.WithField("gene", gene).Warnf("%s was not recognized in the %s gene database", gene, s.genes.Organism)
		}
	}

	s.log.WithFields(logrus.Fields{
		"pairs":   store.Len(),
		"records": records,
		"weight":  store.Weight.String(),
	}).Debug(msg)

	s.mu.Lock()
	s.store, s.tables = store, tables
	s.mu.Unlock()
}

// Store returns the current background, or nil before the first build.
func (s *Sampler) Store() *background.Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store
}

// Tables returns the current frequency tables, or nil before the first build.
func (s *Sampler) Tables() *background.Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tables
}
