// Package store keeps the ATS collections in memory and mirrors them into a
// single JSON document after every mutation.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"

	"github.com/google/uuid"
)

//go:embed seed.json
var seedDocument []byte

// Data is the persisted document
type Data struct {
	Companies    []domain.Company     `json:"companies"`
	Jobs         []domain.Job         `json:"jobs"`
	Candidates   []domain.Candidate   `json:"candidates"`
	Applications []domain.Application `json:"applications"`
	Recruiters   []domain.Recruiter   `json:"recruiters"`
	DSAQuestions []domain.DSAQuestion `json:"dsaQuestions"`
}

// clone deep-copies the collections so a mutation can be discarded and no
// entity shares memory with the live document
func (d *Data) clone() *Data {
	return &Data{
		Companies:    cloneAll(d.Companies),
		Jobs:         cloneAll(d.Jobs),
		Candidates:   cloneAll(d.Candidates),
		Applications: cloneAll(d.Applications),
		Recruiters:   cloneAll(d.Recruiters),
		DSAQuestions: cloneAll(d.DSAQuestions),
	}
}

func cloneAll[T interface{ Clone() T }](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = v.Clone()
	}
	return out
}

// normalize replaces nil collections with empty ones so the document
// always carries every key
func (d *Data) normalize() {
	if d.Companies == nil {
		d.Companies = []domain.Company{}
	}
	if d.Jobs == nil {
		d.Jobs = []domain.Job{}
	}
	if d.Candidates == nil {
		d.Candidates = []domain.Candidate{}
	}
	if d.Applications == nil {
		d.Applications = []domain.Application{}
	}
	if d.Recruiters == nil {
		d.Recruiters = []domain.Recruiter{}
	}
	if d.DSAQuestions == nil {
		d.DSAQuestions = []domain.DSAQuestion{}
	}
}

// SeedData returns a fresh copy of the built-in demo data
func SeedData() (*Data, error) {
	return decode(seedDocument)
}

func decode(raw []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreCorrupt, "stored document is not valid JSON", err)
	}
	d.normalize()
	return &d, nil
}

// Recorder receives timing for every persistence round trip
type Recorder interface {
	RecordStoreOperation(ctx context.Context, operation string, duration time.Duration, err error)
}

// Options tune a Store
type Options struct {
	// SeedOnEmpty loads the demo data when the backend holds no document
	SeedOnEmpty bool
	// Latency is added before every operation to imitate a remote database
	Latency  time.Duration
	Logger   *errors.Logger
	Recorder Recorder
	// Now and NewID are replaced in tests
	Now   func() time.Time
	NewID func() string
}

// Store is the repository over all ATS collections
type Store struct {
	mu        sync.RWMutex
	data      *Data
	persister Persister
	lastHash  [sha256.Size]byte
	flushes   uint64

	latency  time.Duration
	logger   *errors.Logger
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// New creates a store backed by p and loads its document
func New(ctx context.Context, p Persister, opts Options) (*Store, error) {
	s := &Store{
		persister: p,
		latency:   opts.Latency,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}

	if err := s.load(ctx, opts.SeedOnEmpty); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context, seedOnEmpty bool) error {
	start := time.Now()
	raw, err := s.persister.Load(ctx)
	s.record(ctx, "load", start, err)

	switch {
	case err == nil:
		data, err := decode(raw)
		if err != nil {
			return err
		}
		s.data = data
		s.lastHash = sha256.Sum256(raw)
		s.logInfo("Loaded ATS document",
			"companies", len(data.Companies),
			"jobs", len(data.Jobs),
			"applications", len(data.Applications))
		return nil
	case stderrors.Is(err, ErrNoData) && seedOnEmpty:
		data, err := SeedData()
		if err != nil {
			return err
		}
		s.logInfo("No stored document found, loading demo data")
		return s.flush(ctx, data)
	case stderrors.Is(err, ErrNoData):
		data := &Data{}
		data.normalize()
		s.data = data
		return nil
	default:
		return errors.NewStorageError(errors.ErrCodeStoreLoad, "failed to load the ATS document", err)
	}
}

// Reload re-reads the document from the backend, skipping documents this
// store wrote itself. A document read while a mutation was being flushed is
// discarded: the backend already holds the newer write. It reports whether
// the in-memory state changed.
func (s *Store) Reload(ctx context.Context) (bool, error) {
	s.mu.RLock()
	seen := s.flushes
	s.mu.RUnlock()

	start := time.Now()
	raw, err := s.persister.Load(ctx)
	s.record(ctx, "reload", start, err)
	if err != nil {
		if stderrors.Is(err, ErrNoData) {
			return false, nil
		}
		return false, errors.NewStorageError(errors.ErrCodeStoreLoad, "failed to reload the ATS document", err)
	}

	hash := sha256.Sum256(raw)

	s.mu.Lock()
	defer s.mu.Unlock()

	if seen != s.flushes || hash == s.lastHash {
		return false, nil
	}
	data, err := decode(raw)
	if err != nil {
		return false, err
	}
	s.data = data
	s.lastHash = hash
	s.logInfo("Reloaded ATS document after external change")
	return true, nil
}

// Watch reloads the document whenever the backend reports an external
// change. It blocks until ctx is done; backends that cannot be watched
// return immediately.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.persister.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func() {
		if _, err := s.Reload(ctx); err != nil && s.logger != nil {
			s.logger.LogError(err, "Failed to reload ATS document")
		}
	})
}

// Reset replaces every collection with the demo data
func (s *Store) Reset(ctx context.Context) error {
	seed, err := SeedData()
	if err != nil {
		return err
	}
	return s.mutate(ctx, "reset", func(d *Data) error {
		*d = *seed
		return nil
	})
}

// Snapshot returns a copy of the whole document
func (s *Store) Snapshot(ctx context.Context) (*Data, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.clone(), nil
}

// BackendStats reports the circuit breaker state of the backend, if any
func (s *Store) BackendStats() map[string]any {
	if b, ok := s.persister.(interface{ Stats() map[string]any }); ok {
		return b.Stats()
	}
	return map[string]any{"enabled": false}
}

// Close releases the backend
func (s *Store) Close() error {
	return s.persister.Close()
}

// read runs fn under the read lock after the simulated latency
func (s *Store) read(ctx context.Context, fn func(d *Data) error) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.data)
}

// mutate applies fn to a copy of the collections, flushes the copy and only
// then makes it current. A failed flush leaves the store unchanged.
func (s *Store) mutate(ctx context.Context, operation string, fn func(d *Data) error) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.flush(ctx, next); err != nil {
		if s.logger != nil {
			s.logger.LogError(err, "Failed to persist ATS document", "operation", operation)
		}
		return err
	}
	return nil
}

// flush writes data to the backend and makes it current; callers hold the
// write lock or own the store exclusively
func (s *Store) flush(ctx context.Context, data *Data) error {
	data.normalize()
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeStoreSave, "failed to encode the ATS document", err)
	}

	start := time.Now()
	err = s.persister.Save(ctx, raw)
	s.record(ctx, "save", start, err)
	if err != nil {
		return errors.NewStorageError(errors.ErrCodeStoreSave, "failed to persist the ATS document", err)
	}

	s.data = data
	s.lastHash = sha256.Sum256(raw)
	s.flushes++
	return nil
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Store) record(ctx context.Context, operation string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	if stderrors.Is(err, ErrNoData) {
		err = nil
	}
	s.recorder.RecordStoreOperation(ctx, operation, time.Since(start), err)
}

func (s *Store) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Store) timestamp() string {
	return domain.Timestamp(s.now())
}

// shortID returns a short random suffix for human-facing identifiers
func (s *Store) shortID() string {
	id := strings.ReplaceAll(s.newID(), "-", "")
	if len(id) > 9 {
		id = id[:9]
	}
	return id
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Encode renders data as indented JSON, as written by the file backend
func Encode(data *Data) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return buf.Bytes(), nil
}
