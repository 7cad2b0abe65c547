package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"slices"
	"sync"

	"whitecarrot/internal/config"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/resilience"
)

// ErrNoData is returned by Persister.Load when the backend holds no document yet
var ErrNoData = stderrors.New("no stored document")

// Persister stores the whole ATS document as one opaque blob
type Persister interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
	Close() error
}

// Watcher is implemented by persisters that can report external edits
type Watcher interface {
	// Watch calls onChange after the stored document changes and blocks
	// until ctx is done
	Watch(ctx context.Context, onChange func()) error
}

// Backend names accepted in the store configuration
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// NewPersister builds the backend selected by cfg. Every backend but memory
// is guarded by a circuit breaker when one is configured.
func NewPersister(ctx context.Context, cfg config.StoreConfig, logger *errors.Logger) (Persister, error) {
	var (
		p   Persister
		err error
	)
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryPersister(), nil
	case BackendFile:
		p = NewFilePersister(cfg.File.Path)
	case BackendRedis:
		p, err = NewRedisPersister(ctx, cfg.Redis, cfg.Key)
	case BackendPostgres:
		p, err = NewPostgresPersister(ctx, cfg.Postgres, cfg.Key)
	case BackendSQLite:
		p, err = NewSQLitePersister(ctx, cfg.SQLite, cfg.Key)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown store backend %q", cfg.Backend), nil)
	}
	if err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeStoreLoad, "failed to connect to the "+cfg.Backend+" store", err)
	}
	return withBreaker(p, cfg.Backend, cfg.CircuitBreaker, logger), nil
}

// MemoryPersister keeps the document in process memory
type MemoryPersister struct {
	mu  sync.Mutex
	doc []byte
}

// NewMemoryPersister creates an empty in-memory backend
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{}
}

func (m *MemoryPersister) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, ErrNoData
	}
	return slices.Clone(m.doc), nil
}

func (m *MemoryPersister) Save(ctx context.Context, doc []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = slices.Clone(doc)
	return nil
}

func (m *MemoryPersister) Close() error { return nil }

// breakerPersister fails fast while its backend keeps failing
type breakerPersister struct {
	Persister
	load *resilience.CircuitBreaker[[]byte]
	save *resilience.CircuitBreaker[struct{}]
}

func withBreaker(p Persister, name string, cfg config.CircuitBreakerConfig, logger *errors.Logger) Persister {
	if !cfg.Enabled {
		return p
	}
	return &breakerPersister{
		Persister: p,
		load:      resilience.NewCircuitBreaker[[]byte]("store-"+name+"-load", cfg, logger),
		save:      resilience.NewCircuitBreaker[struct{}]("store-"+name+"-save", cfg, logger),
	}
}

func (b *breakerPersister) Load(ctx context.Context) ([]byte, error) {
	empty := false
	doc, err := b.load.Execute(func() ([]byte, error) {
		doc, err := b.Persister.Load(ctx)
		if stderrors.Is(err, ErrNoData) {
			// an empty backend is healthy
			empty = true
			return nil, nil
		}
		return doc, err
	})
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, ErrNoData
	}
	return doc, nil
}

func (b *breakerPersister) Save(ctx context.Context, doc []byte) error {
	_, err := b.save.Execute(func() (struct{}, error) {
		return struct{}{}, b.Persister.Save(ctx, doc)
	})
	return err
}

// Watch forwards to the wrapped backend when it supports watching
func (b *breakerPersister) Watch(ctx context.Context, onChange func()) error {
	if w, ok := b.Persister.(Watcher); ok {
		return w.Watch(ctx, onChange)
	}
	return nil
}

// Stats reports the breaker state for the health endpoint
func (b *breakerPersister) Stats() map[string]any {
	return map[string]any{
		"load": b.load.GetStats(),
		"save": b.save.GetStats(),
	}
}
