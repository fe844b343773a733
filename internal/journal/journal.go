// internal/journal/journal.go
package journal

import (
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"kambios/internal/errors"
	"kambios/internal/plan"
	"kambios/internal/storage"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

type Kind string

const (
	KindApply Kind = "apply"
	KindUndo  Kind = "undo"
)

const entryPrefix = "entry"

// Entry is one journaled apply or undo.
type Entry struct {
	ID        string      `json:"id"`
	Kind      Kind        `json:"kind"`
	Directory string      `json:"directory"`
	Strategy  string      `json:"strategy,omitempty"`
	Source    string      `json:"source,omitempty"`
	Pairs     []plan.Pair `json:"pairs"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Message   string      `json:"message,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func (e *Entry) GetID() string { return e.ID }

// Recorder is what the apply engine and undo path write to.
type Recorder interface {
	Record(e *Entry) error
	Get(id string) (*Entry, error)
	List(limit int) ([]*Entry, error)
	Close() error
}

// Options configures a Journal
type Options struct {
	Path            string // database directory; empty keeps it in memory
	CacheSize       int
	CompressMinSize int
	Logger          *zap.Logger
	Now             func() time.Time
}

// Journal is a badger-backed log of renames. It is diagnostic only and never
// feeds undo.
type Journal struct {
	db     *badger.DB
	store  *storage.BadgerStore
	codec  *zstdCodec
	cache  *lru.Cache[string, *Entry]
	logger *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

func Open(opts Options) (*Journal, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cache, err := lru.New[string, *Entry](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	codec, err := newZstdCodec(opts.CompressMinSize)
	if err != nil {
		return nil, fmt.Errorf("creating codec: %w", err)
	}

	db, err := openDB(opts.Path)
	if err != nil {
		codec.close()
		return nil, err
	}

	return &Journal{
		db:     db,
		store:  storage.NewBadgerStore(db, entryPrefix, codec),
		codec:  codec,
		cache:  cache,
		logger: opts.Logger,
		now:    opts.Now,
	}, nil
}

// nextID returns a key that sorts by creation time. Two entries recorded in
// the same nanosecond still get increasing keys.
func (j *Journal) nextID(at time.Time) string {
	j.mu.Lock()
	n := at.UnixNano()
	if n <= j.last {
		n = j.last + 1
	}
	j.last = n
	j.mu.Unlock()
	return fmt.Sprintf("%020d-%s", n, uuid.New().String())
}

// Record assigns an ID and creation time to e and stores it.
func (j *Journal) Record(e *Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now().UTC()
	}
	e.ID = j.nextID(e.CreatedAt)

	if err := j.store.Create(e); err != nil {
		return errors.Internal("recording journal entry", err)
	}
	j.cache.Add(e.ID, e)

	j.logger.Debug("journal entry recorded",
		zap.String("id", e.ID),
		zap.String("kind", string(e.Kind)),
		zap.String("dir", e.Directory),
		zap.Int("pairs", len(e.Pairs)))
	return nil
}

func (j *Journal) Get(id string) (*Entry, error) {
	if e, ok := j.cache.Get(id); ok {
		return e, nil
	}

	var e Entry
	if err := j.store.Get(id, &e); err != nil {
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil, errors.NotFound(fmt.Sprintf("journal entry %s not found", id))
		}
		return nil, errors.Internal("reading journal entry", err)
	}
	j.cache.Add(id, &e)
	return &e, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (j *Journal) List(limit int) ([]*Entry, error) {
	entries := []*Entry{}
	err := j.store.Scan(true, limit, func(id string, val []byte) (bool, error) {
		if e, ok := j.cache.Get(id); ok {
			entries = append(entries, e)
			return true, nil
		}
		var e Entry
		if err := j.store.Decode(val, &e); err != nil {
			return false, fmt.Errorf("decoding entry %s: %w", id, err)
		}
		entries = append(entries, &e)
		return true, nil
	})
	if err != nil {
		return nil, errors.Internal("listing journal", err)
	}
	return entries, nil
}

func (j *Journal) Close() error {
	defer j.codec.close()
	if err := j.db.Close(); err != nil {
		return fmt.Errorf("closing journal: %w", err)
	}
	return nil
}

// Nop discards everything. Used when the journal is disabled.
type Nop struct{}

func (Nop) Record(*Entry) error { return nil }

func (Nop) Get(id string) (*Entry, error) {
	return nil, errors.NotFound(fmt.Sprintf("journal entry %s not found", id))
}

func (Nop) List(int) ([]*Entry, error) { return []*Entry{}, nil }

func (Nop) Close() error { return nil }
