package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/san-kum/qrsim/internal/dynamo"
)

// ErrRunNotFound is returned by archives for unknown run ids.
var ErrRunNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID        string             `json:"id"`
	Timestamp time.Time          `json:"timestamp"`
	Preset    string             `json:"preset,omitempty"`
	Backend   string             `json:"backend"`
	ForceLaw  string             `json:"force_law"`
	G         float64            `json:"gravitational_constant"`
	Lookback  float64            `json:"lookback"`
	Budget    int                `json:"budget"`
	Passes    int                `json:"passes"`
	Commits   int                `json:"commits"`
	Blocked   int                `json:"blocked"`
	StalledAt int                `json:"stalled_at,omitempty"`
	Records   int                `json:"records"`
	Agents    []string           `json:"agents"`
	Metrics   map[string]float64 `json:"metrics"`
	Elapsed   time.Duration      `json:"elapsed"`
}

// Archive persists finished runs and answers point queries against them.
type Archive interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, meta RunMetadata, recs []Record) (string, error)
	ListRuns(ctx context.Context) ([]RunMetadata, error)
	LoadRun(ctx context.Context, id string) (*RunMetadata, error)
	LoadRecords(ctx context.Context, id string) ([]Record, error)
	QueryAt(ctx context.Context, id string, t float64) ([]dynamo.Snapshot, error)
}

const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// NewArchive opens an archive rooted at dir.
func NewArchive(kind, dir string) (Archive, error) {
	switch kind {
	case "", KindFile:
		return NewFileStore(dir), nil
	case KindSQLite:
		return NewSQLiteStore(filepath.Join(dir, "runs.db")), nil
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", kind)
	}
}

func CloseIfSupported(a Archive) error {
	closer, ok := a.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
