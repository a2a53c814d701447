package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/qrsim/internal/dynamo"
)

const (
	metadataFile     = "metadata.json"
	recordsFile      = "records.json"
	trajectoriesFile = "trajectories.csv"
)

// FileStore keeps one directory per run holding metadata.json, the record
// log and a flat CSV of every recorded state.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init(ctx context.Context) error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) SaveRun(ctx context.Context, meta RunMetadata, recs []Record) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(f *os.File) error {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, recordsFile), func(f *os.File) error {
		return WriteLog(f, recs)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, trajectoriesFile), func(f *os.File) error {
		return WriteTrajectoriesCSV(f, recs)
	}); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *FileStore) ListRuns(ctx context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.LoadRun(ctx, entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *FileStore) LoadRun(ctx context.Context, id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *FileStore) LoadRecords(ctx context.Context, id string) ([]Record, error) {
	f, err := os.Open(filepath.Join(s.baseDir, id, recordsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLog(f)
}

// QueryAt rebuilds the run's index in memory and queries it.
func (s *FileStore) QueryAt(ctx context.Context, id string, t float64) ([]dynamo.Snapshot, error) {
	recs, err := s.LoadRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	idx, err := Index(recs)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return idx.Query(t)
}
