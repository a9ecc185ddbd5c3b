package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/tanicerdas/weather-pipeline/internal/clock"
)

// ErrNotFound is returned when no live document exists for a key.
var ErrNotFound = errors.New("document not found")

// DecodeError marks a persisted document that could not be parsed. Callers
// skip the record; the surrounding run continues.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode %s: %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// IOError marks a filesystem failure. It is fatal to the current operation
// but never to the owning scheduler loop.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

const archiveTimestampLayout = "20060102150405"

// Entry is one live document as read back from disk.
type Entry struct {
	Key  string
	Data json.RawMessage
}

// FileStore is a keyed collection of independent JSON documents with
// rotate-on-overwrite archiving. The live directory always holds exactly the
// latest successful write per key; superseded versions move (not copy) into
// the archive directory under a timestamp-suffixed name.
//
// Both the raw cache and the filtered dataset are instances of this store.
type FileStore struct {
	liveDir    string
	archiveDir string
	workers    int
	clk        clock.Clock
	logger     *slog.Logger
}

// New creates a FileStore. workers bounds ReadAll parallelism; zero derives
// it from the available CPUs.
func New(liveDir, archiveDir string, workers int, clk clock.Clock, logger *slog.Logger) *FileStore {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
	}
	return &FileStore{
		liveDir:    liveDir,
		archiveDir: archiveDir,
		workers:    workers,
		clk:        clk,
		logger:     logger,
	}
}

// Write persists doc as the live document for key, rotating any previous
// live file into the archive first. A failed rotation is logged and the
// write proceeds; a failed write is an IOError.
func (s *FileStore) Write(key string, doc any) error {
	if err := checkKey(key); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", key, err)
	}

	livePath := filepath.Join(s.liveDir, key+".json")
	if _, err := os.Stat(livePath); err == nil {
		stamp := s.clk.Now().Format(archiveTimestampLayout)
		archivePath := filepath.Join(s.archiveDir, key+"_"+stamp+".json")
		if err := os.Rename(livePath, archivePath); err != nil {
			s.logger.Warn("store: failed to archive previous document", "key", key, "err", err)
		}
	}

	if err := os.WriteFile(livePath, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: livePath, Err: err}
	}
	return nil
}

// ReadAll enumerates every live document, never the archive. Reads run on a
// bounded worker pool since they are independent and I/O-bound. Unreadable
// or syntactically invalid files are skipped and logged; only a failure to
// list the live directory is an error. Entries come back sorted by key.
func (s *FileStore) ReadAll(ctx context.Context) ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.liveDir)
	if err != nil {
		return nil, &IOError{Op: "readdir", Path: s.liveDir, Err: err}
	}

	var keys []string
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}

	var (
		mu      sync.Mutex
		entries []Entry
		wg      sync.WaitGroup
		jobs    = make(chan string)
	)

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				data, err := os.ReadFile(filepath.Join(s.liveDir, key+".json"))
				if err != nil {
					s.logger.Warn("store: unreadable document, skipping", "key", key, "err", err)
					continue
				}
				if !json.Valid(data) {
					s.logger.Warn("store: corrupt document, skipping", "key", key)
					continue
				}
				mu.Lock()
				entries = append(entries, Entry{Key: key, Data: data})
				mu.Unlock()
			}
		}()
	}

	for _, key := range keys {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		case jobs <- key:
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Count reports the number of live documents.
func (s *FileStore) Count() (int, error) {
	dirEntries, err := os.ReadDir(s.liveDir)
	if err != nil {
		return 0, &IOError{Op: "readdir", Path: s.liveDir, Err: err}
	}
	n := 0
	for _, e := range dirEntries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n, nil
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid store key %q", key)
	}
	return nil
}
