// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns persists learned cue patterns across runs. The store is a
// YAML file of (pattern, type, provenance) records with a uniqueness
// invariant on (pattern, type). Appends are serialized with a file lock so
// concurrent runs cannot race the invariant; removal only happens through
// the explicit hygiene action exposed by the CLI.
package patterns

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

const defaultPath = "knowledge/patterns.yaml"

// storeKey identifies one entry for uniqueness checks.
type storeKey struct {
	pattern string
	typ     types.NodeType
}

// Store is a pattern store bound to one file. The in-memory snapshot is
// loaded once at Open; Learn re-reads the file under the lock before
// writing, so a shared store follows a read-then-merge discipline.
type Store struct {
	path string

	mu      sync.Mutex
	entries []types.PatternEntry
	index   map[storeKey]struct{}
}

// Open loads the pattern store at cfg.Path. A missing file yields an empty
// store; a malformed file is an error (the store is auditable state, not a
// cache to silently reset).
func Open(cfg types.PatternStoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = defaultPath
	}

	s := &Store{path: path, index: make(map[storeKey]struct{})}

	entries, err := readFile(path)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		s.add(e)
	}

	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current entries. The copy is safe to hand
// to a classifier for the duration of a run.
func (s *Store) Snapshot() []types.PatternEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.PatternEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains reports whether the (pattern, type) pair is already stored.
func (s *Store) Contains(pattern string, t types.NodeType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[storeKey{pattern, t}]
	return ok
}

// Learn appends the entries not already present and persists the store,
// returning how many were added. Already-present (pattern, type) pairs are
// no-ops: existing entries are never overwritten. The whole
// load-merge-write cycle runs under an exclusive file lock so concurrent
// writers cannot duplicate a pair.
func (s *Store) Learn(entries ...types.PatternEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(func() int {
		added := 0
		for _, e := range entries {
			if _, ok := s.index[storeKey{e.Pattern, e.Type}]; ok {
				continue
			}
			s.add(e)
			added++
		}
		return added
	})
}

// Remove deletes one (pattern, type) entry, reporting whether it existed.
// This is the manual hygiene path; nothing in the pipeline calls it.
func (s *Store) Remove(pattern string, t types.NodeType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := false
	_, err := s.update(func() int {
		key := storeKey{pattern, t}
		if _, ok := s.index[key]; !ok {
			return 0
		}
		delete(s.index, key)
		kept := s.entries[:0]
		for _, e := range s.entries {
			if e.Pattern == pattern && e.Type == t {
				continue
			}
			kept = append(kept, e)
		}
		s.entries = kept
		removed = true
		return 0
	})
	return removed, err
}

// update runs mutate and persists the result under the file lock, merging
// entries written by other processes since the last read.
func (s *Store) update(mutate func() int) (int, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return 0, fmt.Errorf("creating pattern store directory: %w", err)
	}

	lock := flock.New(s.path + ".lock")
	if err := lock.Lock(); err != nil {
		return 0, fmt.Errorf("locking pattern store: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	// Merge entries appended by other writers since our snapshot.
	onDisk, err := readFile(s.path)
	if err != nil {
		return 0, err
	}
	for _, e := range onDisk {
		if _, ok := s.index[storeKey{e.Pattern, e.Type}]; !ok {
			s.add(e)
		}
	}

	n := mutate()

	if err := s.writeLocked(); err != nil {
		return n, err
	}
	return n, nil
}

// writeLocked persists the entries atomically: write to a temp file in the
// same directory, then rename over the store. A crash mid-write leaves the
// previous store intact.
func (s *Store) writeLocked() error {
	data, err := yaml.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("marshaling pattern store: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing pattern store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing pattern store: %w", err)
	}
	return nil
}

// add appends an entry and indexes its key. Caller holds s.mu.
func (s *Store) add(e types.PatternEntry) {
	s.entries = append(s.entries, e)
	s.index[storeKey{e.Pattern, e.Type}] = struct{}{}
}

// readFile loads entries from path. Missing file returns nil.
func readFile(path string) ([]types.PatternEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading pattern store %s: %w", path, err)
	}

	var entries []types.PatternEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing pattern store %s: %w", path, err)
	}
	return entries, nil
}
