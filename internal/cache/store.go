// Package cache keeps the last good HLSL output of every translated script
// on disk. A failed translation never overwrites a stored output.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"emberc/internal/translator"
)

// Increment when the Entry layout changes.
const schemaVersion uint16 = 1

var (
	// ErrNotSuccessful is returned by Put for a failed translation.
	ErrNotSuccessful = errors.New("translation did not succeed")
	// ErrSchema marks an entry written by an incompatible version.
	ErrSchema = errors.New("cache entry schema mismatch")
)

// Attribute is a cached attribute binding.
type Attribute struct {
	Name string
	Type string
}

// Entry is one stored translation.
type Entry struct {
	Schema     uint16
	Script     string
	Key        Digest
	Target     string
	HLSL       string
	Attributes []Attribute
	Parameters []string
	StoredAt   time.Time
}

// NewEntry captures the parts of a successful translation worth keeping.
func NewEntry(script string, key Digest, opts translator.Options, res *translator.Results) *Entry {
	e := &Entry{
		Schema: schemaVersion,
		Script: script,
		Key:    key,
		Target: opts.Target.String(),
		HLSL:   res.HLSL,
	}
	for _, a := range res.Attributes {
		e.Attributes = append(e.Attributes, Attribute{Name: a.Name, Type: a.Type.HLSLName()})
	}
	for _, p := range res.Parameters {
		e.Parameters = append(e.Parameters, p.Name)
	}
	return e
}

// Store is a directory of msgpack encoded entries. Safe for concurrent
// use.
type Store struct {
	mu  sync.RWMutex
	dir string
	now func() time.Time
}

// Open creates dir if needed and returns a store rooted there.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir is the root directory of the store.
func (s *Store) Dir() string {
	if s == nil {
		return ""
	}
	return s.dir
}

func (s *Store) keyPath(key Digest) string {
	return filepath.Join(s.dir, "out", key.String()+".mp")
}

// lastPath is the last good entry of a script, independent of its key.
func (s *Store) lastPath(script string) string {
	sum := sha256.Sum256([]byte(script))
	return filepath.Join(s.dir, "last", hex.EncodeToString(sum[:8])+".mp")
}

// Put stores a successful translation under key and records it as the
// last good output of script. Failed results are rejected and leave the
// store untouched.
func (s *Store) Put(script string, key Digest, opts translator.Options, res *translator.Results) error {
	if s == nil {
		return nil
	}
	if res == nil || !res.OK {
		return fmt.Errorf("cache %s: %w", script, ErrNotSuccessful)
	}
	e := NewEntry(script, key, opts, res)
	e.StoredAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeEntry(s.keyPath(key), e); err != nil {
		return fmt.Errorf("cache %s: %w", script, err)
	}
	if err := writeEntry(s.lastPath(script), e); err != nil {
		return fmt.Errorf("cache %s: %w", script, err)
	}
	return nil
}

// Get returns the entry stored under key.
func (s *Store) Get(key Digest) (*Entry, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readEntry(s.keyPath(key))
}

// LastGood returns the most recent successful output of script, whatever
// its key.
func (s *Store) LastGood(script string) (*Entry, bool, error) {
	if s == nil {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok, err := readEntry(s.lastPath(script))
	if ok && e.Script != script {
		return nil, false, nil
	}
	return e, ok, err
}

// DropAll removes every stored entry.
func (s *Store) DropAll() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.dir + ".old-" + s.now().Format("20060102150405")
	if err := os.Rename(s.dir, old); err != nil {
		return fmt.Errorf("drop cache: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("drop cache: %w", err)
	}
	return os.RemoveAll(old)
}

func writeEntry(path string, e *Entry) (err error) {
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = msgpack.NewEncoder(f).Encode(e); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func readEntry(path string) (*Entry, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if e.Schema != schemaVersion {
		return nil, false, fmt.Errorf("%s: %w", filepath.Base(path), ErrSchema)
	}
	return &e, true, nil
}
