package definition

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/goliatone/go-formflow/pkg/model"
)

// Store holds definitions keyed by id.
type Store struct {
	mu          sync.RWMutex
	definitions map[string]model.Definition
	sources     map[string]string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		definitions: make(map[string]model.Definition),
		sources:     make(map[string]string),
	}
}

// LoadFS walks the provided filesystem and parses every JSON/YAML definition
// file. Empty files and ids declared twice are errors. When fsys is nil the
// returned store is empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := NewStore()
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("definition: read %s: %w", path, err)
		}
		def, err := Parse(path, data)
		if err != nil {
			return err
		}
		return store.add(def, path)
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// LoadDir is LoadFS over a directory on disk.
func LoadDir(dir string) (*Store, error) {
	if dir == "" {
		return NewStore(), nil
	}
	return LoadFS(os.DirFS(dir))
}

// Add validates and registers a definition built in code, for example by
// FromOpenAPI.
func (s *Store) Add(def model.Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("definition: %w", err)
	}
	return s.add(def, "")
}

func (s *Store) add(def model.Definition, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if previous, exists := s.sources[def.ID]; exists {
		if previous == "" {
			previous = "code"
		}
		return fmt.Errorf("definition: duplicate id %q (file %s, first declared in %s)", def.ID, source, previous)
	}
	s.definitions[def.ID] = def
	s.sources[def.ID] = source
	return nil
}

// Get returns the definition registered under id.
func (s *Store) Get(id string) (model.Definition, bool) {
	if s == nil {
		return model.Definition{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.definitions[id]
	return def, ok
}

// List returns every definition sorted by id.
func (s *Store) List() []model.Definition {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Definition, 0, len(s.definitions))
	for _, def := range s.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Empty reports whether the store holds any definitions.
func (s *Store) Empty() bool {
	if s == nil {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.definitions) == 0
}
