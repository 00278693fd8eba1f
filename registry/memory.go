package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/andishehs/MetaGen/core"
)

// ErrInvalidOrchestra is returned when saving an orchestra without a name or
// with a malformed definition.
var ErrInvalidOrchestra = errors.New("invalid orchestra")

// InMemoryStore is a volatile core.Registry keyed by orchestra name. Names
// are listed in insertion order. Returned orchestras are copies.
type InMemoryStore struct {
	mu     sync.RWMutex
	byName map[string]*core.Orchestra
	order  []string
	nextID int64
}

// NewInMemoryStore creates a store holding the given orchestras.
func NewInMemoryStore(seed ...core.Orchestra) *InMemoryStore {
	s := &InMemoryStore{byName: make(map[string]*core.Orchestra)}
	for i := range seed {
		o := seed[i]
		_ = s.save(&o)
	}
	return s
}

// Load implements core.Registry.
func (s *InMemoryStore) Load(_ context.Context, name string) (*core.Orchestra, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("orchestra %q: %w", name, core.ErrNotFound)
	}
	return copyOrchestra(o), nil
}

// Save implements core.Registry. An existing orchestra of the same name is
// replaced in place and keeps its id.
func (s *InMemoryStore) Save(ctx context.Context, o *core.Orchestra) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.save(o)
}

func (s *InMemoryStore) save(o *core.Orchestra) error {
	if err := validate(o); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copyOrchestra(o)
	normalize(stored)
	if prev, ok := s.byName[stored.Name]; ok {
		stored.ID = prev.ID
	} else {
		s.nextID++
		stored.ID = s.nextID
		s.order = append(s.order, stored.Name)
	}
	s.byName[stored.Name] = stored
	o.ID, o.Date = stored.ID, stored.Date
	return nil
}

// List implements core.Registry.
func (s *InMemoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...), nil
}

// Delete implements core.Registry.
func (s *InMemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[name]; !ok {
		return fmt.Errorf("orchestra %q: %w", name, core.ErrNotFound)
	}
	delete(s.byName, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func validate(o *core.Orchestra) error {
	if o == nil || strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidOrchestra)
	}
	if len(o.Definition) > 0 && !json.Valid(o.Definition) {
		return fmt.Errorf("%w: %q definition is not valid JSON", ErrInvalidOrchestra, o.Name)
	}
	return nil
}

// normalize fills the defaults applied on save.
func normalize(o *core.Orchestra) {
	o.Name = strings.TrimSpace(o.Name)
	if o.Date == "" {
		o.Date = core.Today()
	}
	if len(o.Definition) == 0 {
		o.Definition = json.RawMessage("{}")
	}
}

func copyOrchestra(o *core.Orchestra) *core.Orchestra {
	c := *o
	c.Definition = append(json.RawMessage(nil), o.Definition...)
	return &c
}
