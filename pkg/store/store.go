// Package store persists saved views: named bookmarks of a selection plus
// its interactive state (expanded nodes, query, direction), so an
// investigation can be reopened exactly where it was left.
//
// Two implementations are provided: [MemoryStore] for the CLI and tests,
// and [MongoStore] for server deployments.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/permitscope/permitscope/pkg/errors"
)

// View is a saved visualization state.
type View struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`

	// Selection
	Selection string `json:"selection" bson:"selection"` // "pages" or "user"
	UserID    string `json:"user_id,omitempty" bson:"user_id,omitempty"`
	PageID    string `json:"page_id,omitempty" bson:"page_id,omitempty"`

	// Interactive state
	Expanded  []string `json:"expanded,omitempty" bson:"expanded,omitempty"`
	Query     string   `json:"query,omitempty" bson:"query,omitempty"`
	Direction string   `json:"direction,omitempty" bson:"direction,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the saved-view persistence interface.
type Store interface {
	// Save persists a view. A view with an empty ID gets a new one; an
	// existing ID is overwritten.
	Save(ctx context.Context, view *View) error

	// Get retrieves a view by id. Returns a VIEW_NOT_FOUND error when the
	// id is unknown.
	Get(ctx context.Context, id string) (*View, error)

	// List returns all views, newest first.
	List(ctx context.Context) ([]*View, error)

	// Delete removes a view. Deleting an unknown id is a VIEW_NOT_FOUND
	// error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// prepare fills in identity and timestamps before a save.
func prepare(view *View) {
	now := time.Now().UTC()
	if view.ID == "" {
		view.ID = uuid.NewString()
		view.CreatedAt = now
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = now
	}
	view.UpdatedAt = now
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeViewNotFound, "view %s not found", id)
}

// MemoryStore is an in-process Store for the CLI and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	views map[string]View
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{views: make(map[string]View)}
}

func (s *MemoryStore) Save(_ context.Context, view *View) error {
	prepare(view)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[view.ID] = *view
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	if !ok {
		return nil, notFound(id)
	}
	return &v, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*View, 0, len(s.views))
	for _, v := range s.views {
		v := v
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[id]; !ok {
		return notFound(id)
	}
	delete(s.views, id)
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }
