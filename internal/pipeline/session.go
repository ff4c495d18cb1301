package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/insightq/insightq/internal/dataset"
	"github.com/insightq/insightq/internal/engine"
)

var ErrSessionNotFound = errors.New("session not found")

// Session owns one sealed table handle and one conversation memory. The
// mutex serializes questions: the pipeline is a synchronous call chain and a
// session never runs two questions concurrently.
type Session struct {
	ID          string
	DatasetType dataset.Type
	Engine      engine.Engine
	Memory      *Memory
	CreatedAt   time.Time
	RowCount    int

	mu         sync.Mutex
	lastResult *engine.Result
}

func (s *Session) setLastResult(result engine.Result) {
	s.lastResult = &result
}

// LastResult returns the most recent validated table, if any question has
// produced one.
func (s *Session) LastResult() (engine.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastResult == nil {
		return engine.Result{}, false
	}
	return *s.lastResult, true
}

// Registry holds live sessions by ID. Uploading a new file creates a fresh
// session; it never merges with or mutates an existing one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Session{}}
}

func (r *Registry) Create(ds *dataset.Dataset, eng engine.Engine) *Session {
	session := &Session{
		ID:          uuid.NewString(),
		DatasetType: ds.Type,
		Engine:      eng,
		Memory:      &Memory{},
		CreatedAt:   time.Now().UTC(),
		RowCount:    len(ds.Rows),
	}
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session and closes its table handle.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return session.Engine.Close()
}
