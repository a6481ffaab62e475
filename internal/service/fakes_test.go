package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thingspace/thingspace-notes/internal/domain"
	"github.com/thingspace/thingspace-notes/pkg/writequeue"
)

// memNoteRepo is an in-memory domain.NoteRepository with the same version
// semantics as the gorm one.
type memNoteRepo struct {
	mu    sync.Mutex
	notes map[string]*domain.Note
	// failWrites makes every mutation fail, for "no partial write" checks.
	failWrites bool
}

func newMemNoteRepo() *memNoteRepo {
	return &memNoteRepo{notes: map[string]*domain.Note{}}
}

var errStoreDown = errors.New("store down")

func (r *memNoteRepo) GetByID(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return n.Clone(), nil
}

func (r *memNoteRepo) Create(_ context.Context, note *domain.Note) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return nil, errStoreDown
	}
	n := note.Clone()
	n.Version = 1
	r.notes[n.ID] = n
	return n.Clone(), nil
}

func (r *memNoteRepo) Update(_ context.Context, note *domain.Note) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return nil, errStoreDown
	}
	cur, ok := r.notes[note.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if cur.Version != note.Version {
		return nil, domain.ErrVersionConflict
	}
	n := note.Clone()
	n.Version++
	r.notes[n.ID] = n
	return n.Clone(), nil
}

func (r *memNoteRepo) Delete(_ context.Context, id string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return nil, errStoreDown
	}
	n, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(r.notes, id)
	return n, nil
}

func (r *memNoteRepo) ListByWorkspace(_ context.Context, workspaceID string, noteType domain.NoteType) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.notes {
		if n.WorkspaceID == workspaceID && n.NoteType == noteType {
			out = append(out, n.Clone())
		}
	}
	// map order is random; callers must not depend on store order
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memNoteRepo) MoveWorkspace(_ context.Context, id, from string, version int64, to string) (*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrites {
		return nil, errStoreDown
	}
	cur, ok := r.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if cur.WorkspaceID != from || cur.Version != version {
		return nil, domain.ErrVersionConflict
	}
	cur.WorkspaceID = to
	cur.Version++
	cur.UpdatedAt = time.Now().UTC()
	return cur.Clone(), nil
}

func (r *memNoteRepo) ListMissingEmbedding(_ context.Context, limit int) ([]*domain.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Note
	for _, n := range r.notes {
		if n.Embedding == nil && len(out) < limit {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (r *memNoteRepo) UpdateEmbedding(_ context.Context, id string, version int64, vec []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.notes[id]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != version {
		return domain.ErrVersionConflict
	}
	cur.Embedding = append([]float32(nil), vec...)
	return nil
}

// snapshot returns a deep copy of the store for before/after comparisons.
func (r *memNoteRepo) snapshot() map[string]*domain.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.Note, len(r.notes))
	for id, n := range r.notes {
		out[id] = n.Clone()
	}
	return out
}

// put stores n as is, bypassing versioning.
func (r *memNoteRepo) put(n *domain.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[n.ID] = n.Clone()
}

type memWorkspaceRepo struct {
	domain.WorkspaceRepository
	mu         sync.Mutex
	workspaces map[string]*domain.Workspace
	members    map[string]domain.Role // workspace/user
}

func newMemWorkspaceRepo() *memWorkspaceRepo {
	return &memWorkspaceRepo{workspaces: map[string]*domain.Workspace{}, members: map[string]domain.Role{}}
}

// add creates the workspace and grants each "user:role" pair.
func (r *memWorkspaceRepo) add(id string, grants ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspaces[id] = &domain.Workspace{ID: id, Name: id}
	for _, g := range grants {
		user, role, _ := strings.Cut(g, ":")
		r.members[id+"/"+user] = domain.Role(role)
	}
}

func (r *memWorkspaceRepo) GetByID(_ context.Context, id string) (*domain.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ws, nil
}

func (r *memWorkspaceRepo) GetMember(_ context.Context, workspaceID, userID string) (*domain.WorkspaceMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.members[workspaceID+"/"+userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.WorkspaceMember{WorkspaceID: workspaceID, UserID: userID, Role: role}, nil
}

// hashEmbedder maps text to a deterministic bag-of-words vector so that texts
// sharing words have a positive cosine.
type hashEmbedder struct {
	calls atomic.Int64
}

const hashDims = 64

func (e *hashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	v := make([]float32, hashDims)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%hashDims]++
	}
	return v, nil
}

func (e *hashEmbedder) Name() string { return "hash" }

// downEmbedder is an unavailable provider.
type downEmbedder struct {
	calls atomic.Int64
}

func (e *downEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls.Add(1)
	return nil, errors.New("connection refused")
}

func (e *downEmbedder) Name() string { return "down" }

func newTestQueue(t *testing.T) *writequeue.Manager {
	t.Helper()
	cfg := writequeue.DefaultConfig()
	cfg.WriteTimeout = 5 * time.Second
	m := writequeue.New(&cfg, nil)
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	return m
}

type fixture struct {
	notes    *memNoteRepo
	ws       *memWorkspaceRepo
	embedder domain.EmbeddingProvider
	search   SearchService
	note     NoteService
	access   AccessService
}

func newFixture(t *testing.T, embedder domain.EmbeddingProvider) *fixture {
	t.Helper()
	f := &fixture{notes: newMemNoteRepo(), ws: newMemWorkspaceRepo(), embedder: embedder}
	f.ws.add("w1", "alice:owner", "bob:editor", "victor:viewer")
	f.ws.add("w2", "alice:editor")
	f.ws.add("w3", "mallory:owner")

	q := newTestQueue(t)
	cfg := DefaultServiceConfig()
	f.search = NewSearchService(f.notes, embedder, cfg.Search, nil)
	f.note = NewNoteService(f.notes, f.ws, embedder, f.search, q, nil, nil, cfg)
	f.access = NewAccessService(f.notes, f.ws, q, nil)
	return f
}
