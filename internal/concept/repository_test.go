package concept_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/playground/internal/concept"
	"github.com/p-n-ai/playground/internal/platform/cache"
)

func TestHTTPRepository_Concepts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get_concepts/physics" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"gravity": {"title": "Gravity"}, "friction": {"title": "Friction"}}`))
	}))
	defer srv.Close()

	repo := concept.NewHTTPRepository(srv.URL+"/", srv.Client())

	set, err := repo.Concepts(context.Background(), "physics")
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}
	if got := set.Keys(); !slices.Equal(got, []string{"gravity", "friction"}) {
		t.Errorf("Keys() = %v, want [gravity friction]", got)
	}
}

func TestHTTPRepository_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, `{"error": "Concepts file not found"}`, concept.ErrFetch},
		{"server error", http.StatusInternalServerError, ``, concept.ErrFetch},
		{"bad body", http.StatusOK, `not json`, concept.ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := concept.NewHTTPRepository(srv.URL, srv.Client()).Concepts(context.Background(), "motion")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Concepts() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPRepository_StatusInError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := concept.NewHTTPRepository(srv.URL, srv.Client()).Concepts(context.Background(), "waves")
	var fetchErr *concept.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusBadGateway || fetchErr.Topic != "waves" {
		t.Errorf("FetchError = %+v", fetchErr)
	}
}

func TestHTTPRepository_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := concept.NewHTTPRepository(url, nil).Concepts(context.Background(), "energy")
	if !errors.Is(err, concept.ErrFetch) {
		t.Errorf("Concepts() error = %v, want ErrFetch", err)
	}
}

func TestFileRepository_Concepts(t *testing.T) {
	dir := setupTestContent(t)

	repo, err := concept.NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}

	set, err := repo.Concepts(context.Background(), "astronomy")
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}
	if got := set.Keys(); !slices.Equal(got, []string{"solar_system", "stars"}) {
		t.Errorf("Keys() = %v, want [solar_system stars]", got)
	}
	c, _ := set.Get("solar_system")
	if c.Quiz == nil || c.Quiz.Answer != "Sun" {
		t.Errorf("Quiz = %+v, want answer Sun", c.Quiz)
	}
}

func TestFileRepository_ExtendedFields(t *testing.T) {
	repo, err := concept.NewFileRepository(setupTestContent(t))
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}

	set, err := repo.Concepts(context.Background(), "biology")
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}
	c, ok := set.Get("cells")
	if !ok {
		t.Fatal("Get(cells) not found")
	}
	if c.Explanation != "The tiny building blocks of life." {
		t.Errorf("Explanation = %q, want the concept text", c.Explanation)
	}
	if c.Goal != "Name the parts of a cell." {
		t.Errorf("Goal = %q", c.Goal)
	}
	if len(c.Breakdown) != 1 || c.Breakdown[0] != (concept.FormulaPart{Part: "Cells", Icon: "🔬", Description: "Too small to see"}) {
		t.Errorf("Breakdown = %+v", c.Breakdown)
	}
	if !c.HasMatching() || c.Matching.Pairs[0] != (concept.Pair{Left: "Nucleus", Right: "Control center"}) {
		t.Errorf("Matching = %+v", c.Matching)
	}
}

func TestFileRepository_UnknownTopicIsEmpty(t *testing.T) {
	repo, err := concept.NewFileRepository(setupTestContent(t))
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}

	set, err := repo.Concepts(context.Background(), "waves")
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}
	if set.Len() != 0 {
		t.Errorf("Len() = %d, want 0", set.Len())
	}
}

func TestFileRepository_SkipsInvalidYAML(t *testing.T) {
	dir := setupTestContent(t)
	os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("topic: [unclosed"), 0o644)
	os.WriteFile(filepath.Join(dir, "notes.yaml"), []byte("title: not a topic file"), 0o644)

	repo, err := concept.NewFileRepository(dir)
	if err != nil {
		t.Fatalf("NewFileRepository() error = %v", err)
	}
	got := repo.Topics()
	slices.Sort(got)
	if !slices.Equal(got, []string{"astronomy", "biology"}) {
		t.Errorf("Topics() = %v, want [astronomy biology]", got)
	}
}

func TestFileRepository_MissingDir(t *testing.T) {
	_, err := concept.NewFileRepository(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("NewFileRepository() should fail for a missing directory")
	}
}

func TestCachedRepository_ReadThrough(t *testing.T) {
	store := newMemoryStore()
	next := &countingRepo{set: concept.NewSet(concept.Concept{Key: "speed", Title: "Speed"})}
	repo := concept.NewCachedRepository(next, store, time.Minute)

	for range 3 {
		set, err := repo.Concepts(context.Background(), "motion")
		if err != nil {
			t.Fatalf("Concepts() error = %v", err)
		}
		if set.Len() != 1 {
			t.Fatalf("Len() = %d, want 1", set.Len())
		}
	}

	if next.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", next.calls)
	}
}

func TestCachedRepository_StoreFailureFallsThrough(t *testing.T) {
	store := newMemoryStore()
	store.err = errors.New("connection refused")
	next := &countingRepo{set: concept.NewSet(concept.Concept{Key: "speed"})}
	repo := concept.NewCachedRepository(next, store, time.Minute)

	if _, err := repo.Concepts(context.Background(), "motion"); err != nil {
		t.Fatalf("Concepts() error = %v, cache failure must not fail the fetch", err)
	}
	if next.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", next.calls)
	}
}

func TestCachedRepository_CorruptEntryRefetches(t *testing.T) {
	store := newMemoryStore()
	store.data["concepts:motion"] = []byte("garbage")
	next := &countingRepo{set: concept.NewSet(concept.Concept{Key: "speed"})}
	repo := concept.NewCachedRepository(next, store, time.Minute)

	set, err := repo.Concepts(context.Background(), "motion")
	if err != nil {
		t.Fatalf("Concepts() error = %v", err)
	}
	if set.Len() != 1 || next.calls != 1 {
		t.Errorf("Len() = %d, calls = %d; want 1, 1", set.Len(), next.calls)
	}
}

func TestCachedRepository_UpstreamErrorPropagates(t *testing.T) {
	next := &countingRepo{err: &concept.FetchError{Topic: "motion", StatusCode: 500}}
	repo := concept.NewCachedRepository(next, newMemoryStore(), time.Minute)

	if _, err := repo.Concepts(context.Background(), "motion"); !errors.Is(err, concept.ErrFetch) {
		t.Errorf("Concepts() error = %v, want ErrFetch", err)
	}
}

type countingRepo struct {
	set   *concept.Set
	err   error
	calls int
}

func (r *countingRepo) Concepts(context.Context, string) (*concept.Set, error) {
	r.calls++
	return r.set, r.err
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
	err  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (m *memoryStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func setupTestContent(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	os.WriteFile(filepath.Join(dir, "astronomy.yaml"), []byte(`
topic: astronomy
concepts:
  - key: solar_system
    title: "The Solar System"
    definition: "The Sun and everything that orbits it."
    example: "Earth takes a year to go around the Sun."
    animation: solar_system
    quiz:
      question: "What is at the center of the solar system?"
      options: ["Moon", "Sun", "Mars"]
      answer: "Sun"
  - key: stars
    title: "Stars"
    definition: "Giant balls of glowing gas."
`), 0o644)

	os.WriteFile(filepath.Join(dir, "biology.yaml"), []byte(`
topic: biology
concepts:
  - key: cells
    title: "Cells"
    concept: "The tiny building blocks of life."
    goal: "Name the parts of a cell."
    formula: "Life = Cells"
    formula_breakdown:
      - part: "Cells"
        icon: "🔬"
        description: "Too small to see"
    matching:
      pairs:
        - left: "Nucleus"
          right: "Control center"
        - left: "Membrane"
          right: "Gatekeeper"
`), 0o644)

	return dir
}
