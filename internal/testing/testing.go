// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/flavor/internal/models"
)

// MockCollection is a test double for [services.Collection]. Unset functions succeed with zero values.
type MockCollection[T any, C any, U any] struct {
	CreateFunc      func(ctx context.Context, input C) (T, error)
	UpdateFunc      func(ctx context.Context, id int, patch U) (T, error)
	DeleteFunc      func(ctx context.Context, id int) error
	SearchFunc      func(ctx context.Context, query string) ([]T, error)
	ListByOwnerFunc func(ctx context.Context, userID int) ([]T, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockCollection[T, C, U]) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls reports how many times the named method ran.
func (m *MockCollection[T, C, U]) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockCollection[T, C, U]) Create(ctx context.Context, input C) (T, error) {
	m.record("Create")
	if m.CreateFunc == nil {
		var zero T
		return zero, nil
	}
	return m.CreateFunc(ctx, input)
}

func (m *MockCollection[T, C, U]) Update(ctx context.Context, id int, patch U) (T, error) {
	m.record("Update")
	if m.UpdateFunc == nil {
		var zero T
		return zero, nil
	}
	return m.UpdateFunc(ctx, id, patch)
}

func (m *MockCollection[T, C, U]) Delete(ctx context.Context, id int) error {
	m.record("Delete")
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, id)
}

func (m *MockCollection[T, C, U]) Search(ctx context.Context, query string) ([]T, error) {
	m.record("Search")
	if m.SearchFunc == nil {
		return []T{}, nil
	}
	return m.SearchFunc(ctx, query)
}

func (m *MockCollection[T, C, U]) ListByOwner(ctx context.Context, userID int) ([]T, error) {
	m.record("ListByOwner")
	if m.ListByOwnerFunc == nil {
		return []T{}, nil
	}
	return m.ListByOwnerFunc(ctx, userID)
}

// MockRecipes is a test double for [services.RecipeCollection]
type MockRecipes struct {
	MockCollection[models.Recipe, models.RecipeInput, models.RecipePatch]
	ListFunc          func(ctx context.Context) ([]models.Recipe, error)
	RateFunc          func(ctx context.Context, id, rating int) (models.Recipe, error)
	AverageRatingFunc func(ctx context.Context, id int) (models.RatingSummary, error)
}

func (m *MockRecipes) List(ctx context.Context) ([]models.Recipe, error) {
	m.record("List")
	if m.ListFunc == nil {
		return []models.Recipe{}, nil
	}
	return m.ListFunc(ctx)
}

func (m *MockRecipes) Rate(ctx context.Context, id, rating int) (models.Recipe, error) {
	m.record("Rate")
	if m.RateFunc == nil {
		return models.Recipe{ID: id}, nil
	}
	return m.RateFunc(ctx, id, rating)
}

func (m *MockRecipes) AverageRating(ctx context.Context, id int) (models.RatingSummary, error) {
	m.record("AverageRating")
	if m.AverageRatingFunc == nil {
		return models.RatingSummary{}, nil
	}
	return m.AverageRatingFunc(ctx, id)
}

// MockTrains is a test double for [services.TrainCollection]
type MockTrains = MockCollection[models.Train, models.TrainInput, models.TrainPatch]

// StaticIdentity reports a fixed logged-in user. A zero ID means nobody is logged in.
type StaticIdentity int

func (s StaticIdentity) UserID() (int, bool) { return int(s), s != 0 }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
