package embcache

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/jobmatch/internal/domain"
)

type mockEmbedder struct {
	result domain.EmbeddingResult
	err    error
	calls  int
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.calls++
	m.texts = append(m.texts, text)
	return m.result, m.err
}

type setCall struct {
	key  string
	ttl  time.Duration
	tags []string
}

// mockStore implements the consumer interface for tests.
type mockStore struct {
	data  map[string][]byte
	sets  []setCall
	setFn func(ctx context.Context, key string, value []byte) error
}

func (m *mockStore) Key(parts ...string) string {
	return "jm:" + strings.Join(parts, ":")
}

func (m *mockStore) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	m.sets = append(m.sets, setCall{key: key, ttl: ttl, tags: tags})
	if m.setFn != nil {
		if err := m.setFn(ctx, key, value); err != nil {
			return err
		}
	}
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func newTestCache(t *testing.T, inner *mockEmbedder) (*Cache, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(inner, ms, 168*time.Hour, nil, zap.NewNop()), ms
}
