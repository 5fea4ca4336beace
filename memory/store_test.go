package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/embedding"
)

func TestFileStore_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.json")
	store := NewFileStore(path, zap.NewNop())
	ctx := context.Background()

	entries := []*Entry{
		{
			ID:        "e1",
			Content:   "hello",
			Embedding: []float64{0.1, 0.2, 0.3},
			Tags:      []string{"greeting"},
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Relevance: 0.7,
		},
	}
	require.NoError(t, store.Save(ctx, entries))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "e1", loaded[0].ID)
	require.Equal(t, []float64{0.1, 0.2, 0.3}, loaded[0].Embedding)
	require.Equal(t, 0.7, loaded[0].Relevance)
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestFileStore_MalformedFileStartsEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewFileStore(path, zap.NewNop())
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestFileStore_AtomicRewrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "memory.json")
	store := NewFileStore(path, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, []*Entry{{ID: "e1"}}))
	require.NoError(t, store.Save(ctx, []*Entry{{ID: "e2"}}))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "e2", loaded[0].ID)

	// 临时文件不残留
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".memory-*"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreWithClient(client, "test:memory", zap.NewNop())
	ctx := context.Background()

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, loaded)

	require.NoError(t, store.Save(ctx, []*Entry{{ID: "e1", Content: "hello"}}))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "e1", loaded[0].ID)
}

func TestRedisStore_MalformedSnapshotStartsEmpty(t *testing.T) {
	t.Parallel()

	srv := miniredis.RunT(t)
	require.NoError(t, srv.Set("test:memory", "{oops"))

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	store := NewRedisStoreWithClient(client, "test:memory", zap.NewNop())

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestAdaptiveMemory_PersistenceFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	// 指向不可写路径的存储：Add 仍然成功
	store := NewFileStore(string([]byte{0}), zap.NewNop())
	m := New(DefaultConfig(), embedding.NewHashProvider(64), store, zap.NewNop())

	id, err := m.Add(context.Background(), "survives broken storage", AddOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	require.Equal(t, 1, m.Size())
}
