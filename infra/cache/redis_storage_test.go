package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestNewRedisStorageRejectsBadURL(t *testing.T) {
	_, err := NewRedisStorage("", "x:")
	assert.Error(t, err)

	_, err = NewRedisStorage("not-a-url", "x:")
	assert.Error(t, err)
}

func TestRedisStorage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0.5",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := NewRedisStorage(fmt.Sprintf("redis://%s:%s/0", host, port.Port()), "test:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set("hits", []byte("3"), time.Minute))
	got, err = store.Get("hits")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)

	require.NoError(t, store.Delete("hits"))
	got, err = store.Get("hits")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Set("a", []byte("1"), 0))
	require.NoError(t, store.Set("b", []byte("2"), 0))
	require.NoError(t, store.Reset())
	got, err = store.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got)
}
