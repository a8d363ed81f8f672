package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitInvalidURL(t *testing.T) {
	err := Init("://invalid-url", "")
	assert.Error(t, err)
}

func TestInitUnreachable(t *testing.T) {
	prev := GetClient()
	t.Cleanup(func() { SetClient(prev) })

	err := Init("redis://127.0.0.1:1", "")
	assert.Error(t, err)
	assert.Equal(t, prev, GetClient())
}

func TestInitAndClose(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("pw")
	t.Cleanup(func() { SetClient(nil) })

	require.NoError(t, Init("redis://"+mr.Addr(), "pw"))
	assert.NotNil(t, GetClient())

	assert.NoError(t, Close())
	assert.Nil(t, GetClient())
	assert.NoError(t, Close())
}

func TestSetClient(t *testing.T) {
	mr := miniredis.RunT(t)
	cli := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { SetClient(nil) })

	SetClient(cli)
	assert.Same(t, cli, GetClient())
}
