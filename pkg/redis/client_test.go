package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewClient(context.Background(), Config{URL: "redis://" + mr.Addr() + "/0"})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewClient_Errors(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)

	_, err = NewClient(context.Background(), Config{URL: "not-a-url"})
	assert.Error(t, err)
}
