package bigcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBigcacheGetSet(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{})
	require.NoError(t, err)
	defer p.Close(ctx)

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = p.Set(ctx, "k", []byte("v"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	got, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)
}

func TestLifeWindowZeroMeansNoExpiry(t *testing.T) {
	assert.Equal(t, NoExpiry, lifeWindow(0))
	assert.Equal(t, NoExpiry, lifeWindow(-time.Second))
	assert.Equal(t, time.Minute, lifeWindow(time.Minute))
	assert.Greater(t, NoExpiry, 50*365*24*time.Hour)
}
