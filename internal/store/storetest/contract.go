// Package storetest holds the behavioral contract every store.Storage backend must pass.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artdiscover/artdiscover-server/internal/store"
)

// Run exercises a fresh backend returned by open for every subtest.
func Run(t *testing.T, open func(t *testing.T) store.Storage) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		s := open(t)
		v, ok, err := s.GetItem(context.Background(), store.KeyFavorites)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, v)
	})

	t.Run("set then get", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		raw := []byte(`[{"objectID":1,"departmentId":6}]`)

		require.NoError(t, s.SetItem(ctx, store.KeyUniverse, raw))

		v, ok, err := s.GetItem(ctx, store.KeyUniverse)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, raw, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.SetItem(ctx, store.KeyConsent, []byte("false")))
		require.NoError(t, s.SetItem(ctx, store.KeyConsent, []byte("true")))

		v, ok, err := s.GetItem(ctx, store.KeyConsent)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "true", string(v))
	})

	t.Run("empty value is present", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.SetItem(ctx, store.KeyFavorites, []byte{}))

		v, ok, err := s.GetItem(ctx, store.KeyFavorites)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, v)
	})

	t.Run("returned value is a copy", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		require.NoError(t, s.SetItem(ctx, "k", []byte("abc")))

		v, _, err := s.GetItem(ctx, "k")
		require.NoError(t, err)
		v[0] = 'z'

		again, _, err := s.GetItem(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(again))
	})

	t.Run("remove", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		require.NoError(t, s.SetItem(ctx, store.KeyUniverse, []byte("[]")))
		require.NoError(t, s.RemoveItem(ctx, store.KeyUniverse))
		require.NoError(t, s.RemoveItem(ctx, store.KeyUniverse), "removing a missing key is fine")

		_, ok, err := s.GetItem(ctx, store.KeyUniverse)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("canceled context", func(t *testing.T) {
		s := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, _, err := s.GetItem(ctx, "k")
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, s.SetItem(ctx, "k", []byte("v")), context.Canceled)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := range 16 {
			wg.Go(func() {
				key := fmt.Sprintf("k%d", i)
				assert.NoError(t, s.SetItem(ctx, key, []byte(key)))
			})
		}
		wg.Wait()

		for i := range 16 {
			key := fmt.Sprintf("k%d", i)
			v, ok, err := s.GetItem(ctx, key)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, key, string(v))
		}
	})

	t.Run("closed", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Close())

		_, _, err := s.GetItem(context.Background(), "k")
		assert.Error(t, err)
	})
}
