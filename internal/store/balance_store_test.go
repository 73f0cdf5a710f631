package store

import (
	"context"
	"testing"

	"go-parking-payment/internal/kvstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVBalanceStore_GetBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key means zero", func(t *testing.T) {
		s := NewKVBalanceStore(kvstore.NewMemoryStore())
		balance, err := s.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance)
	})

	t.Run("reads the plain decimal string format", func(t *testing.T) {
		kv := kvstore.NewMemoryStore()
		require.NoError(t, kv.Set(ctx, "user:1:balance", "8.5"))

		s := NewKVBalanceStore(kv)
		balance, err := s.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 8.5, balance)
	})

	t.Run("corrupt value is swallowed as zero", func(t *testing.T) {
		kv := kvstore.NewMemoryStore()
		require.NoError(t, kv.Set(ctx, "user:1:balance", "dwadzieścia"))

		s := NewKVBalanceStore(kv)
		balance, err := s.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0.0, balance)
	})
}

func TestKVBalanceStore_SetBalance(t *testing.T) {
	ctx := context.Background()
	kv := kvstore.NewMemoryStore()
	s := NewKVBalanceStore(kv)

	require.NoError(t, s.SetBalance(ctx, 1, 12.5))

	// 與既有存檔相同的純十進位字串格式
	raw, ok, err := kv.Get(ctx, "user:1:balance")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "12.5", raw)
}

func TestKVBalanceStore_Debit(t *testing.T) {
	ctx := context.Background()

	t.Run("debits when affordable", func(t *testing.T) {
		s := NewKVBalanceStore(kvstore.NewMemoryStore())
		require.NoError(t, s.SetBalance(ctx, 1, 10))

		newBalance, ok, err := s.Debit(ctx, 1, 1.5)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 8.5, newBalance)
	})

	t.Run("rejects without touching state when insufficient", func(t *testing.T) {
		s := NewKVBalanceStore(kvstore.NewMemoryStore())
		require.NoError(t, s.SetBalance(ctx, 1, 1))

		_, ok, err := s.Debit(ctx, 1, 1.5)
		require.NoError(t, err)
		assert.False(t, ok)

		balance, err := s.GetBalance(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 1.0, balance)
	})

	t.Run("zero cost debit is allowed on empty balance", func(t *testing.T) {
		s := NewKVBalanceStore(kvstore.NewMemoryStore())

		newBalance, ok, err := s.Debit(ctx, 1, 0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0.0, newBalance)
	})

	t.Run("result is rounded to cents", func(t *testing.T) {
		s := NewKVBalanceStore(kvstore.NewMemoryStore())
		require.NoError(t, s.SetBalance(ctx, 1, 8.5))

		newBalance, ok, err := s.Debit(ctx, 1, 1.65)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 6.85, newBalance)
	})
}
