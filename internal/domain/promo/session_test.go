package promo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_SaveLoadDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	none, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, none)

	applied := &AppliedPromo{
		Promo:          PromoCode{ID: 7, Code: "WELCOME10", DiscountType: DiscountPercentage, DiscountValue: 10, IsActive: true},
		DiscountAmount: 250,
		Subtotal:       2500,
	}
	require.NoError(t, store.Save(ctx, "s1", applied))
	assert.Equal(t, time.Hour, mr.TTL("promo:session:s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "WELCOME10", loaded.Promo.Code)
	assert.Equal(t, int64(250), loaded.DiscountAmount)

	require.NoError(t, store.Delete(ctx, "s1"))
	loaded, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
