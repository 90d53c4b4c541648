package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine-atacado/api/internal/domain"
	"github.com/vitrine-atacado/api/internal/repositories"
)

// setupTestRepository creates a miniredis server and a repository pointed at it.
func setupTestRepository(t *testing.T) (*CartRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	repo, err := NewCartRepository(client, Options{KeyPrefix: "vitrine", TTL: time.Hour})
	require.NoError(t, err)

	return repo, mr
}

func sampleCart(sessionID string, updatedAt time.Time) domain.Cart {
	added := updatedAt.Add(-time.Minute)
	return domain.Cart{
		ID: sessionID,
		Items: []domain.CartLineItem{
			{
				ID:        "01HZXCQ4R8",
				ProductID: "prod-42",
				Name:      "Vestido Longo",
				Image:     "https://cdn.example.com/vestido.jpg",
				Size:      "G",
				PriceTier: domain.TierDays30,
				UnitPrice: 8990,
				Quantity:  3,
				AddedAt:   added,
			},
		},
		CreatedAt: added,
		UpdatedAt: updatedAt,
	}
}

func TestGet_Missing(t *testing.T) {
	repo, _ := setupTestRepository(t)

	_, err := repo.Get(context.Background(), "nonexistent")
	require.Error(t, err)

	var repoErr repositories.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.True(t, repoErr.IsNotFound())
}

func TestGet_InvalidJSON(t *testing.T) {
	repo, mr := setupTestRepository(t)

	require.NoError(t, mr.Set("vitrine:cart:broken", "{not json"))

	_, err := repo.Get(context.Background(), "broken")
	require.ErrorContains(t, err, "decode cart")
}

func TestSaveAndGet_RoundTrip(t *testing.T) {
	repo, mr := setupTestRepository(t)
	ctx := context.Background()

	updated := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	cart := sampleCart("session-abc", updated)
	cart.Coupon = &domain.AppliedCoupon{
		Coupon: domain.Coupon{
			ID:     7,
			Code:   "DESCONTO10",
			Kind:   domain.CouponPercentage,
			Value:  10,
			Active: true,
		},
		AppliedAt: updated,
	}

	require.NoError(t, repo.Save(ctx, cart))

	got, err := repo.Get(ctx, "session-abc")
	require.NoError(t, err)
	assert.Equal(t, "session-abc", got.ID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, domain.TierDays30, got.Items[0].PriceTier)
	assert.Equal(t, int64(8990), got.Items[0].UnitPrice)
	require.NotNil(t, got.Coupon)
	assert.Equal(t, "DESCONTO10", got.Coupon.Coupon.Code)
	assert.Equal(t, domain.CouponPercentage, got.Coupon.Coupon.Kind)
	assert.False(t, got.Unsaved)

	// The stored document must not carry the in-memory persistence flag.
	raw, err := mr.Get("vitrine:cart:session-abc")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	_, present := doc["unsaved"]
	assert.False(t, present)
}

func TestSave_SetsTTLAndIndex(t *testing.T) {
	repo, mr := setupTestRepository(t)
	ctx := context.Background()

	updated := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Save(ctx, sampleCart("session-ttl", updated)))

	assert.Equal(t, time.Hour, mr.TTL("vitrine:cart:session-ttl"))

	score, err := mr.ZScore("vitrine:carts", "session-ttl")
	require.NoError(t, err)
	assert.Equal(t, float64(updated.UnixMilli()), score)
}

func TestDelete_RemovesDocumentAndIndexEntry(t *testing.T) {
	repo, mr := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart("session-del", time.Now())))
	require.True(t, mr.Exists("vitrine:cart:session-del"))

	require.NoError(t, repo.Delete(ctx, "session-del"))
	assert.False(t, mr.Exists("vitrine:cart:session-del"))
	_, err := mr.ZScore("vitrine:carts", "session-del")
	assert.Error(t, err)
}

func TestDelete_AbsentCart(t *testing.T) {
	repo, _ := setupTestRepository(t)

	assert.NoError(t, repo.Delete(context.Background(), "nonexistent"))
}

func TestList_OrderAndPaging(t *testing.T) {
	repo, _ := setupTestRepository(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"s-old", "s-mid", "s-new"} {
		cart := sampleCart(id, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Save(ctx, cart))
	}

	carts, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, carts, 3)
	assert.Equal(t, "s-new", carts[0].ID)
	assert.Equal(t, "s-old", carts[2].ID)

	carts, total, err = repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, carts, 1)
	assert.Equal(t, "s-mid", carts[0].ID)

	carts, total, err = repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, carts)
}

func TestList_PrunesExpiredIndexEntries(t *testing.T) {
	repo, mr := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleCart("s-live", time.Now())))
	require.NoError(t, repo.Save(ctx, sampleCart("s-gone", time.Now().Add(time.Minute))))

	// Expire one document while leaving its index entry behind.
	mr.Del("vitrine:cart:s-gone")

	carts, total, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, carts, 1)
	assert.Equal(t, "s-live", carts[0].ID)

	_, err = mr.ZScore("vitrine:carts", "s-gone")
	assert.Error(t, err)
}
