package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:wishlist_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.WishlistItem{}))
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), products.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func seed(t *testing.T, conn *gorm.DB, name string) uuid.UUID {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.NewFromInt(10), Stock: 1, IsActive: true}
	require.NoError(t, conn.Create(p).Error)
	return p.ID
}

func TestWishlistReplaceAll(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	a, b, c := seed(t, conn, "A"), seed(t, conn, "B"), seed(t, conn, "C")

	_, err := svc.Replace(ctx, user, []uuid.UUID{a, b})
	require.NoError(t, err)
	list, err := svc.Replace(ctx, user, []uuid.UUID{c, c})
	require.NoError(t, err)

	require.Equal(t, 1, list.Count)
	assert.Equal(t, c, list.Items[0].Product.ID)

	_, err = svc.Replace(ctx, user, []uuid.UUID{uuid.New()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	list, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count, "failed replace must keep the previous set")
}

func TestWishlistRemoveAndClear(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	a, b := seed(t, conn, "A"), seed(t, conn, "B")

	_, err := svc.Replace(ctx, user, []uuid.UUID{a, b})
	require.NoError(t, err)

	list, err := svc.RemoveProduct(ctx, user, a)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)

	_, err = svc.RemoveProduct(ctx, user, a)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Clear(ctx, user))
	list, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, list.Count)
}
