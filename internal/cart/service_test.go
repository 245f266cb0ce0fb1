package cart

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
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Product{}, &models.CartItem{}))
	return conn
}

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := newTestDB(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn), products.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, price int64, sizes types.SizeStock) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: decimal.NewFromInt(price), Stock: 5, SizeStock: sizes, IsActive: true}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func TestReplaceLeavesExactlyTheNewSet(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()

	shirt := seedProduct(t, conn, "Shirt", 20, types.SizeStock{"M": 2, "L": 3})
	hat := seedProduct(t, conn, "Cap", 8, nil)
	scarf := seedProduct(t, conn, "Scarf", 12, nil)

	_, err := svc.Replace(ctx, user, []LineInput{
		{ProductID: shirt.ID, Quantity: 1, Size: "M"},
		{ProductID: hat.ID, Quantity: 2},
	})
	require.NoError(t, err)

	cart, err := svc.Replace(ctx, user, []LineInput{
		{ProductID: scarf.ID, Quantity: 3},
		{ProductID: shirt.ID, Quantity: 2, Size: "L"},
	})
	require.NoError(t, err)

	require.Len(t, cart.Items, 2)
	byProduct := map[uuid.UUID]CartItemDTO{}
	for _, item := range cart.Items {
		byProduct[item.ProductID] = item
	}
	assert.NotContains(t, byProduct, hat.ID)
	assert.Equal(t, 3, byProduct[scarf.ID].Quantity)
	assert.Equal(t, "L", *byProduct[shirt.ID].Size)
	assert.Equal(t, 3, byProduct[shirt.ID].Available)
	assert.Equal(t, 5, cart.ItemCount)
	assert.True(t, cart.Subtotal.Equal(decimal.NewFromInt(76)), "subtotal %s", cart.Subtotal)

	var count int64
	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", user).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestReplaceDoesNotTouchOtherUsers(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	hat := seedProduct(t, conn, "Cap", 8, nil)
	alice, bob := uuid.New(), uuid.New()

	_, err := svc.Replace(ctx, alice, []LineInput{{ProductID: hat.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.Replace(ctx, bob, nil)
	require.NoError(t, err)

	cart, err := svc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestReplaceValidation(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	shirt := seedProduct(t, conn, "Shirt", 20, types.SizeStock{"M": 2})

	_, err := svc.Replace(ctx, user, []LineInput{{ProductID: shirt.ID, Quantity: 0, Size: "M"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Replace(ctx, user, []LineInput{{ProductID: shirt.ID, Quantity: 1, Size: "M"}, {ProductID: shirt.ID, Quantity: 1, Size: "M"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Replace(ctx, user, []LineInput{{ProductID: shirt.ID, Quantity: 1, Size: "XXL"}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Replace(ctx, user, []LineInput{{ProductID: uuid.New(), Quantity: 1}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveProductAndClear(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()
	user := uuid.New()
	hat := seedProduct(t, conn, "Cap", 8, nil)
	scarf := seedProduct(t, conn, "Scarf", 12, nil)

	_, err := svc.Replace(ctx, user, []LineInput{{ProductID: hat.ID, Quantity: 1}, {ProductID: scarf.ID, Quantity: 1}})
	require.NoError(t, err)

	cart, err := svc.RemoveProduct(ctx, user, hat.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, scarf.ID, cart.Items[0].ProductID)

	_, err = svc.RemoveProduct(ctx, user, hat.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.Clear(ctx, user))
	cart, err = svc.Get(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
}
