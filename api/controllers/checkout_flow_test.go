package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadline/threadline-backend/internal/cart"
	checkoutsvc "github.com/threadline/threadline-backend/internal/checkout"
	"github.com/threadline/threadline-backend/internal/orders"
	productsvc "github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/logger"
	"github.com/threadline/threadline-backend/pkg/types"
)

func newCheckoutDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:controllers_checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	))
	return conn
}

func sizedOrderJSON(productID uuid.UUID, qty int, size string) string {
	body, _ := json.Marshal(map[string]any{
		"items": []map[string]any{{"id": productID.String(), "quantity": qty, "size": size}},
	})
	return strings.TrimSuffix(string(body), "}") + `, "shippingAddress": ` + shippingJSON + `}`
}

func TestOrderPlaceSizedStockOverHTTP(t *testing.T) {
	conn := newCheckoutDB(t)
	svc, err := checkoutsvc.NewService(
		db.NewFromConn(conn),
		productsvc.NewRepository(conn),
		cart.NewRepository(conn),
		orders.NewRepository(conn),
		nil,
		nil,
		nil,
		checkoutsvc.Settings{Checkout: config.CheckoutConfig{Currency: "tnd", DirectShippingFee: 7.5}},
		logger.Nop(),
	)
	require.NoError(t, err)

	product := &models.Product{
		Name:                "Linen Shirt",
		Price:               decimal.NewFromInt(50),
		PromotionPercentage: 20,
		SizeStock:           types.SizeStock{"M": 4, "L": 6},
		IsActive:            true,
	}
	require.NoError(t, conn.Create(product).Error)
	userID := uuid.New()
	require.NoError(t, conn.Create(&models.CartItem{UserID: userID, ProductID: product.ID, Quantity: 3}).Error)

	handler := OrderPlace(svc, testLogger())
	post := func(body string) *httptest.ResponseRecorder {
		req := withCustomer(httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body)), userID)
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}

	rec := post(sizedOrderJSON(product.ID, 5, "M"))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, string(pkgerrors.CodeInsufficientStock), decodeError(t, rec))

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 10, stored.Stock)
	assert.Equal(t, types.SizeStock{"M": 4, "L": 6}, stored.SizeStock)

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	rec = post(sizedOrderJSON(product.ID, 3, "L"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Items, 1)
	assert.Equal(t, 3, envelope.Data.Items[0].Quantity)
	assert.True(t, envelope.Data.Items[0].Price.Equal(decimal.NewFromInt(40)), "price %s", envelope.Data.Items[0].Price)

	require.NoError(t, conn.First(&stored, "id = ?", product.ID).Error)
	assert.Equal(t, 7, stored.Stock)
	assert.Equal(t, types.SizeStock{"M": 4, "L": 3}, stored.SizeStock)

	require.NoError(t, conn.Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Zero(t, count)
}
