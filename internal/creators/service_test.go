package creators

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/internal/users"
	"github.com/threadline/threadline-backend/pkg/auth"
	"github.com/threadline/threadline-backend/pkg/config"
	"github.com/threadline/threadline-backend/pkg/db"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	conn *gorm.DB
	svc  Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:creators_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	))

	accounts, err := users.NewService(users.NewRepository(conn), db.NewFromConn(conn), config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	require.NoError(t, err)
	svc, err := NewService(NewRepository(conn), products.NewRepository(conn), accounts)
	require.NoError(t, err)
	return &fixture{conn: conn, svc: svc}
}

func (f *fixture) user(t *testing.T, name string, role enums.UserRole) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: uuid.NewString()[:8] + "@example.com", PasswordHash: "x", Role: role, IsActive: true}
	require.NoError(t, f.conn.Create(u).Error)
	return u
}

func (f *fixture) product(t *testing.T, owner uuid.UUID, category *uuid.UUID, active bool) {
	t.Helper()
	require.NoError(t, f.conn.Create(&models.Product{
		Name:       "Piece " + uuid.NewString()[:6],
		Price:      decimal.NewFromInt(30),
		Stock:      2,
		IsActive:   active,
		CreatedBy:  &owner,
		CategoryID: category,
	}).Error)
}

func TestPublicListOnlyShowsCreatorsWithLiveProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	busy := f.user(t, "Nour", enums.UserRoleAdmin)
	quiet := f.user(t, "Hedi", enums.UserRoleAdmin)
	drafts := f.user(t, "Rim", enums.UserRoleAdmin)
	f.product(t, busy.ID, nil, true)
	f.product(t, busy.ID, nil, true)
	f.product(t, quiet.ID, nil, true)
	f.product(t, drafts.ID, nil, false)

	listed, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, busy.ID, listed[0].ID)
	assert.EqualValues(t, 2, listed[0].ProductsCount)
	assert.Equal(t, quiet.ID, listed[1].ID)
}

func TestGetPagesCreatorProductsByCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	creator := f.user(t, "Nour", enums.UserRoleAdmin)
	category := &models.Category{Name: "Scarves", Slug: "scarves", IsActive: true}
	require.NoError(t, f.conn.Create(category).Error)
	for i := 0; i < 14; i++ {
		f.product(t, creator.ID, nil, true)
	}
	f.product(t, creator.ID, &category.ID, true)
	f.product(t, creator.ID, nil, false)

	detail, err := f.svc.Get(ctx, creator.ID, ProductsInput{})
	require.NoError(t, err)
	assert.EqualValues(t, 15, detail.Creator.ProductsCount)
	assert.Len(t, detail.Products.Items, DefaultPerPage)
	assert.Equal(t, 2, detail.Products.Meta.LastPage)

	detail, err = f.svc.Get(ctx, creator.ID, ProductsInput{Category: "scarves", Page: pagination.Page{Page: 1}})
	require.NoError(t, err)
	require.Len(t, detail.Products.Items, 1)
	assert.Equal(t, category.ID, *detail.Products.Items[0].CategoryID)

	customer := f.user(t, "Buyer", enums.UserRoleCustomer)
	_, err = f.svc.Get(ctx, customer.ID, ProductsInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestAdminRosterCreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	super := f.user(t, "Root", enums.UserRoleSuperAdmin)
	actor := auth.Actor{UserID: super.ID, Role: super.Role}
	customer := f.user(t, "Buyer", enums.UserRoleCustomer)

	created, err := f.svc.Create(ctx, actor, CreateInput{Name: "Yasmine", Email: "yasmine@example.com", Password: "longenough"})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleAdmin, created.Role)

	roster, err := f.svc.AdminList(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "Root", roster[0].Name)
	assert.Equal(t, "yasmine@example.com", roster[1].Email)

	name := "Yasmine B."
	updated, err := f.svc.Update(ctx, actor, created.ID, users.UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Yasmine B.", updated.Name)

	_, err = f.svc.Update(ctx, actor, customer.ID, users.UpdateInput{Name: &name})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound), "got %v", err)

	f.product(t, created.ID, nil, true)
	err = f.svc.Delete(ctx, actor, created.ID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "got %v", err)

	require.NoError(t, f.conn.Where("created_by = ?", created.ID).Delete(&models.Product{}).Error)
	require.NoError(t, f.svc.Delete(ctx, actor, created.ID))
	roster, err = f.svc.AdminList(ctx)
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}
