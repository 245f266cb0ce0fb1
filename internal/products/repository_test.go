package products

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/pagination"
	"github.com/threadline/threadline-backend/pkg/types"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:products_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Category{}, &models.Product{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, mutate func(*models.Product)) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:     "Tee " + uuid.NewString()[:8],
		Price:    decimal.NewFromInt(20),
		Stock:    5,
		IsActive: true,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func TestRepositoryLockForUpdateIssuesSelectForUpdate(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	conn, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	a, b := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id", "name", "price", "stock"}).
		AddRow(a.String(), "A", "10.00", 3).
		AddRow(b.String(), "B", "12.50", 1)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "products" WHERE id IN ($1,$2) ORDER BY id FOR UPDATE`)).
		WillReturnRows(rows)

	locked, err := NewRepository(conn).LockForUpdate(context.Background(), []uuid.UUID{b, a, b})
	require.NoError(t, err)
	assert.Len(t, locked, 2)
	assert.Equal(t, 3, locked[a].Stock)
	assert.True(t, locked[b].Price.Equal(decimal.RequireFromString("12.5")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSortedUniqueOrdersIDs(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	got := sortedUnique([]uuid.UUID{b, a, b})
	assert.Equal(t, []uuid.UUID{a, b}, got)
}

func TestRepositorySaveStockPersistsOnlyStockColumns(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	p := seedProduct(t, db, func(p *models.Product) {
		p.SizeStock = types.SizeStock{"M": 4, "L": 6}
	})
	require.Equal(t, 10, p.Stock)

	Decrement(p, 3, "L")
	p.Name = "not persisted"
	require.NoError(t, repo.SaveStock(ctx, p))

	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.Stock)
	assert.Equal(t, 3, reloaded.SizeStock["L"])
	assert.Equal(t, 4, reloaded.SizeStock["M"])
	assert.NotEqual(t, "not persisted", reloaded.Name)
}

func TestRepositoryListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := &models.Category{Name: "Dresses", Slug: "dresses", IsActive: true}
	require.NoError(t, db.Create(category).Error)
	dresses := &category.ID
	seedProduct(t, db, func(p *models.Product) {
		p.Name = "Summer Dress"
		p.CategoryID = dresses
		p.SizeStock = types.SizeStock{"M": 0, "L": 2}
	})
	seedProduct(t, db, func(p *models.Product) {
		p.Name = "Winter Dress"
		p.CategoryID = dresses
		p.SizeStock = types.SizeStock{"M": 3}
	})
	seedProduct(t, db, func(p *models.Product) {
		p.Name = "Hidden Dress"
		p.CategoryID = dresses
		p.IsActive = false
	})
	seedProduct(t, db, func(p *models.Product) { p.Name = "Wool Scarf" })

	rows, total, err := repo.List(ctx, ListFilter{Category: "dresses"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, rows, 2)

	rows, total, err = repo.List(ctx, ListFilter{Search: "DRESS", Size: "M"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "Winter Dress", rows[0].Name)

	rows, total, err = repo.List(ctx, ListFilter{Page: pagination.Page{Page: 2, PerPage: 2}})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, rows, 1)
}

func TestRepositoryDeleteMissingReturnsNotFound(t *testing.T) {
	db := newTestDB(t)
	err := NewRepository(db).Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
