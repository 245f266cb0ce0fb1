package products

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/types"
)

func sizedProduct() *models.Product {
	return &models.Product{
		ID:        uuid.New(),
		Name:      "Linen Shirt",
		Price:     decimal.NewFromInt(40),
		Stock:     10,
		SizeStock: types.SizeStock{"M": 4, "L": 6},
	}
}

func TestCheckAvailabilityRejectsSizeShortage(t *testing.T) {
	p := sizedProduct()
	err := CheckAvailability(p, 5, "M")
	if err == nil {
		t.Fatal("expected shortage error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	detail, ok := typed.Details().(StockShortage)
	if !ok || detail.Size != "M" || detail.Requested != 5 || detail.Available != 4 {
		t.Fatalf("unexpected details %+v", typed.Details())
	}
	if p.Stock != 10 || p.SizeStock["M"] != 4 || p.SizeStock["L"] != 6 {
		t.Fatalf("check must not mutate stock: %+v", p)
	}
}

func TestCheckAvailabilityRules(t *testing.T) {
	p := sizedProduct()
	if err := CheckAvailability(p, 3, "L"); err != nil {
		t.Fatalf("expected L=3 to pass, got %v", err)
	}
	if err := CheckAvailability(p, 1, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected size required validation, got %v", err)
	}
	if err := CheckAvailability(p, 1, "XS"); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected unknown size shortage, got %v", err)
	}
	if err := CheckAvailability(p, 0, "L"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected quantity validation, got %v", err)
	}

	plain := &models.Product{ID: uuid.New(), Name: "Cap", Stock: 2}
	if err := CheckAvailability(plain, 2, ""); err != nil {
		t.Fatalf("expected exact stock to pass, got %v", err)
	}
	if err := CheckAvailability(plain, 3, ""); !pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
		t.Fatalf("expected total shortage, got %v", err)
	}
}

func TestDecrementSizedProductDerivesTotal(t *testing.T) {
	p := sizedProduct()
	if short := Decrement(p, 3, "L"); short != 0 {
		t.Fatalf("expected no shortfall, got %d", short)
	}
	if p.Stock != 7 || p.SizeStock["M"] != 4 || p.SizeStock["L"] != 3 {
		t.Fatalf("expected {7, M:4, L:3}, got %d %v", p.Stock, p.SizeStock)
	}
}

func TestDecrementClampsAtZero(t *testing.T) {
	p := sizedProduct()
	if short := Decrement(p, 9, "M"); short != 5 {
		t.Fatalf("expected shortfall 5, got %d", short)
	}
	if p.SizeStock["M"] != 0 || p.Stock != 6 {
		t.Fatalf("unexpected stock %d %v", p.Stock, p.SizeStock)
	}

	plain := &models.Product{Stock: 2}
	if short := Decrement(plain, 5, ""); short != 3 || plain.Stock != 0 {
		t.Fatalf("expected clamp to zero with shortfall 3, got short=%d stock=%d", short, plain.Stock)
	}

	unknown := sizedProduct()
	if short := Decrement(unknown, 2, "XL"); short != 2 || unknown.Stock != 10 {
		t.Fatalf("unknown size must not touch stock, got short=%d stock=%d", short, unknown.Stock)
	}
}

func TestRestock(t *testing.T) {
	p := sizedProduct()
	Restock(p, 2, "M")
	Restock(p, 1, "S")
	if p.SizeStock["M"] != 6 || p.SizeStock["S"] != 1 || p.Stock != 13 {
		t.Fatalf("unexpected restock result %d %v", p.Stock, p.SizeStock)
	}
	plain := &models.Product{Stock: 1}
	Restock(plain, 4, "")
	if plain.Stock != 5 {
		t.Fatalf("expected 5, got %d", plain.Stock)
	}
}

func TestApplyStockOperation(t *testing.T) {
	plain := &models.Product{Name: "Cap", Stock: 5}
	if err := ApplyStockOperation(plain, enums.StockOperationAdd, 3, ""); err != nil || plain.Stock != 8 {
		t.Fatalf("add: stock=%d err=%v", plain.Stock, err)
	}
	if err := ApplyStockOperation(plain, enums.StockOperationSubtract, 20, ""); err != nil || plain.Stock != 0 {
		t.Fatalf("subtract clamp: stock=%d err=%v", plain.Stock, err)
	}
	if err := ApplyStockOperation(plain, enums.StockOperationSet, 12, ""); err != nil || plain.Stock != 12 {
		t.Fatalf("set: stock=%d err=%v", plain.Stock, err)
	}
	if err := ApplyStockOperation(plain, enums.StockOperationSet, 1, "M"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected size on unsized product to fail, got %v", err)
	}
	if err := ApplyStockOperation(plain, "multiply", 1, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected invalid op, got %v", err)
	}

	sized := sizedProduct()
	if err := ApplyStockOperation(sized, enums.StockOperationSubtract, 10, "L"); err != nil {
		t.Fatalf("subtract sized: %v", err)
	}
	if sized.SizeStock["L"] != 0 || sized.Stock != 4 {
		t.Fatalf("unexpected sized subtract %d %v", sized.Stock, sized.SizeStock)
	}
	if err := ApplyStockOperation(sized, enums.StockOperationSet, 2, "XL"); err != nil || sized.Stock != 6 {
		t.Fatalf("set new size: stock=%d err=%v", sized.Stock, err)
	}
	if err := ApplyStockOperation(sized, enums.StockOperationAdd, 1, ""); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected size required, got %v", err)
	}
	if err := ApplyStockOperation(sized, enums.StockOperationSubtract, 1, "XXL"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected unknown size not found, got %v", err)
	}
}

func TestAvailableFor(t *testing.T) {
	p := sizedProduct()
	if AvailableFor(p, "L") != 6 || AvailableFor(p, "") != 10 || AvailableFor(p, "XS") != 0 {
		t.Fatal("unexpected availability")
	}
}
