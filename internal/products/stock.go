package products

import (
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/types"
)

// StockShortage is the error detail attached to insufficient-stock rejections.
type StockShortage struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Size        string `json:"size,omitempty"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

// CheckAvailability validates qty against the size entry (for sized products) and then
// against total stock. Sized products require a size.
func CheckAvailability(p *models.Product, qty int, size string) error {
	if qty < 1 {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity for %s must be at least 1", p.Name)
	}
	if p.SizeStock.Has() {
		if size == "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "size is required for %s", p.Name).
				WithDetails(map[string]any{"product_id": p.ID.String(), "sizes": p.SizeStock.Labels()})
		}
		available, _ := p.SizeStock.Available(size)
		if qty > available {
			return shortage(p, size, qty, available)
		}
	}
	if qty > p.Stock {
		return shortage(p, "", qty, p.Stock)
	}
	return nil
}

func shortage(p *models.Product, size string, requested, available int) error {
	msg := "insufficient stock for " + p.Name
	if size != "" {
		msg += " (size " + size + ")"
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, msg).WithDetails(StockShortage{
		ProductID:   p.ID.String(),
		ProductName: p.Name,
		Size:        size,
		Requested:   requested,
		Available:   available,
	})
}

// Decrement removes qty units, clamping at zero, and returns how many units could not
// be covered. For sized products the size entry is decremented and the total re-derived;
// an unknown size on a sized product leaves stock untouched and reports a full shortfall.
func Decrement(p *models.Product, qty int, size string) int {
	if qty <= 0 {
		return 0
	}
	if p.SizeStock.Has() {
		available, ok := p.SizeStock.Available(size)
		if !ok {
			return qty
		}
		next := p.SizeStock.Clone()
		short := 0
		if qty > available {
			short = qty - available
			next[size] = 0
		} else {
			next[size] = available - qty
		}
		p.SizeStock = next
		p.SyncStock()
		return short
	}
	if qty > p.Stock {
		short := qty - p.Stock
		p.Stock = 0
		return short
	}
	p.Stock -= qty
	return 0
}

// Restock returns qty units to the product, creating the size entry when missing.
func Restock(p *models.Product, qty int, size string) {
	if qty <= 0 {
		return
	}
	if p.SizeStock.Has() && size != "" {
		next := p.SizeStock.Clone()
		next[size] += qty
		p.SizeStock = next
		p.SyncStock()
		return
	}
	p.Stock += qty
}

// ApplyStockOperation performs an admin set/add/subtract correction. Sized products are
// corrected per size; subtract never drops below zero.
func ApplyStockOperation(p *models.Product, op enums.StockOperation, qty int, size string) error {
	if !op.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid stock operation %q", op)
	}
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}

	if !p.SizeStock.Has() {
		if size != "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "%s is not sold in sizes", p.Name)
		}
		p.Stock = applyOp(p.Stock, op, qty)
		return nil
	}

	if size == "" {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "size is required for %s", p.Name)
	}
	current, ok := p.SizeStock.Available(size)
	if !ok && op == enums.StockOperationSubtract {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "size %s not found", size)
	}
	next := p.SizeStock.Clone()
	next[size] = applyOp(current, op, qty)
	p.SizeStock = next
	p.SyncStock()
	return nil
}

func applyOp(current int, op enums.StockOperation, qty int) int {
	switch op {
	case enums.StockOperationSet:
		return qty
	case enums.StockOperationAdd:
		return current + qty
	default:
		if qty > current {
			return 0
		}
		return current - qty
	}
}

// AvailableFor answers the size-aware stock query.
func AvailableFor(p *models.Product, size string) int {
	if size != "" && p.SizeStock.Has() {
		qty, _ := p.SizeStock.Available(size)
		return qty
	}
	return p.Stock
}

// normalizeSizeStock validates an admin-supplied size map; nil or empty means unsized.
func normalizeSizeStock(in map[string]int) (types.SizeStock, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := types.SizeStock(in).Clone()
	if err := out.Validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}
	return out, nil
}
