package checkout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/internal/products"
	"github.com/threadline/threadline-backend/pkg/db/models"
	pkgerrors "github.com/threadline/threadline-backend/pkg/errors"
	"github.com/threadline/threadline-backend/pkg/pricing"
)

// pricedLine is a validated line with the unit price resolved from the catalog.
type pricedLine struct {
	Product   *models.Product
	Quantity  int
	Size      string
	UnitPrice decimal.Decimal
}

func (l pricedLine) orderItem(orderID uuid.UUID) models.OrderItem {
	item := models.OrderItem{
		OrderID:     orderID,
		ProductID:   l.Product.ID,
		ProductName: l.Product.Name,
		Quantity:    l.Quantity,
		Price:       l.UnitPrice,
	}
	if l.Size != "" {
		size := l.Size
		item.Size = &size
	}
	return item
}

func subtotalOf(lines []pricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(pricing.LineTotal(line.UnitPrice, line.Quantity))
	}
	return total
}

func lineIDs(lines []LineInput) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	return ids
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].id is required", i)
		}
		if line.Quantity < 1 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "items[%d].quantity must be at least 1", i)
		}
	}
	return nil
}

// reserveLocked validates every line against products already locked by the caller and
// decrements the in-memory stock as it goes, so repeated products see earlier lines.
// Nothing is written; the caller persists the touched products.
func reserveLocked(locked map[uuid.UUID]*models.Product, lines []LineInput) ([]pricedLine, error) {
	priced := make([]pricedLine, 0, len(lines))
	for _, line := range lines {
		product, ok := locked[line.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "product %s not found", line.ProductID).
				WithDetails(map[string]any{"product_id": line.ProductID.String()})
		}
		if err := products.CheckAvailability(product, line.Quantity, line.Size); err != nil {
			return nil, err
		}
		if short := products.Decrement(product, line.Quantity, line.Size); short > 0 {
			return nil, fmt.Errorf("decrement after availability check left %d short for %s", short, product.ID)
		}
		priced = append(priced, pricedLine{
			Product:   product,
			Quantity:  line.Quantity,
			Size:      line.Size,
			UnitPrice: product.EffectivePrice(),
		})
	}
	return priced, nil
}

// quoteUnlocked checks availability and prices lines without taking locks.
func quoteUnlocked(found map[uuid.UUID]*models.Product, lines []LineInput) ([]pricedLine, error) {
	remaining := make(map[uuid.UUID]*models.Product, len(found))
	for id, p := range found {
		clone := *p
		clone.SizeStock = p.SizeStock.Clone()
		remaining[id] = &clone
	}
	return reserveLocked(remaining, lines)
}
