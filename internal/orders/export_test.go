package orders

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/threadline/threadline-backend/pkg/types"
	"github.com/xuri/excelize/v2"
)

func exportFixture() []models.Order {
	return []models.Order{{
		OrderNumber:    "ORD-AB12CD34",
		Status:         enums.OrderStatusShipped,
		PaymentStatus:  enums.PaymentStatusPaid,
		PaymentMethod:  enums.PaymentMethodStripe,
		Subtotal:       decimal.RequireFromString("84.00"),
		TaxAmount:      decimal.RequireFromString("15.96"),
		ShippingAmount: decimal.Zero,
		DiscountAmount: decimal.Zero,
		TotalAmount:    decimal.RequireFromString("99.96"),
		ShippingAddress: types.ShippingAddress{
			FirstName: "Sami",
			LastName:  "Trabelsi",
			Email:     "sami@example.com",
		},
		Items:     []models.OrderItem{{Quantity: 2}, {Quantity: 1}},
		CreatedAt: time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC),
	}}
}

func TestRenderExportCSV(t *testing.T) {
	file, err := renderExport(exportFixture(), enums.ExportFormatCSV, time.Date(2026, 3, 5, 8, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "orders-20260305-083000.csv", file.Filename)

	records, err := csv.NewReader(bytes.NewReader(file.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "ORD-AB12CD34", records[1][0])
	assert.Equal(t, "Sami Trabelsi", records[1][2])
	assert.Equal(t, "3", records[1][7])
	assert.Equal(t, "99.96", records[1][12])
}

func TestRenderExportExcel(t *testing.T) {
	file, err := renderExport(exportFixture(), enums.ExportFormatExcel, time.Now())
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(file.Body))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Order Number", rows[0][0])
	assert.Equal(t, "sami@example.com", rows[1][3])
}

func TestRenderExportRejectsUnknownFormat(t *testing.T) {
	_, err := renderExport(nil, "pdf", time.Now())
	assert.Error(t, err)
}
