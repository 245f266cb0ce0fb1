package orders

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/threadline/threadline-backend/pkg/db/models"
	"github.com/threadline/threadline-backend/pkg/enums"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Orders"

var exportHeader = []string{
	"Order Number",
	"Date",
	"Customer",
	"Email",
	"Status",
	"Payment Status",
	"Payment Method",
	"Items",
	"Subtotal",
	"Tax",
	"Shipping",
	"Discount",
	"Total",
	"Tracking Number",
}

// ExportFile is a rendered order export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

func renderExport(rows []models.Order, format enums.ExportFormat, now time.Time) (*ExportFile, error) {
	stamp := now.UTC().Format("20060102-150405")
	switch format {
	case enums.ExportFormatCSV:
		body, err := renderCSV(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "orders-" + stamp + ".csv",
			ContentType: "text/csv; charset=utf-8",
			Body:        body,
		}, nil
	case enums.ExportFormatExcel:
		body, err := renderExcel(rows)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    "orders-" + stamp + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        body,
		}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

func exportRecord(order *models.Order) []string {
	items := 0
	for _, item := range order.Items {
		items += item.Quantity
	}
	tracking := ""
	if order.TrackingNumber != nil {
		tracking = *order.TrackingNumber
	}
	return []string{
		order.OrderNumber,
		order.CreatedAt.UTC().Format(time.RFC3339),
		order.ShippingAddress.FullName(),
		order.ShippingAddress.Email,
		order.Status.String(),
		order.PaymentStatus.String(),
		order.PaymentMethod.String(),
		strconv.Itoa(items),
		order.Subtotal.StringFixed(2),
		order.TaxAmount.StringFixed(2),
		order.ShippingAmount.StringFixed(2),
		order.DiscountAmount.StringFixed(2),
		order.TotalAmount.StringFixed(2),
		tracking,
	}
}

func renderCSV(rows []models.Order) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for i := range rows {
		if err := w.Write(exportRecord(&rows[i])); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderExcel(rows []models.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := writeExcelRow(f, 1, exportHeader); err != nil {
		return nil, err
	}
	for i := range rows {
		if err := writeExcelRow(f, i+2, exportRecord(&rows[i])); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeExcelRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	record := make([]any, len(values))
	for i, v := range values {
		record[i] = v
	}
	return f.SetSheetRow(exportSheet, cell, &record)
}
