package enums

import "fmt"

// RevenuePeriod selects the window of the admin revenue chart.
type RevenuePeriod string

const (
	RevenuePeriodWeek  RevenuePeriod = "week"
	RevenuePeriodMonth RevenuePeriod = "month"
	RevenuePeriodYear  RevenuePeriod = "year"
)

// ParseRevenuePeriod converts raw input into a RevenuePeriod, defaulting to week.
func ParseRevenuePeriod(value string) (RevenuePeriod, error) {
	switch RevenuePeriod(value) {
	case "":
		return RevenuePeriodWeek, nil
	case RevenuePeriodWeek, RevenuePeriodMonth, RevenuePeriodYear:
		return RevenuePeriod(value), nil
	}
	return "", fmt.Errorf("invalid revenue period %q", value)
}

// ExportFormat selects the admin order export encoding.
type ExportFormat string

const (
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatExcel ExportFormat = "excel"
)

// ParseExportFormat converts raw input into an ExportFormat, defaulting to csv.
func ParseExportFormat(value string) (ExportFormat, error) {
	switch ExportFormat(value) {
	case "":
		return ExportFormatCSV, nil
	case ExportFormatCSV, ExportFormatExcel:
		return ExportFormat(value), nil
	}
	return "", fmt.Errorf("invalid export format %q", value)
}
