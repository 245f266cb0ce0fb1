package enums

import "fmt"

// StockOperation is an admin stock correction verb.
type StockOperation string

const (
	StockOperationSet      StockOperation = "set"
	StockOperationAdd      StockOperation = "add"
	StockOperationSubtract StockOperation = "subtract"
)

var validStockOperations = []StockOperation{
	StockOperationSet,
	StockOperationAdd,
	StockOperationSubtract,
}

// IsValid reports whether the value is a known StockOperation.
func (o StockOperation) IsValid() bool {
	for _, candidate := range validStockOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseStockOperation converts raw input into a StockOperation.
func ParseStockOperation(value string) (StockOperation, error) {
	for _, candidate := range validStockOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock operation %q", value)
}
