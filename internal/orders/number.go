package orders

import (
	"context"
	"fmt"

	"github.com/threadline/threadline-backend/pkg/security"
)

const (
	orderNumberPrefix   = "ORD-"
	orderNumberLength   = 8
	orderNumberAttempts = 5
)

// NextOrderNumber draws ORD-XXXXXXXX references until one is unused.
func NextOrderNumber(ctx context.Context, repo Repository) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		suffix, err := security.RandomString(security.UpperAlphanumeric, orderNumberLength)
		if err != nil {
			return "", err
		}
		candidate := orderNumberPrefix + suffix
		exists, err := repo.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique order number after %d attempts", orderNumberAttempts)
}
