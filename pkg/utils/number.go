package utils

import (
	"context"
	"fmt"
)

// MaxNumberAttempts bounds how many candidates UniqueNumber draws.
const MaxNumberAttempts = 10

// UniqueNumber draws candidates until exists reports one as free. It gives up
// with exhausted after MaxNumberAttempts collisions.
func UniqueNumber(
	ctx context.Context,
	draw func() (string, error),
	exists func(ctx context.Context, number string) (bool, error),
	exhausted error,
) (string, error) {
	for attempt := 0; attempt < MaxNumberAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := draw()
		if err != nil {
			return "", fmt.Errorf("draw number: %w", err)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", exhausted
}
