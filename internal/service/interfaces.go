// Package service defines shared option types and cross-package contracts.
package service

import "time"

// RetryOptions configures retry behavior for operations against external
// services.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
