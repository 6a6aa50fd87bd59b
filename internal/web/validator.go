package web

import (
	"errors"
	"fmt"
	"time"
)

// maxQueryRange caps how much history one series query may span.
const maxQueryRange = 2 * 365 * 24 * time.Hour

// RequestValidator handles series query validation
type RequestValidator struct {
	validWindows      map[string]bool
	validAggregations map[string]bool
	validQuantities   map[string]bool
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validWindows: map[string]bool{
			"1m": true,
			"5m": true,
			"1h": true,
			"1d": true,
		},
		validAggregations: map[string]bool{
			"MIN": true,
			"MAX": true,
			"AVG": true,
			"SUM": true,
		},
		validQuantities: map[string]bool{
			"voltage": true,
			"current": true,
		},
	}
}

// Validate checks if the query parameters are valid
func (v *RequestValidator) Validate(
	quantity string,
	phase int,
	start, end time.Time,
	window, aggregation string,
) error {
	if start.IsZero() || end.IsZero() {
		return errors.New("missing timestamp")
	}
	if start.After(end) {
		return errors.New("start time must be before end time")
	}
	if end.Sub(start) > maxQueryRange {
		return errors.New("time range exceeds maximum allowed")
	}

	if !v.validQuantities[quantity] {
		return fmt.Errorf("invalid quantity: %s", quantity)
	}
	if phase < 1 || phase > 3 {
		return fmt.Errorf("invalid phase: %d", phase)
	}
	if !v.validWindows[window] {
		return fmt.Errorf("invalid window: %s", window)
	}
	if !v.validAggregations[aggregation] {
		return fmt.Errorf("invalid aggregation: %s", aggregation)
	}

	return nil
}
