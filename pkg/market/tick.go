package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tick is a single market data point for one instrument.
type Tick struct {
	InstrumentID string          `json:"instrument_id"`
	Price        decimal.Decimal `json:"price"`
	Volume       decimal.Decimal `json:"volume"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Validate rejects ticks that cannot be evaluated against alert
// conditions. Volume may be zero; price may not.
func (t Tick) Validate() error {
	if t.InstrumentID == "" {
		return fmt.Errorf("%w: missing instrument id", ErrInvalidTick)
	}
	if t.Price.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price must be positive", ErrInvalidTick)
	}
	if t.Volume.IsNegative() {
		return fmt.Errorf("%w: volume must not be negative", ErrInvalidTick)
	}
	return nil
}
