package notifier

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PayloadKind discriminates the payload union.
type PayloadKind string

const (
	// PayloadNone marks a notification without structured payload.
	PayloadNone PayloadKind = ""
	// PayloadAlertTriggered carries the details of a fired price alert.
	PayloadAlertTriggered PayloadKind = "alert_triggered"
	// PayloadOpaque carries producer-defined data the engine does not
	// interpret; the escape hatch for forward compatibility.
	PayloadOpaque PayloadKind = "opaque"
)

// AlertTriggeredPayload is the structured payload for fired alerts.
type AlertTriggeredPayload struct {
	AlertID        string          `json:"alert_id"`
	InstrumentID   string          `json:"instrument_id"`
	Condition      string          `json:"condition"`
	Target         decimal.Decimal `json:"target"`
	ObservedPrice  decimal.Decimal `json:"observed_price"`
	ObservedVolume decimal.Decimal `json:"observed_volume"`
	TriggeredAt    time.Time       `json:"triggered_at"`
}

// Payload is a tagged union: exactly one of the value fields is set,
// selected by Kind. The zero value means "no payload".
type Payload struct {
	Kind           PayloadKind            `json:"kind"`
	AlertTriggered *AlertTriggeredPayload `json:"alert_triggered,omitempty"`
	Opaque         json.RawMessage        `json:"opaque,omitempty"`
}

// NewAlertTriggeredPayload wraps a fired-alert payload.
func NewAlertTriggeredPayload(p AlertTriggeredPayload) Payload {
	return Payload{Kind: PayloadAlertTriggered, AlertTriggered: &p}
}

// NewOpaquePayload wraps raw JSON the engine passes through untouched.
func NewOpaquePayload(raw json.RawMessage) Payload {
	return Payload{Kind: PayloadOpaque, Opaque: raw}
}

// Validate checks that the set field matches the declared kind.
func (p Payload) Validate() error {
	switch p.Kind {
	case PayloadNone:
		if p.AlertTriggered != nil || p.Opaque != nil {
			return fmt.Errorf("%w: payload data without kind", ErrValidation)
		}
	case PayloadAlertTriggered:
		if p.AlertTriggered == nil {
			return fmt.Errorf("%w: alert_triggered payload missing data", ErrValidation)
		}
	case PayloadOpaque:
		if len(p.Opaque) == 0 {
			return fmt.Errorf("%w: opaque payload missing data", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown payload kind %q", ErrValidation, p.Kind)
	}
	return nil
}
