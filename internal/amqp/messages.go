package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Invalidation reasons carried by InvalidationMessage.
const (
	ReasonDataReloaded         = "data_reloaded"
	ReasonTargetVersionChanged = "target_version_changed"
)

var ErrUnknownReason = errors.New("unknown invalidation reason")

// InvalidationMessage tells consumers that cached KPI results are stale.
// VersionID is set for target version changes only.
type InvalidationMessage struct {
	Reason    string    `json:"reason"`
	VersionID string    `json:"version_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewInvalidationMessage creates a message stamped with the current time
func NewInvalidationMessage(reason, versionID string) *InvalidationMessage {
	return &InvalidationMessage{
		Reason:    reason,
		VersionID: versionID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *InvalidationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate checks that the reason is one consumers know how to handle.
func (m *InvalidationMessage) Validate() error {
	switch m.Reason {
	case ReasonDataReloaded, ReasonTargetVersionChanged:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownReason, m.Reason)
	}
}

// InvalidationMessageFromJSON decodes and validates a message
func InvalidationMessageFromJSON(data []byte) (*InvalidationMessage, error) {
	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
