package entities

import (
	"fmt"
	"time"
)

// TransferStatus represents the lifecycle state of a stock transfer
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// Valid reports whether s is a known transfer status
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferCompleted, TransferCancelled:
		return true
	default:
		return false
	}
}

// String method for TransferStatus enum
func (s TransferStatus) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return string(s)
}

// Terminal reports whether no further transition is expected from s
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferCancelled
}

// ParseTransferStatus converts a textual status into a TransferStatus
func ParseTransferStatus(s string) (TransferStatus, error) {
	status := TransferStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown transfer status: %q", s)
	}
	return status, nil
}

// TransferLine is a single product quantity moved by a transfer
type TransferLine struct {
	ProductID ProductID `validate:"required"`
	Quantity  Quantity  `validate:"gt=0"`
}

// TransferEvent represents the current state of a recorded location-to-location movement
type TransferEvent struct {
	ID          string         `validate:"required"`
	SourceID    LocationID     `validate:"required"`
	SourceKind  LocationKind   `validate:"required,oneof=warehouse vehicle"`
	TargetID    LocationID     `validate:"required"`
	TargetKind  LocationKind   `validate:"required,oneof=warehouse vehicle"`
	Lines       []TransferLine `validate:"required,min=1,dive"`
	Date        time.Time
	ConfirmedAt *time.Time
	Status      TransferStatus `validate:"required,oneof=pending completed cancelled"`
}

// NewTransferEvent creates a validated TransferEvent
func NewTransferEvent(
	id string,
	sourceID LocationID,
	sourceKind LocationKind,
	targetID LocationID,
	targetKind LocationKind,
	lines []TransferLine,
	date time.Time,
	status TransferStatus,
) (*TransferEvent, error) {
	if id == "" {
		return nil, fmt.Errorf("transfer id cannot be empty")
	}
	if sourceID == "" || targetID == "" {
		return nil, fmt.Errorf("transfer %s: source and target cannot be empty", id)
	}
	if !sourceKind.Valid() || !targetKind.Valid() {
		return nil, fmt.Errorf("transfer %s: unknown location kind", id)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("transfer %s: at least one line is required", id)
	}
	for i, line := range lines {
		if line.ProductID == "" {
			return nil, fmt.Errorf("transfer %s line %d: product id cannot be empty", id, i)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("transfer %s line %d: quantity must be positive, got %d", id, i, line.Quantity)
		}
	}
	if !status.Valid() {
		return nil, fmt.Errorf("transfer %s: unknown status %q", id, string(status))
	}

	return &TransferEvent{
		ID:         id,
		SourceID:   sourceID,
		SourceKind: sourceKind,
		TargetID:   targetID,
		TargetKind: targetKind,
		Lines:      append([]TransferLine(nil), lines...),
		Date:       date,
		Status:     status,
	}, nil
}

// LeavesSource reports whether the transfer's lines are deducted from the source.
// Goods are considered gone from the source as soon as the transfer is recorded.
func (t *TransferEvent) LeavesSource() bool {
	return t.Status == TransferPending || t.Status == TransferCompleted
}

// ReachesTarget reports whether the transfer's lines are credited to the target
func (t *TransferEvent) ReachesTarget() bool {
	return t.Status == TransferCompleted
}

// Clone returns a deep copy of the transfer
func (t TransferEvent) Clone() TransferEvent {
	t.Lines = cloneSlice(t.Lines)
	if t.ConfirmedAt != nil {
		confirmed := *t.ConfirmedAt
		t.ConfirmedAt = &confirmed
	}
	return t
}
