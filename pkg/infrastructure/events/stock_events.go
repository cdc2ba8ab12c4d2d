package events

import (
	"fmt"
	"time"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

const (
	TransferRecordedEvent      = "transfer.recorded"
	TransferStatusChangedEvent = "transfer.status_changed"
	TransferDeletedEvent       = "transfer.deleted"

	OrderRecordedEvent      = "order.recorded"
	OrderStatusChangedEvent = "order.status_changed"
	OrderAssignedEvent      = "order.assigned"
)

// MovementEventTypes lists every event that changes a reconciliation input
var MovementEventTypes = []string{
	TransferRecordedEvent,
	TransferStatusChangedEvent,
	TransferDeletedEvent,
	OrderRecordedEvent,
	OrderStatusChangedEvent,
	OrderAssignedEvent,
}

type TransferRecorded struct {
	Transfer entities.TransferEvent `json:"transfer"`
}

type TransferStatusChanged struct {
	TransferID string                  `json:"transfer_id"`
	OldStatus  entities.TransferStatus `json:"old_status"`
	NewStatus  entities.TransferStatus `json:"new_status"`
	ChangedAt  time.Time               `json:"changed_at"`
}

type TransferDeleted struct {
	TransferID string `json:"transfer_id"`
}

type OrderRecorded struct {
	Order entities.OrderEvent `json:"order"`
}

type OrderStatusChanged struct {
	OrderID   string               `json:"order_id"`
	OldStatus entities.OrderStatus `json:"old_status"`
	NewStatus entities.OrderStatus `json:"new_status"`
}

type OrderAssigned struct {
	OrderID   string              `json:"order_id"`
	VehicleID entities.LocationID `json:"vehicle_id"`
}

func TransferStream(transferID string) string {
	return "transfer-" + transferID
}

func OrderStream(orderID string) string {
	return "order-" + orderID
}

func NewTransferRecordedEvent(transfer entities.TransferEvent) Event {
	return NewEvent(TransferRecordedEvent, TransferStream(transfer.ID), TransferRecorded{Transfer: transfer.Clone()})
}

func NewTransferStatusChangedEvent(transferID string, oldStatus, newStatus entities.TransferStatus, at time.Time) Event {
	return NewEventAt(TransferStatusChangedEvent, TransferStream(transferID), TransferStatusChanged{
		TransferID: transferID,
		OldStatus:  oldStatus,
		NewStatus:  newStatus,
		ChangedAt:  at,
	}, at)
}

func NewTransferDeletedEvent(transferID string) Event {
	return NewEvent(TransferDeletedEvent, TransferStream(transferID), TransferDeleted{TransferID: transferID})
}

func NewOrderRecordedEvent(order entities.OrderEvent) Event {
	return NewEvent(OrderRecordedEvent, OrderStream(order.ID), OrderRecorded{Order: order.Clone()})
}

func NewOrderStatusChangedEvent(orderID string, oldStatus, newStatus entities.OrderStatus) Event {
	return NewEvent(OrderStatusChangedEvent, OrderStream(orderID), OrderStatusChanged{
		OrderID:   orderID,
		OldStatus: oldStatus,
		NewStatus: newStatus,
	})
}

func NewOrderAssignedEvent(orderID string, vehicleID entities.LocationID) Event {
	return NewEvent(OrderAssignedEvent, OrderStream(orderID), OrderAssigned{OrderID: orderID, VehicleID: vehicleID})
}

// RecordMovements appends a recorded event for every transfer and order of
// the snapshot, in snapshot order
func RecordMovements(store EventStore, snapshot *entities.Snapshot) error {
	for _, transfer := range snapshot.Transfers {
		if err := store.AppendEvent(TransferStream(transfer.ID), NewTransferRecordedEvent(transfer)); err != nil {
			return fmt.Errorf("failed to record transfer %s: %w", transfer.ID, err)
		}
	}
	for _, order := range snapshot.Orders {
		if err := store.AppendEvent(OrderStream(order.ID), NewOrderRecordedEvent(order)); err != nil {
			return fmt.Errorf("failed to record order %s: %w", order.ID, err)
		}
	}
	return nil
}
