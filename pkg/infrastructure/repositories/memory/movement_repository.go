package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/repositories"
	"github.com/fieldops/stockrecon/pkg/infrastructure/events"
)

// MovementRepository holds the current state of every transfer and order.
// Subscribed to an event store it folds the movement event log into that state.
type MovementRepository struct {
	mu            sync.RWMutex
	transfers     []entities.TransferEvent
	transferIndex map[string]int
	orders        []entities.OrderEvent
	orderIndex    map[string]int
	version       uint64
}

// NewMovementRepository creates a new in-memory movement repository
func NewMovementRepository(expectedTransfers, expectedOrders int) *MovementRepository {
	return &MovementRepository{
		transfers:     make([]entities.TransferEvent, 0, expectedTransfers),
		transferIndex: make(map[string]int, expectedTransfers),
		orders:        make([]entities.OrderEvent, 0, expectedOrders),
		orderIndex:    make(map[string]int, expectedOrders),
	}
}

// Verify interface compliance
var (
	_ repositories.TransferRepository = (*MovementRepository)(nil)
	_ repositories.OrderRepository    = (*MovementRepository)(nil)
	_ events.EventHandler             = (*MovementRepository)(nil)
)

// AddTransfer stores a copy of the transfer, replacing any transfer with the same id
func (r *MovementRepository) AddTransfer(transfer entities.TransferEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	transfer = transfer.Clone()
	if index, exists := r.transferIndex[transfer.ID]; exists {
		r.transfers[index] = transfer
	} else {
		r.transferIndex[transfer.ID] = len(r.transfers)
		r.transfers = append(r.transfers, transfer)
	}
	r.version++
}

// AddOrder stores a copy of the order, replacing any order with the same id
func (r *MovementRepository) AddOrder(order entities.OrderEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order = order.Clone()
	if index, exists := r.orderIndex[order.ID]; exists {
		r.orders[index] = order
	} else {
		r.orderIndex[order.ID] = len(r.orders)
		r.orders = append(r.orders, order)
	}
	r.version++
}

// RemoveTransfer deletes a transfer, keeping the order of the rest
func (r *MovementRepository) RemoveTransfer(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.transferIndex[id]
	if !exists {
		return fmt.Errorf("%w: %s", repositories.ErrTransferNotFound, id)
	}

	r.transfers = append(r.transfers[:index], r.transfers[index+1:]...)
	delete(r.transferIndex, id)
	for i := index; i < len(r.transfers); i++ {
		r.transferIndex[r.transfers[i].ID] = i
	}
	r.version++
	return nil
}

// GetTransfer returns a copy of the transfer with the given id
func (r *MovementRepository) GetTransfer(id string) (*entities.TransferEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.transferIndex[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrTransferNotFound, id)
	}
	transfer := r.transfers[index].Clone()
	return &transfer, nil
}

// GetOrder returns a copy of the order with the given id
func (r *MovementRepository) GetOrder(id string) (*entities.OrderEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index, exists := r.orderIndex[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrOrderNotFound, id)
	}
	order := r.orders[index].Clone()
	return &order, nil
}

func (r *MovementRepository) ListTransfers(ctx context.Context) ([]entities.TransferEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transfers := make([]entities.TransferEvent, len(r.transfers))
	for i := range r.transfers {
		transfers[i] = r.transfers[i].Clone()
	}
	return transfers, nil
}

func (r *MovementRepository) ListOrders(ctx context.Context) ([]entities.OrderEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orders := make([]entities.OrderEvent, len(r.orders))
	for i := range r.orders {
		orders[i] = r.orders[i].Clone()
	}
	return orders, nil
}

// Version increases on every write
func (r *MovementRepository) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// CanHandle reports whether the event type changes a transfer or an order
func (r *MovementRepository) CanHandle(eventType string) bool {
	for _, t := range events.MovementEventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// Handle folds one movement event into the current state
func (r *MovementRepository) Handle(event events.Event) error {
	switch event.Type() {
	case events.TransferRecordedEvent:
		data, err := events.Payload[events.TransferRecorded](event)
		if err != nil {
			return err
		}
		r.AddTransfer(data.Transfer)

	case events.TransferStatusChangedEvent:
		data, err := events.Payload[events.TransferStatusChanged](event)
		if err != nil {
			return err
		}
		return r.updateTransfer(data.TransferID, func(t *entities.TransferEvent) {
			t.Status = data.NewStatus
			if data.NewStatus == entities.TransferCompleted {
				confirmed := data.ChangedAt
				t.ConfirmedAt = &confirmed
			}
		})

	case events.TransferDeletedEvent:
		data, err := events.Payload[events.TransferDeleted](event)
		if err != nil {
			return err
		}
		return r.RemoveTransfer(data.TransferID)

	case events.OrderRecordedEvent:
		data, err := events.Payload[events.OrderRecorded](event)
		if err != nil {
			return err
		}
		r.AddOrder(data.Order)

	case events.OrderStatusChangedEvent:
		data, err := events.Payload[events.OrderStatusChanged](event)
		if err != nil {
			return err
		}
		return r.updateOrder(data.OrderID, func(o *entities.OrderEvent) { o.Status = data.NewStatus })

	case events.OrderAssignedEvent:
		data, err := events.Payload[events.OrderAssigned](event)
		if err != nil {
			return err
		}
		return r.updateOrder(data.OrderID, func(o *entities.OrderEvent) { o.VehicleID = data.VehicleID })

	default:
		return fmt.Errorf("movement repository cannot handle event type %s", event.Type())
	}
	return nil
}

func (r *MovementRepository) updateTransfer(id string, fn func(t *entities.TransferEvent)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.transferIndex[id]
	if !exists {
		return fmt.Errorf("%w: %s", repositories.ErrTransferNotFound, id)
	}
	fn(&r.transfers[index])
	r.version++
	return nil
}

func (r *MovementRepository) updateOrder(id string, fn func(o *entities.OrderEvent)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	index, exists := r.orderIndex[id]
	if !exists {
		return fmt.Errorf("%w: %s", repositories.ErrOrderNotFound, id)
	}
	fn(&r.orders[index])
	r.version++
	return nil
}
