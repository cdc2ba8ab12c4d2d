package events

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

type recordingHandler struct {
	types []string
	seen  []Event
	err   error
}

func (h *recordingHandler) CanHandle(eventType string) bool {
	for _, t := range h.types {
		if t == eventType {
			return true
		}
	}
	return false
}

func (h *recordingHandler) Handle(event Event) error {
	h.seen = append(h.seen, event)
	return h.err
}

func TestInMemoryEventStore_AppendAndRead(t *testing.T) {
	store := NewInMemoryEventStore(nil)

	stream := TransferStream("TR-1")
	if err := store.AppendEvent(stream, NewTransferDeletedEvent("TR-1")); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}
	if err := store.AppendEvent(stream, NewTransferDeletedEvent("TR-1")); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}
	if err := store.AppendEvent(OrderStream("ORD-1"), NewOrderAssignedEvent("ORD-1", "V1")); err != nil {
		t.Fatalf("AppendEvent failed: %v", err)
	}

	streamEvents, _ := store.ReadEvents(stream, 0)
	if len(streamEvents) != 2 {
		t.Fatalf("Expected 2 stream events, got %d", len(streamEvents))
	}
	if streamEvents[0].Version() != 1 || streamEvents[1].Version() != 2 {
		t.Errorf("Expected versions 1 and 2, got %d and %d", streamEvents[0].Version(), streamEvents[1].Version())
	}

	fromTwo, _ := store.ReadEvents(stream, 2)
	if len(fromTwo) != 1 {
		t.Errorf("Expected 1 event from version 2, got %d", len(fromTwo))
	}
	if beyond, _ := store.ReadEvents(stream, 5); len(beyond) != 0 {
		t.Errorf("Expected no events beyond the stream end, got %d", len(beyond))
	}
	if missing, _ := store.ReadEvents("transfer-unknown", 1); len(missing) != 0 {
		t.Errorf("Expected no events for an unknown stream, got %d", len(missing))
	}

	all, _ := store.ReadAllEvents(1)
	if len(all) != 2 || all[1].Type() != OrderAssignedEvent {
		t.Errorf("Expected 2 events from position 1 ending with order.assigned, got %v", all)
	}
	if store.Position() != 3 {
		t.Errorf("Expected position 3, got %d", store.Position())
	}
}

func TestInMemoryEventStore_NotifiesSynchronously(t *testing.T) {
	store := NewInMemoryEventStore(nil)
	handler := &recordingHandler{types: []string{TransferStatusChangedEvent}}
	if err := store.Subscribe([]string{TransferStatusChangedEvent}, handler); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	changedAt := time.Date(2025, 5, 21, 9, 0, 0, 0, time.UTC)
	store.AppendEvent(TransferStream("TR-1"), NewTransferStatusChangedEvent("TR-1", entities.TransferPending, entities.TransferCompleted, changedAt))
	store.AppendEvent(TransferStream("TR-1"), NewTransferDeletedEvent("TR-1"))

	if len(handler.seen) != 1 {
		t.Fatalf("Expected handler to see 1 event before AppendEvent returned, got %d", len(handler.seen))
	}

	data, err := Payload[TransferStatusChanged](handler.seen[0])
	if err != nil {
		t.Fatalf("Payload failed: %v", err)
	}
	if data.NewStatus != entities.TransferCompleted || !data.ChangedAt.Equal(changedAt) {
		t.Errorf("Unexpected payload %+v", data)
	}

	store.Unsubscribe(handler)
	store.AppendEvent(TransferStream("TR-1"), NewTransferStatusChangedEvent("TR-1", entities.TransferCompleted, entities.TransferCancelled, changedAt))
	if len(handler.seen) != 1 {
		t.Errorf("Expected no delivery after unsubscribe, got %d events", len(handler.seen))
	}
}

func TestInMemoryEventStore_LogsHandlerErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	store := NewInMemoryEventStore(logger)
	failing := &recordingHandler{types: []string{OrderAssignedEvent}, err: errors.New("order ORD-9 not found")}
	healthy := &recordingHandler{types: []string{OrderAssignedEvent}}
	store.Subscribe([]string{OrderAssignedEvent}, failing)
	store.Subscribe([]string{OrderAssignedEvent}, healthy)

	if err := store.AppendEvent(OrderStream("ORD-9"), NewOrderAssignedEvent("ORD-9", "V1")); err != nil {
		t.Fatalf("Expected handler errors not to fail the append, got %v", err)
	}

	if len(healthy.seen) != 1 {
		t.Error("Expected delivery to continue after a failing handler")
	}
	output := buf.String()
	if !strings.Contains(output, "order ORD-9 not found") || !strings.Contains(output, `"eventType":"order.assigned"`) {
		t.Errorf("Expected logged handler error, got %s", output)
	}
}

func TestPayload(t *testing.T) {
	byValue := NewEvent(OrderAssignedEvent, "order-ORD-1", OrderAssigned{OrderID: "ORD-1", VehicleID: "V2"})
	if data, err := Payload[OrderAssigned](byValue); err != nil || data.VehicleID != "V2" {
		t.Errorf("Expected value payload, got %+v (%v)", data, err)
	}

	byPointer := NewEvent(OrderAssignedEvent, "order-ORD-1", &OrderAssigned{OrderID: "ORD-1", VehicleID: "V1"})
	if data, err := Payload[OrderAssigned](byPointer); err != nil || data.VehicleID != "V1" {
		t.Errorf("Expected pointer payload, got %+v (%v)", data, err)
	}

	wrong := NewEvent(OrderAssignedEvent, "order-ORD-1", "V1")
	if _, err := Payload[OrderAssigned](wrong); err == nil {
		t.Error("Expected error for mismatched payload")
	}
}
