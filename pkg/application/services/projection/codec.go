package projection

import (
	"encoding/json"
	"errors"

	"github.com/fieldops/stockrecon/pkg/application/services/reconciliation"
	"github.com/fieldops/stockrecon/pkg/domain/entities"
)

type viewState struct {
	Snapshot  *entities.Snapshot     `json:"snapshot"`
	Result    *reconciliation.Result `json:"result"`
	Threshold entities.Quantity      `json:"low_stock_threshold"`
}

// MarshalJSON encodes everything needed to rebuild the view
func (v *View) MarshalJSON() ([]byte, error) {
	return json.Marshal(viewState{Snapshot: v.snapshot, Result: v.result, Threshold: v.threshold})
}

// UnmarshalJSON rebuilds a view encoded by MarshalJSON
func (v *View) UnmarshalJSON(data []byte) error {
	var state viewState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Snapshot == nil || state.Result == nil {
		return errors.New("encoded view is missing its snapshot or result")
	}
	*v = *NewView(state.Snapshot, state.Result, state.Threshold)
	return nil
}
