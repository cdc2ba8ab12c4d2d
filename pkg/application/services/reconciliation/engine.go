package reconciliation

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/fieldops/stockrecon/pkg/domain/entities"
	"github.com/fieldops/stockrecon/pkg/domain/services"
)

// Result is the outcome of one replay. It shares no state with the engine or
// the snapshot it was derived from.
type Result struct {
	Quantities  QuantityMap      `json:"quantities"`
	Ledger      Ledger           `json:"ledger"`
	Diagnostics []ReferenceError `json:"diagnostics,omitempty"`
	Revision    string           `json:"revision,omitempty"`

	TransfersApplied int `json:"transfers_applied"`
	OrdersApplied    int `json:"orders_applied"`
}

// Equal reports structural equality of two results, ignoring the revision
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.TransfersApplied != other.TransfersApplied || r.OrdersApplied != other.OrdersApplied {
		return false
	}
	if len(r.Diagnostics) != len(other.Diagnostics) {
		return false
	}
	for i := range r.Diagnostics {
		if r.Diagnostics[i] != other.Diagnostics[i] {
			return false
		}
	}
	return r.Quantities.Equal(other.Quantities) && r.Ledger.Equal(other.Ledger)
}

// Engine derives on-hand stock by replaying movement events over a baseline.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	policy    Policy
	validator *services.SnapshotValidator
	logger    *logrus.Logger
}

// NewEngine creates a reconciliation engine. A nil logger discards output.
func NewEngine(policy Policy, logger *logrus.Logger) *Engine {
	if policy.Baseline == nil {
		policy.Baseline = DefaultBaselines()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Engine{
		policy:    policy,
		validator: services.NewSnapshotValidator(),
		logger:    logger,
	}
}

// Reconcile replays a snapshot with the given policy and no logging
func Reconcile(snapshot *entities.Snapshot, policy Policy) (*Result, error) {
	return NewEngine(policy, nil).Reconcile(snapshot)
}

// Reconcile validates the snapshot and replays every transfer and order over
// the baseline. A structurally invalid snapshot fails with a
// *services.ValidationError and nothing is applied. Unresolvable references
// are skipped per line item and reported in Result.Diagnostics. Negative
// quantities are valid output.
func (e *Engine) Reconcile(snapshot *entities.Snapshot) (*Result, error) {
	if err := e.validator.Validate(snapshot); err != nil {
		return nil, err
	}

	catalog := newCatalogIndex(snapshot)
	result := e.openingBalances(snapshot)

	for i := range snapshot.Transfers {
		effects, diagnostics := e.transferEffects(catalog, &snapshot.Transfers[i])
		if len(effects) > 0 {
			result.TransfersApplied++
		}
		result.apply(effects)
		result.Diagnostics = append(result.Diagnostics, diagnostics...)
	}

	for i := range snapshot.Orders {
		effects, diagnostics := e.orderEffects(catalog, &snapshot.Orders[i])
		if len(effects) > 0 {
			result.OrdersApplied++
		}
		result.apply(effects)
		result.Diagnostics = append(result.Diagnostics, diagnostics...)
	}

	sortDiagnostics(result.Diagnostics)

	fields := logrus.Fields{
		"revision":          snapshot.Revision,
		"locations":         len(snapshot.Locations),
		"products":          len(snapshot.Products),
		"transfers_applied": result.TransfersApplied,
		"orders_applied":    result.OrdersApplied,
	}
	if len(result.Diagnostics) > 0 {
		for _, d := range result.Diagnostics {
			e.logger.WithField("revision", snapshot.Revision).Debug(d.Error())
		}
		e.logger.WithFields(fields).WithField("diagnostics", len(result.Diagnostics)).
			Warn("skipped line items with unresolved references")
	}
	e.logger.WithFields(fields).Debug("reconciled snapshot")

	return result, nil
}

// openingBalances seeds every location and product pair from the baseline policy
func (e *Engine) openingBalances(snapshot *entities.Snapshot) *Result {
	result := &Result{
		Quantities: make(QuantityMap, len(snapshot.Locations)),
		Ledger:     make(Ledger, len(snapshot.Locations)),
		Revision:   snapshot.Revision,
	}

	for _, location := range snapshot.Locations {
		opening := e.policy.baseline(location.Kind)
		quantities := make(map[entities.ProductID]entities.Quantity, len(snapshot.Products))
		movements := make(map[entities.ProductID]Movement, len(snapshot.Products))
		for _, product := range snapshot.Products {
			quantities[product.ID] = opening
			movements[product.ID] = Movement{Opening: opening}
		}
		result.Quantities[location.ID] = quantities
		result.Ledger[location.ID] = movements
	}

	return result
}

type effectKind int

const (
	transferOut effectKind = iota
	inTransitOut
	transferIn
	orderOut
)

// effect is one signed contribution of an event line to one cell. Effects
// commute, so the replay result does not depend on event order.
type effect struct {
	kind     effectKind
	location entities.LocationID
	product  entities.ProductID
	quantity entities.Quantity
}

func (r *Result) apply(effects []effect) {
	for _, ef := range effects {
		switch ef.kind {
		case transferOut, inTransitOut:
			r.Quantities.add(ef.location, ef.product, -ef.quantity)
			r.Ledger.update(ef.location, ef.product, func(m *Movement) {
				m.TransferOut += ef.quantity
				if ef.kind == inTransitOut {
					m.InTransitOut += ef.quantity
				}
			})
		case transferIn:
			r.Quantities.add(ef.location, ef.product, ef.quantity)
			r.Ledger.update(ef.location, ef.product, func(m *Movement) { m.TransferIn += ef.quantity })
		case orderOut:
			r.Quantities.add(ef.location, ef.product, -ef.quantity)
			r.Ledger.update(ef.location, ef.product, func(m *Movement) { m.OrderOut += ef.quantity })
		}
	}
}

// transferEffects deducts every line from the source as soon as the transfer
// exists and credits the target only once it is completed
func (e *Engine) transferEffects(catalog *catalogIndex, transfer *entities.TransferEvent) ([]effect, []ReferenceError) {
	if !transfer.LeavesSource() {
		return nil, nil
	}

	var effects []effect
	var diagnostics []ReferenceError

	for i, line := range transfer.Lines {
		ref := ReferenceError{Event: TransferEventKind, EventID: transfer.ID, Line: i}
		problems := catalog.checkLocation(ref, transfer.SourceID, transfer.SourceKind)
		problems = append(problems, catalog.checkLocation(ref, transfer.TargetID, transfer.TargetKind)...)
		problems = append(problems, catalog.checkProduct(ref, line.ProductID)...)
		if len(problems) > 0 {
			diagnostics = append(diagnostics, problems...)
			continue
		}

		out := inTransitOut
		if transfer.ReachesTarget() {
			out = transferOut
			effects = append(effects, effect{kind: transferIn, location: transfer.TargetID, product: line.ProductID, quantity: line.Quantity})
		}
		effects = append(effects, effect{kind: out, location: transfer.SourceID, product: line.ProductID, quantity: line.Quantity})
	}

	return effects, diagnostics
}

// orderEffects deducts withdrawn orders from the assigned vehicle, or from the
// fallback location when no vehicle is assigned
func (e *Engine) orderEffects(catalog *catalogIndex, order *entities.OrderEvent) ([]effect, []ReferenceError) {
	if !order.Status.WithdrawsStock() {
		return nil, nil
	}

	location := order.VehicleID
	if !order.Assigned() {
		location = e.policy.FallbackLocationID
	}

	var effects []effect
	var diagnostics []ReferenceError

	for i, line := range order.Lines {
		ref := ReferenceError{Event: OrderEventKind, EventID: order.ID, Line: i}
		var problems []ReferenceError
		if location == "" {
			missing := ref
			missing.Reason = NoWithdrawalLocation
			problems = append(problems, missing)
		} else {
			problems = append(problems, catalog.checkLocation(ref, location, "")...)
		}
		problems = append(problems, catalog.checkProduct(ref, line.ProductID)...)
		if len(problems) > 0 {
			diagnostics = append(diagnostics, problems...)
			continue
		}

		effects = append(effects, effect{kind: orderOut, location: location, product: line.ProductID, quantity: line.Quantity})
	}

	return effects, diagnostics
}

// catalogIndex resolves ids against the snapshot's catalogs
type catalogIndex struct {
	products  map[entities.ProductID]struct{}
	locations map[entities.LocationID]entities.LocationKind
}

func newCatalogIndex(snapshot *entities.Snapshot) *catalogIndex {
	index := &catalogIndex{
		products:  make(map[entities.ProductID]struct{}, len(snapshot.Products)),
		locations: make(map[entities.LocationID]entities.LocationKind, len(snapshot.Locations)),
	}
	for _, p := range snapshot.Products {
		index.products[p.ID] = struct{}{}
	}
	for _, l := range snapshot.Locations {
		index.locations[l.ID] = l.Kind
	}
	return index
}

func (c *catalogIndex) checkProduct(ref ReferenceError, id entities.ProductID) []ReferenceError {
	if _, exists := c.products[id]; exists {
		return nil
	}
	ref.Reason = UnknownProduct
	ref.ProductID = id
	return []ReferenceError{ref}
}

// checkLocation resolves a location and, when declared is set, its kind
func (c *catalogIndex) checkLocation(ref ReferenceError, id entities.LocationID, declared entities.LocationKind) []ReferenceError {
	actual, exists := c.locations[id]
	ref.LocationID = id
	switch {
	case !exists:
		ref.Reason = UnknownLocation
	case declared != "" && declared != actual:
		ref.Reason = KindMismatch
		ref.Declared = declared
		ref.Actual = actual
	default:
		return nil
	}
	return []ReferenceError{ref}
}
