package breaker

import (
	"context"

	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/xerrors"
)

const (
	// MetricCallsTotal 熔断器看到的调用数 (Counter)
	MetricCallsTotal = "breaker_calls_total"

	// MetricStateChanges 状态变更次数 (Counter)
	MetricStateChanges = "breaker_state_changes_total"

	// MetricState 当前状态 (Gauge)：0=closed 1=half_open 2=open
	MetricState = "breaker_state"

	LabelDependency = "dependency"
	LabelResult     = "result"
	LabelFromState  = "from_state"
	LabelToState    = "to_state"

	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
	ResultExcluded = "excluded"
)

type instruments struct {
	calls        metrics.Counter
	stateChanges metrics.Counter
	state        metrics.Gauge
}

func newInstruments(m metrics.Meter) (*instruments, error) {
	calls, err := m.Counter(MetricCallsTotal, "Calls seen by the circuit breaker, by result.")
	if err != nil {
		return nil, xerrors.Wrap(err, "breaker: create calls counter")
	}
	changes, err := m.Counter(MetricStateChanges, "Circuit breaker state transitions.")
	if err != nil {
		return nil, xerrors.Wrap(err, "breaker: create state change counter")
	}
	state, err := m.Gauge(MetricState, "Current circuit breaker state (0=closed, 1=half_open, 2=open).")
	if err != nil {
		return nil, xerrors.Wrap(err, "breaker: create state gauge")
	}
	return &instruments{calls: calls, stateChanges: changes, state: state}, nil
}

func (i *instruments) call(dependency, result string) {
	i.calls.Inc(context.Background(), metrics.L(LabelDependency, dependency), metrics.L(LabelResult, result))
}

func (i *instruments) transition(dependency string, from, to State) {
	ctx := context.Background()
	i.stateChanges.Inc(ctx,
		metrics.L(LabelDependency, dependency),
		metrics.L(LabelFromState, from.String()),
		metrics.L(LabelToState, to.String()),
	)
	i.state.Set(ctx, float64(to), metrics.L(LabelDependency, dependency))
}
