package resilient

import (
	"context"
	"time"

	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/xerrors"
)

const (
	// MetricInvocationsTotal 调用次数，按结果分类 (Counter)
	MetricInvocationsTotal = "peercall_invocations_total"

	// MetricInvocationDuration 调用耗时，单位秒 (Histogram)
	MetricInvocationDuration = "peercall_invocation_duration_seconds"

	LabelDependency = "dependency"
	LabelOperation  = "operation"
	LabelOutcome    = "outcome"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type instruments struct {
	invocations metrics.Counter
	duration    metrics.Histogram
}

func newInstruments(m metrics.Meter) (*instruments, error) {
	invocations, err := m.Counter(MetricInvocationsTotal, "Dependency invocations, by outcome.")
	if err != nil {
		return nil, xerrors.Wrap(err, "resilient: create invocations counter")
	}
	duration, err := m.Histogram(MetricInvocationDuration, "Dependency invocation latency.",
		metrics.WithUnit("s"), metrics.WithBuckets(durationBuckets))
	if err != nil {
		return nil, xerrors.Wrap(err, "resilient: create duration histogram")
	}
	return &instruments{invocations: invocations, duration: duration}, nil
}

func (i *instruments) observe(ctx context.Context, dependency, operation string, kind Kind, elapsed time.Duration) {
	labels := []metrics.Label{
		metrics.L(LabelDependency, dependency),
		metrics.L(LabelOperation, operation),
		metrics.L(LabelOutcome, kind.String()),
	}
	i.invocations.Inc(ctx, labels...)
	i.duration.Record(ctx, elapsed.Seconds(), labels...)
}
