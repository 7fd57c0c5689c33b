package breaker

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/stellarcargo/peercall/clog"
)

type registry struct {
	cfg      *resolvedConfig
	opts     *options
	inst     *instruments
	breakers sync.Map // map[string]*Breaker
	closed   atomic.Bool
}

func newRegistry(cfg *resolvedConfig, opts *options) (*registry, error) {
	inst, err := newInstruments(opts.meter)
	if err != nil {
		return nil, err
	}

	opts.logger.Info("breaker registry created",
		clog.Float64("failure_rate_threshold", cfg.defaults.FailureRateThreshold),
		clog.Int("sliding_window_size", cfg.defaults.SlidingWindowSize),
		clog.Int("minimum_number_of_calls", cfg.defaults.MinimumNumberOfCalls),
		clog.Duration("wait_duration_in_open_state", cfg.defaults.WaitDurationInOpenState),
		clog.Int("permitted_calls_in_half_open_state", cfg.defaults.PermittedCallsInHalfOpenState),
		clog.Int("overrides", len(cfg.overrides)))

	return &registry{cfg: cfg, opts: opts, inst: inst}, nil
}

func (r *registry) Breaker(dependency string) (*Breaker, error) {
	dependency = strings.TrimSpace(dependency)
	if dependency == "" {
		return nil, ErrKeyEmpty
	}
	if v, ok := r.breakers.Load(dependency); ok {
		return v.(*Breaker), nil
	}
	if r.closed.Load() {
		return nil, ErrRegistryClosed
	}

	created := newCircuit(dependency, r.cfg.settingsFor(dependency), r.opts, r.inst)
	actual, loaded := r.breakers.LoadOrStore(dependency, created)
	if !loaded {
		s := created.settings
		r.opts.logger.Debug("circuit breaker created",
			clog.String("dependency", dependency),
			clog.Float64("failure_rate_threshold", s.FailureRateThreshold),
			clog.Int("sliding_window_size", s.SlidingWindowSize))
	}
	return actual.(*Breaker), nil
}

func (r *registry) Execute(ctx context.Context, dependency string, fn func(context.Context) error) error {
	b, err := r.Breaker(dependency)
	if err != nil {
		return err
	}
	return b.Execute(ctx, fn)
}

func (r *registry) State(dependency string) (State, error) {
	if strings.TrimSpace(dependency) == "" {
		return StateClosed, ErrKeyEmpty
	}
	v, ok := r.breakers.Load(strings.TrimSpace(dependency))
	if !ok {
		return StateClosed, nil
	}
	return v.(*Breaker).State(), nil
}

func (r *registry) Snapshots() []Snapshot {
	var out []Snapshot
	r.breakers.Range(func(_, v any) bool {
		out = append(out, v.(*Breaker).Snapshot())
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Dependency < out[j].Dependency })
	return out
}

func (r *registry) Reset(dependency string) error {
	if strings.TrimSpace(dependency) == "" {
		return ErrKeyEmpty
	}
	v, ok := r.breakers.Load(strings.TrimSpace(dependency))
	if !ok {
		return ErrUnknownDependency
	}
	v.(*Breaker).reset()
	return nil
}

func (r *registry) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.breakers.Range(func(_, v any) bool {
		v.(*Breaker).close()
		return true
	})
	r.opts.logger.Info("breaker registry closed")
	return nil
}
