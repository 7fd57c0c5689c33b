package breaker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/xerrors"
)

// Breaker 单个依赖的熔断器
//
// 同一依赖的所有调用方共享一个实例，内部同步，簿记不做任何 I/O。
type Breaker struct {
	name     string
	settings Settings
	opts     *options
	logger   clog.Logger
	inst     *instruments

	cb     atomic.Pointer[gobreaker.CircuitBreaker[struct{}]]
	window *window

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func newCircuit(name string, settings Settings, opts *options, inst *instruments) *Breaker {
	b := &Breaker{
		name:     name,
		settings: settings,
		opts:     opts,
		logger:   opts.logger.With(clog.String("dependency", name)),
		inst:     inst,
		window:   newWindow(settings.SlidingWindowSize),
	}
	b.cb.Store(b.newStateMachine())
	return b
}

func (b *Breaker) newStateMachine() *gobreaker.CircuitBreaker[struct{}] {
	var cb *gobreaker.CircuitBreaker[struct{}]
	cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        b.name,
		MaxRequests: uint32(b.settings.PermittedCallsInHalfOpenState),
		// Interval 为 0：CLOSED 状态下不按时间清零，窗口完全由计数决定
		Interval: 0,
		Timeout:  b.settings.WaitDurationInOpenState,
		ReadyToTrip: func(gobreaker.Counts) bool {
			return b.window.shouldTrip(b.settings.MinimumNumberOfCalls, b.settings.FailureRateThreshold)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			// Reset 之后旧状态机上的迟到调用不再影响当前状态
			if b.cb.Load() != cb {
				return
			}
			b.onStateChange(fromGobreaker(from), fromGobreaker(to))
		},
		IsSuccessful: b.opts.isSuccessful,
		IsExcluded:   b.opts.isExcluded,
	})
	return cb
}

// Name 返回依赖名
func (b *Breaker) Name() string {
	return b.name
}

// Settings 返回生效参数
func (b *Breaker) Settings() Settings {
	return b.settings
}

// State 返回当前状态；OPEN 等待期满后读取会触发切换到 HALF_OPEN
func (b *Breaker) State() State {
	return fromGobreaker(b.cb.Load().State())
}

// Snapshot 返回只读视图
func (b *Breaker) Snapshot() Snapshot {
	state := b.State()
	total, failures := b.window.stats()
	var rate float64
	if total > 0 {
		rate = float64(failures) * 100 / float64(total)
	}
	return Snapshot{
		Dependency:  b.name,
		State:       state,
		StateName:   state.String(),
		Calls:       total,
		Failures:    failures,
		FailureRate: rate,
		Settings:    b.settings,
	}
}

// Execute 在熔断保护下执行 fn
//
// OPEN 或 HALF_OPEN 名额已满时不调用 fn，直接返回 ErrOpenState / ErrTooManyRequests。
// fn 的错误原样返回，健康判定见 WithSuccessClassifier / WithExclusionClassifier。
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.cb.Load().Execute(func() (struct{}, error) {
		epoch := b.window.currentEpoch()
		err := fn(ctx)
		if !b.opts.isExcluded(err) {
			b.window.record(epoch, !b.opts.isSuccessful(err))
		}
		return struct{}{}, err
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		b.inst.call(b.name, ResultRejected)
		return xerrors.Wrapf(ErrOpenState, "dependency %s", b.name)
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		b.inst.call(b.name, ResultRejected)
		return xerrors.Wrapf(ErrTooManyRequests, "dependency %s", b.name)
	case b.opts.isExcluded(err):
		b.inst.call(b.name, ResultExcluded)
	case b.opts.isSuccessful(err):
		b.inst.call(b.name, ResultSuccess)
	default:
		b.inst.call(b.name, ResultFailure)
	}
	return err
}

// reset 丢弃当前状态机，回到 CLOSED 并清空窗口
func (b *Breaker) reset() {
	prev := b.State()
	b.stopTimer()
	b.cb.Store(b.newStateMachine())
	b.window.reset()

	b.logger.Warn("circuit breaker reset", clog.String("from", prev.String()))
	if prev != StateClosed {
		b.inst.transition(b.name, prev, StateClosed)
	}
}

// onStateChange 在 gobreaker 持锁期间回调，不能回调 State()
func (b *Breaker) onStateChange(from, to State) {
	b.window.reset()
	b.inst.transition(b.name, from, to)

	fields := []clog.Field{clog.String("from", from.String()), clog.String("to", to.String())}
	switch to {
	case StateOpen:
		b.logger.Warn("circuit breaker opened", append(fields, clog.Duration("wait", b.settings.WaitDurationInOpenState))...)
		if b.settings.AutomaticTransitionFromOpenToHalfOpen {
			b.scheduleHalfOpen()
		}
	case StateHalfOpen:
		b.logger.Info("circuit breaker half-open, permitting trial calls",
			append(fields, clog.Int("permitted", b.settings.PermittedCallsInHalfOpenState))...)
	default:
		b.logger.Info("circuit breaker closed", fields...)
	}
}

// scheduleHalfOpen 等待期满后读取一次状态，驱动 OPEN -> HALF_OPEN
func (b *Breaker) scheduleHalfOpen() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	cb := b.cb.Load()
	// 多等 1ms，保证定时器触发时 gobreaker 的 expiry 已经过去
	b.timer = time.AfterFunc(b.settings.WaitDurationInOpenState+time.Millisecond, func() {
		cb.State()
	})
}

func (b *Breaker) stopTimer() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Breaker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func fromGobreaker(s gobreaker.State) State {
	switch s {
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}
