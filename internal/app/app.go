package app

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stellarcargo/peercall/breaker"
	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/credential"
	"github.com/stellarcargo/peercall/internal/mission"
	"github.com/stellarcargo/peercall/metrics"
	"github.com/stellarcargo/peercall/peer"
	"github.com/stellarcargo/peercall/peers"
	"github.com/stellarcargo/peercall/resilient"
	"github.com/stellarcargo/peercall/trace"
	"github.com/stellarcargo/peercall/xerrors"
)

// App 组装完成的服务
type App struct {
	cfg      *Config
	logger   clog.Logger
	meter    metrics.Meter
	shutdown trace.ShutdownFunc
	registry breaker.Registry
	router   *gin.Engine
}

// Option App 选项
type Option func(*appOptions)

type appOptions struct {
	logger    clog.Logger
	transport http.RoundTripper
}

// WithLogger 使用外部 Logger，不再按 cfg.Log 创建
func WithLogger(logger clog.Logger) Option {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithTransport 设置依赖客户端的底层 RoundTripper
func WithTransport(rt http.RoundTripper) Option {
	return func(o *appOptions) {
		o.transport = rt
	}
}

// New 按配置创建所有组件
//
// 配置非法时返回包装 xerrors.ErrInvalidConfig 的错误。失败时已创建的组件会被释放。
func New(ctx context.Context, cfg *Config, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, xerrors.Wrap(xerrors.ErrInvalidConfig, "app: config is nil")
	}
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{cfg: cfg, logger: o.logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if a.logger == nil {
		a.logger, err = clog.New(&cfg.Log, clog.WithNamespace(cfg.Service), clog.WithStandardContext())
		if err != nil {
			return nil, xerrors.Wrap(err, "app: create logger")
		}
	}

	if cfg.Trace.ServiceName == "" {
		cfg.Trace.ServiceName = cfg.Service
	}
	if a.shutdown, err = trace.Init(ctx, &cfg.Trace); err != nil {
		return nil, xerrors.Wrap(err, "app: init trace")
	}

	if cfg.Metrics.ServiceName == "" {
		cfg.Metrics.ServiceName = cfg.Service
	}
	if a.meter, err = metrics.New(&cfg.Metrics, metrics.WithLogger(a.logger)); err != nil {
		return nil, xerrors.Wrap(err, "app: create meter")
	}

	if a.registry, err = breaker.New(&cfg.Breaker, breaker.WithLogger(a.logger), breaker.WithMeter(a.meter)); err != nil {
		return nil, err
	}

	carrier, err := credential.NewCarrier(credential.Mode(cfg.Credential.Mode))
	if err != nil {
		return nil, err
	}

	inv, err := resilient.NewInvoker(a.registry, resilient.WithLogger(a.logger), resilient.WithMeter(a.meter))
	if err != nil {
		return nil, err
	}

	peerOpts := []peer.Option{
		peer.WithCarrier(carrier),
		peer.WithLogger(a.logger),
		peer.WithTransport(o.transport),
	}
	userClient, err := peer.New(peers.UserDependency, &cfg.Peers.UserService, peerOpts...)
	if err != nil {
		return nil, err
	}
	spacecraftClient, err := peer.New(peers.SpacecraftDependency, &cfg.Peers.SpacecraftService, peerOpts...)
	if err != nil {
		return nil, err
	}
	cargoClient, err := peer.New(peers.CargoDependency, &cfg.Peers.CargoService, peerOpts...)
	if err != nil {
		return nil, err
	}

	svc := mission.NewService(
		peers.NewUserService(inv, peer.NewUserClient(userClient)),
		peers.NewSpacecraftService(inv, peer.NewSpacecraftClient(spacecraftClient)),
		peers.NewCargoService(inv, peer.NewCargoClient(cargoClient)),
		mission.NewMemoryStore(),
		a.logger,
	)

	if a.router, err = a.newRouter(carrier, mission.NewHandler(svc, a.logger)); err != nil {
		return nil, err
	}

	a.logger.Info("app initialized",
		clog.String("credential_mode", string(credential.Mode(cfg.Credential.Mode))),
		clog.String("user_service", cfg.Peers.UserService.BaseURL),
		clog.String("spacecraft_service", cfg.Peers.SpacecraftService.BaseURL),
		clog.String("cargo_service", cfg.Peers.CargoService.BaseURL))
	return a, nil
}

// Handler 返回 HTTP 处理器
func (a *App) Handler() http.Handler {
	return a.router
}

// Registry 返回熔断器注册表
func (a *App) Registry() breaker.Registry {
	return a.registry
}

// Logger 返回服务 Logger
func (a *App) Logger() clog.Logger {
	return a.logger
}

// Run 在 cfg.Server.Addr 上提供服务直到 ctx 结束，然后优雅关闭
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return xerrors.Wrapf(err, "app: listen %s", a.cfg.Server.Addr)
	}
	return a.Serve(ctx, lis)
}

// Serve 在给定 Listener 上提供服务直到 ctx 结束
func (a *App) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", clog.String("addr", lis.Addr().String()))
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		if err != nil && !xerrors.Is(err, http.ErrServerClosed) {
			return xerrors.Wrap(err, "app: serve")
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return xerrors.Wrap(err, "app: shutdown")
	}
	return nil
}

// Close 释放注册表、指标与追踪，可重复调用
func (a *App) Close(ctx context.Context) error {
	var errs xerrors.Collector
	if a.registry != nil {
		errs.Collect(a.registry.Close())
	}
	if a.meter != nil {
		errs.Collect(a.meter.Shutdown(ctx))
		a.meter = nil
	}
	if a.shutdown != nil {
		errs.Collect(a.shutdown(ctx))
		a.shutdown = nil
	}
	if a.logger != nil {
		a.logger.Flush()
	}
	return errs.Err()
}
