package mission

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/xerrors"
)

// Directory 依赖服务的存在性校验与名称查询，由 peers 包实现
type Directory interface {
	Exists(ctx context.Context, id int64) bool
	Name(ctx context.Context, id int64) (string, error)
}

// ValidationError 引用的实体无法确认存在
type ValidationError struct {
	Entity string
	ID     int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot confirm that %s %d exists", e.Entity, e.ID)
}

func (e *ValidationError) Unwrap() error {
	return xerrors.ErrInvalidInput
}

// Service 任务业务逻辑
type Service struct {
	users       Directory
	spacecrafts Directory
	cargos      Directory
	store       Store
	logger      clog.Logger
	now         func() time.Time
}

// NewService 创建任务服务
func NewService(users, spacecrafts, cargos Directory, store Store, logger clog.Logger) *Service {
	if logger == nil {
		logger = clog.Discard()
	}
	return &Service{
		users:       users,
		spacecrafts: spacecrafts,
		cargos:      cargos,
		store:       store,
		logger:      logger.WithNamespace("mission"),
		now:         time.Now,
	}
}

// Create 校验引用后保存任务
//
// 所有引用并发校验，任意一个无法确认即拒绝；依赖不可用与实体不存在同样拒绝。
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Mission, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidInput, "mission: name is required")
	}

	g, gctx := errgroup.WithContext(ctx)
	check := func(dir Directory, entity string, id int64) {
		g.Go(func() error {
			if !dir.Exists(gctx, id) {
				return &ValidationError{Entity: entity, ID: id}
			}
			return nil
		})
	}
	check(s.users, "user", req.CommanderID)
	check(s.spacecrafts, "spacecraft", req.SpacecraftID)
	for _, id := range req.CargoIDs {
		check(s.cargos, "cargo", id)
	}
	if err := g.Wait(); err != nil {
		s.logger.InfoContext(ctx, "mission rejected", clog.String("name", req.Name), clog.Error(err))
		return nil, err
	}

	m := &Mission{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(req.Name),
		CommanderID:  req.CommanderID,
		SpacecraftID: req.SpacecraftID,
		CargoIDs:     append([]int64{}, req.CargoIDs...),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "mission created", clog.String("mission_id", m.ID), clog.Int("cargos", len(m.CargoIDs)))
	return m, nil
}

// Get 查询任务并补全名称
//
// 依赖不可用时名称为 peers.UnknownName；依赖报告实体不存在时返回 *resilient.NotFoundError。
func (s *Service) Get(ctx context.Context, id string) (*Details, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Details{Mission: *m, CargoNames: make([]string, len(m.CargoIDs))}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		name, err := s.users.Name(gctx, m.CommanderID)
		d.CommanderUsername = name
		return err
	})
	g.Go(func() error {
		name, err := s.spacecrafts.Name(gctx, m.SpacecraftID)
		d.SpacecraftName = name
		return err
	})
	for i, cargoID := range m.CargoIDs {
		g.Go(func() error {
			name, err := s.cargos.Name(gctx, cargoID)
			d.CargoNames[i] = name
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// List 列出所有任务，不补全名称
func (s *Service) List(ctx context.Context) ([]*Mission, error) {
	return s.store.List(ctx)
}
