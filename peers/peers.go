// Package peers 为业务层提供依赖服务的存在性校验与名称查询。
//
// 存在性校验在依赖不可用时返回 false（fail closed），名称查询在依赖不可用时
// 返回 UnknownName；依赖明确报告不存在时名称查询返回 *resilient.NotFoundError。
package peers

import (
	"context"
	"strconv"

	"github.com/stellarcargo/peercall/peer"
	"github.com/stellarcargo/peercall/resilient"
)

// 依赖名，同时是熔断器注册表的键
const (
	UserDependency       = "userService"
	SpacecraftDependency = "spacecraftService"
	CargoDependency      = "cargoService"
)

// UnknownName 依赖不可用时的名称占位
const UnknownName = "Unknown"

// Validator 存在性校验
type Validator interface {
	Exists(ctx context.Context, id int64) bool
}

// Namer 名称查询
type Namer interface {
	Name(ctx context.Context, id int64) (string, error)
}

// adapter 一类实体的通用实现
type adapter struct {
	inv        *resilient.Invoker
	dependency string
	existsOp   string
	lookupOp   string
	exists     func(ctx context.Context, id int64) (bool, error)
	name       func(ctx context.Context, id int64) (string, error)
}

func (a *adapter) check(ctx context.Context, id int64) bool {
	return resilient.Check(ctx, a.inv, resilient.Call[bool]{
		Dependency: a.dependency,
		Operation:  a.existsOp,
		Key:        strconv.FormatInt(id, 10),
		Do: func(ctx context.Context) (bool, error) {
			return a.exists(ctx, id)
		},
	})
}

func (a *adapter) lookup(ctx context.Context, id int64) (string, error) {
	return resilient.Enrich(ctx, a.inv, resilient.Call[string]{
		Dependency: a.dependency,
		Operation:  a.lookupOp,
		Key:        strconv.FormatInt(id, 10),
		Do: func(ctx context.Context) (string, error) {
			return a.name(ctx, id)
		},
	}, UnknownName)
}

// UserService 用户校验与用户名查询
type UserService struct {
	a adapter
}

// NewUserService 创建用户适配器
func NewUserService(inv *resilient.Invoker, client *peer.UserClient) *UserService {
	return &UserService{a: adapter{
		inv:        inv,
		dependency: UserDependency,
		existsOp:   "userExists",
		lookupOp:   "getUser",
		exists:     client.UserExists,
		name: func(ctx context.Context, id int64) (string, error) {
			u, err := client.GetUser(ctx, id)
			if err != nil {
				return "", err
			}
			return u.Username, nil
		},
	}}
}

// Exists 用户是否存在，依赖不可用时为 false
func (s *UserService) Exists(ctx context.Context, id int64) bool {
	return s.a.check(ctx, id)
}

// Username 查询用户名
func (s *UserService) Username(ctx context.Context, id int64) (string, error) {
	return s.a.lookup(ctx, id)
}

// Name 同 Username
func (s *UserService) Name(ctx context.Context, id int64) (string, error) {
	return s.a.lookup(ctx, id)
}

// SpacecraftService 飞船校验与名称查询
type SpacecraftService struct {
	a adapter
}

// NewSpacecraftService 创建飞船适配器
func NewSpacecraftService(inv *resilient.Invoker, client *peer.SpacecraftClient) *SpacecraftService {
	return &SpacecraftService{a: adapter{
		inv:        inv,
		dependency: SpacecraftDependency,
		existsOp:   "spacecraftExists",
		lookupOp:   "getSpacecraft",
		exists:     client.SpacecraftExists,
		name: func(ctx context.Context, id int64) (string, error) {
			s, err := client.GetSpacecraft(ctx, id)
			if err != nil {
				return "", err
			}
			return s.Name, nil
		},
	}}
}

func (s *SpacecraftService) Exists(ctx context.Context, id int64) bool {
	return s.a.check(ctx, id)
}

func (s *SpacecraftService) Name(ctx context.Context, id int64) (string, error) {
	return s.a.lookup(ctx, id)
}

// CargoService 货物校验与名称查询
type CargoService struct {
	a adapter
}

// NewCargoService 创建货物适配器
func NewCargoService(inv *resilient.Invoker, client *peer.CargoClient) *CargoService {
	return &CargoService{a: adapter{
		inv:        inv,
		dependency: CargoDependency,
		existsOp:   "cargoExists",
		lookupOp:   "getCargo",
		exists:     client.CargoExists,
		name: func(ctx context.Context, id int64) (string, error) {
			c, err := client.GetCargo(ctx, id)
			if err != nil {
				return "", err
			}
			return c.Name, nil
		},
	}}
}

func (s *CargoService) Exists(ctx context.Context, id int64) bool {
	return s.a.check(ctx, id)
}

func (s *CargoService) Name(ctx context.Context, id int64) (string, error) {
	return s.a.lookup(ctx, id)
}

var (
	_ Validator = (*UserService)(nil)
	_ Namer     = (*UserService)(nil)
	_ Validator = (*SpacecraftService)(nil)
	_ Namer     = (*SpacecraftService)(nil)
	_ Validator = (*CargoService)(nil)
	_ Namer     = (*CargoService)(nil)
)
