package peer

import (
	"context"
	"strconv"
)

// User userService 的用户表示
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

// Spacecraft spacecraftService 的飞船表示
type Spacecraft struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Model  string `json:"model,omitempty"`
	Status string `json:"status,omitempty"`
}

// Cargo cargoService 的货物表示
type Cargo struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"`
	WeightKg float64 `json:"weightKg,omitempty"`
}

// resource 以 /api/<collection>/{id} 与 /api/<collection>/{id}/exists 暴露的实体
type resource[T any] struct {
	client     *Client
	collection string
}

func (r resource[T]) get(ctx context.Context, id int64) (*T, error) {
	var out T
	if err := r.client.GetJSON(ctx, "/api/"+r.collection+"/"+strconv.FormatInt(id, 10), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r resource[T]) exists(ctx context.Context, id int64) (bool, error) {
	var out bool
	if err := r.client.GetJSON(ctx, "/api/"+r.collection+"/"+strconv.FormatInt(id, 10)+"/exists", &out); err != nil {
		return false, err
	}
	return out, nil
}

// UserClient userService 客户端
type UserClient struct {
	users resource[User]
}

// NewUserClient 基于通用客户端创建
func NewUserClient(c *Client) *UserClient {
	return &UserClient{users: resource[User]{client: c, collection: "users"}}
}

// GetUser GET /api/users/{id}
func (u *UserClient) GetUser(ctx context.Context, id int64) (*User, error) {
	return u.users.get(ctx, id)
}

// UserExists GET /api/users/{id}/exists
func (u *UserClient) UserExists(ctx context.Context, id int64) (bool, error) {
	return u.users.exists(ctx, id)
}

// SpacecraftClient spacecraftService 客户端
type SpacecraftClient struct {
	spacecrafts resource[Spacecraft]
}

// NewSpacecraftClient 基于通用客户端创建
func NewSpacecraftClient(c *Client) *SpacecraftClient {
	return &SpacecraftClient{spacecrafts: resource[Spacecraft]{client: c, collection: "spacecrafts"}}
}

// GetSpacecraft GET /api/spacecrafts/{id}
func (s *SpacecraftClient) GetSpacecraft(ctx context.Context, id int64) (*Spacecraft, error) {
	return s.spacecrafts.get(ctx, id)
}

// SpacecraftExists GET /api/spacecrafts/{id}/exists
func (s *SpacecraftClient) SpacecraftExists(ctx context.Context, id int64) (bool, error) {
	return s.spacecrafts.exists(ctx, id)
}

// CargoClient cargoService 客户端
type CargoClient struct {
	cargos resource[Cargo]
}

// NewCargoClient 基于通用客户端创建
func NewCargoClient(c *Client) *CargoClient {
	return &CargoClient{cargos: resource[Cargo]{client: c, collection: "cargos"}}
}

// GetCargo GET /api/cargos/{id}
func (c *CargoClient) GetCargo(ctx context.Context, id int64) (*Cargo, error) {
	return c.cargos.get(ctx, id)
}

// CargoExists GET /api/cargos/{id}/exists
func (c *CargoClient) CargoExists(ctx context.Context, id int64) (bool, error) {
	return c.cargos.exists(ctx, id)
}
