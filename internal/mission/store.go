package mission

import (
	"context"
	"sort"
	"sync"

	"github.com/stellarcargo/peercall/xerrors"
)

// ErrMissionNotFound 任务不存在
var ErrMissionNotFound = xerrors.New("mission: not found")

// Store 任务存储
type Store interface {
	Save(ctx context.Context, m *Mission) error
	Get(ctx context.Context, id string) (*Mission, error)
	List(ctx context.Context) ([]*Mission, error)
}

// MemoryStore 内存实现，并发安全
type MemoryStore struct {
	mu       sync.RWMutex
	missions map[string]*Mission
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{missions: make(map[string]*Mission)}
}

func (s *MemoryStore) Save(_ context.Context, m *Mission) error {
	if m == nil || m.ID == "" {
		return xerrors.Wrap(xerrors.ErrInvalidInput, "mission: id is required")
	}
	cp := *m
	cp.CargoIDs = append([]int64(nil), m.CargoIDs...)

	s.mu.Lock()
	s.missions[m.ID] = &cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Mission, error) {
	s.mu.RLock()
	m, ok := s.missions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, xerrors.Wrapf(ErrMissionNotFound, "id %s", id)
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Mission, error) {
	s.mu.RLock()
	out := make([]*Mission, 0, len(s.missions))
	for _, m := range s.missions {
		cp := *m
		out = append(out, &cp)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
