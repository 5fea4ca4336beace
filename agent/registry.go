package agent

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/swarmflow/types"
)

// Registry 是显式传入构造函数的 Agent 注册表（依赖注入），
// 生命周期由组合根管理，不依赖包级单例。
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]Agent
	descriptors map[string]Descriptor
	logger      *zap.Logger
}

// NewRegistry 创建空注册表。
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		agents:      make(map[string]Agent),
		descriptors: make(map[string]Descriptor),
		logger:      logger.With(zap.String("component", "agent_registry")),
	}
}

// Register 注册一个 Agent 及其角色标签。
// 重复的 ID 是配置错误。
func (r *Registry) Register(a Agent, roles ...Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := a.ID()
	if id == "" {
		return types.NewError(types.ErrConfiguration, "agent id must not be empty")
	}
	if _, exists := r.agents[id]; exists {
		return types.NewError(types.ErrConfiguration, "duplicate agent id: "+id)
	}

	r.agents[id] = a
	r.descriptors[id] = Descriptor{Name: id, Roles: roles}
	r.logger.Info("agent registered", zap.String("agent", id), zap.Int("roles", len(roles)))
	return nil
}

// Resolve 按名称查找 Agent。未注册名是配置错误，不是运行期故障。
func (r *Registry) Resolve(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[name]
	if !ok {
		return nil, types.NewError(types.ErrConfiguration, "unknown agent: "+name)
	}
	return a, nil
}

// Describe 返回指定 Agent 的描述符。
func (r *Registry) Describe(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.descriptors[name]
	return d, ok
}

// Names 返回全部注册名，按字典序排序。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WithRole 返回带指定角色的注册名，按字典序排序。
func (r *Registry) WithRole(role Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.descriptors))
	for name, d := range r.descriptors {
		if d.HasRole(role) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Len 返回注册的 Agent 数量。
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}
