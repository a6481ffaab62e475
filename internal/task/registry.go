package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/thingspace/thingspace-notes/internal/app"
)

// TaskFactory 任务工厂函数，配置关闭该任务时返回 nil Task
type TaskFactory func(a *app.App) (Task, error)

var (
	taskRegistry  = map[string]TaskFactory{}
	registryMutex sync.RWMutex
)

// Register 按名称注册任务工厂，通常在任务文件的 init() 中调用
// Registering the same name twice panics.
func Register(name string, factory TaskFactory) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	if _, dup := taskRegistry[name]; dup {
		panic(fmt.Sprintf("task: factory %q registered twice", name))
	}
	taskRegistry[name] = factory
}

// GetFactories 按名称顺序返回已注册的任务工厂
func GetFactories() []TaskFactory {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	names := make([]string, 0, len(taskRegistry))
	for name := range taskRegistry {
		names = append(names, name)
	}
	sort.Strings(names)

	factories := make([]TaskFactory, 0, len(names))
	for _, name := range names {
		factories = append(factories, taskRegistry[name])
	}
	return factories
}
