package guest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/pinned-runtime/container"
	"github.com/wippyai/pinned-runtime/errors"
	"github.com/wippyai/pinned-runtime/guest/internal/module"
	"github.com/wippyai/pinned-runtime/lifecycle"
)

// Engine compiles the cell guest once and instantiates it on demand.
// Engine is safe for concurrent use.
type Engine struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	observer atomic.Pointer[lifecycle.Observer]
	cfg      Config
	seq      atomic.Uint64
	closed   atomic.Bool
}

// NewEngine creates an engine with DefaultConfig.
func NewEngine(ctx context.Context) (*Engine, error) {
	return NewEngineWithConfig(ctx, DefaultConfig())
}

// NewEngineWithConfig creates an engine with custom configuration
func NewEngineWithConfig(ctx context.Context, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(cfg.CloseOnContextDone)
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := runtime.CompileModule(ctx, module.Cells(cfg.InitialPages))
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindInvalidInput, err, "compile cell guest")
	}

	Logger().Debug("guest engine ready",
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.Uint32("initial_pages", cfg.InitialPages))

	return &Engine{runtime: runtime, compiled: compiled, cfg: cfg}, nil
}

// Config returns the configuration the engine was created with.
func (e *Engine) Config() Config {
	return e.cfg
}

// SetObserver attaches a lifecycle observer to the heaps of instances created
// afterwards. It may be called while other goroutines instantiate.
func (e *Engine) SetObserver(o lifecycle.Observer) {
	e.observer.Store(&o)
}

func (e *Engine) heap() container.Heap {
	if o := e.observer.Load(); o != nil {
		return container.Heap{Observer: *o}
	}
	return container.Heap{}
}

// Instantiate creates a fresh guest instance. ctx is also used for the guest
// calls made from Cell relocation and Drop, which take no context of their own.
func (e *Engine) Instantiate(ctx context.Context) (*Instance, error) {
	if e.closed.Load() {
		return nil, errors.Closed("engine")
	}

	name := fmt.Sprintf("cells-%d", e.seq.Add(1))
	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseGuest, errors.KindTrap, err, "instantiate "+name)
	}

	inst, err := newInstance(ctx, mod, e.heap(), e.cfg)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}

	Logger().Debug("guest instantiated", zap.String("name", name))
	return inst, nil
}

// Close releases the runtime and every instance created from it.
func (e *Engine) Close(ctx context.Context) error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.runtime.Close(ctx)
}
