// Package interpreter implements the stackless, fuel-bounded interpreter
// described in spec.md §4.3: a direct dispatch loop over a wasm.Module's
// own instruction sequence (no intermediate compiled representation), with
// explicit operand/label/frame stacks bounded at fixed ceilings so a call
// either completes within its budget or fails predictably.
package interpreter

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pulseengine/wrt-go/internal/hostbridge"
	"github.com/pulseengine/wrt-go/internal/memsys"
	"github.com/pulseengine/wrt-go/internal/validator"
	"github.com/pulseengine/wrt-go/internal/wasm"
)

// Engine owns the validated-module cache shared by every instance this
// process creates. Naming mirrors the host runtime's engine ->
// moduleEngine -> callEngine layering: one Engine per process, one
// moduleEngine per distinct Module, one callEngine per in-flight exported
// call.
type Engine struct {
	cache *lru.Cache[wasm.ModuleID, *moduleEngine]
}

// NewEngine creates an Engine whose module cache holds up to cacheSize
// distinct modules' validated state before evicting the least recently
// used.
func NewEngine(cacheSize int) *Engine {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	c, _ := lru.New[wasm.ModuleID, *moduleEngine](cacheSize)
	return &Engine{cache: c}
}

// moduleEngine is the per-Module state the cache retains: confirmation the
// module validated under a given feature set, plus the module itself. It
// holds no per-Instance state, so many Instances safely share one entry.
type moduleEngine struct {
	module   *wasm.Module
	features wasm.Features
}

// Prepare validates m under features if it hasn't already been validated
// (a cache hit skips re-validation entirely, the payoff of keying the LRU
// cache on ModuleID), and returns the prepared moduleEngine.
func (e *Engine) Prepare(m *wasm.Module, features wasm.Features) (*moduleEngine, error) {
	if me, ok := e.cache.Get(m.ID); ok && me.features == features {
		return me, nil
	}
	if err := validator.Validate(m, features); err != nil {
		return nil, err
	}
	me := &moduleEngine{module: m, features: features}
	e.cache.Add(m.ID, me)
	return me, nil
}

// NewCallEngine creates the per-call execution state for invoking functions
// of inst (the function index is passed to Call), bridging
// host imports through bridge and linear memory 0 through mem (spec.md
// §4.3 and §4.4 together: the callEngine is where interpreter and host
// bridge meet).
func NewCallEngine(inst *wasm.Instance, bridge *hostbridge.Bridge, mem *memsys.Memory, fuel int64) *callEngine {
	return &callEngine{
		instance: inst,
		bridge:   bridge,
		memory:   mem,
		fuel:     fuel,
	}
}
