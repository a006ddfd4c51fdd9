package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/l1jgo/phasesim/internal/component"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for creature movement rules.
// Maps tick on separate goroutines, so every call into the VM holds mu.
type Engine struct {
	mu  sync.Mutex
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// core first, then feature scripts
	for _, sub := range []string{"core", "ai", "world"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasFunction reports whether a global Lua function is defined.
func (e *Engine) HasFunction(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// WanderContext describes an idle creature asking where to walk.
type WanderContext struct {
	MapID  int32
	Entry  int32
	Pos    component.Position
	Home   component.Position
	Radius float32
}

// NextWander calls Lua next_wander(ctx). Returns false when the script is
// missing, fails, or returns nil.
func (e *Engine) NextWander(ctx WanderContext) (component.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("next_wander")
	if fn == lua.LNil {
		return component.Position{}, false
	}

	t := e.vm.NewTable()
	t.RawSetString("map_id", lua.LNumber(ctx.MapID))
	t.RawSetString("entry", lua.LNumber(ctx.Entry))
	t.RawSetString("radius", lua.LNumber(ctx.Radius))
	setPosition(t, "", ctx.Pos)
	setPosition(t, "home_", ctx.Home)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua next_wander error", zap.Error(err), zap.Int32("entry", ctx.Entry))
		return component.Position{}, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return component.Position{}, false
	}
	return component.Position{
		X: lFloat(rt, "x"),
		Y: lFloat(rt, "y"),
		Z: lFloat(rt, "z"),
		O: lFloat(rt, "o"),
	}, true
}

// RespawnContext describes an object whose relocation target could not be
// loaded.
type RespawnContext struct {
	MapID int32
	GUID  uint64
	Kind  component.ObjectKind
	Entry int32
	Home  component.Position
}

// GetRespawnLocation calls Lua get_respawn_location(ctx). A nil result keeps
// the object's own home.
func (e *Engine) GetRespawnLocation(ctx RespawnContext) (component.Position, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	fn := e.vm.GetGlobal("get_respawn_location")
	if fn == lua.LNil {
		return component.Position{}, false
	}

	t := e.vm.NewTable()
	t.RawSetString("map_id", lua.LNumber(ctx.MapID))
	t.RawSetString("guid", lua.LNumber(ctx.GUID))
	t.RawSetString("kind", lua.LString(ctx.Kind.String()))
	t.RawSetString("entry", lua.LNumber(ctx.Entry))
	setPosition(t, "", ctx.Home)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua get_respawn_location error", zap.Error(err))
		return component.Position{}, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		return component.Position{}, false
	}
	return component.Position{
		X: lFloat(rt, "x"),
		Y: lFloat(rt, "y"),
		Z: lFloat(rt, "z"),
		O: ctx.Home.O,
	}, true
}

// --- Lua helpers ---

func setPosition(t *lua.LTable, prefix string, p component.Position) {
	t.RawSetString(prefix+"x", lua.LNumber(p.X))
	t.RawSetString(prefix+"y", lua.LNumber(p.Y))
	t.RawSetString(prefix+"z", lua.LNumber(p.Z))
}

// lFloat reads a number field from a Lua table.
func lFloat(t *lua.LTable, key string) float32 {
	return float32(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vm.Close()
}
