// Package script runs Lua scene scripts before the frame loop starts.
package script

import (
	"fmt"
	"io/fs"

	"github.com/go-gl/mathgl/mgl32"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// BoxSpec is the argument of spawn_box.
type BoxSpec struct {
	Name            string
	Position        mgl32.Vec3
	HalfExtents     mgl32.Vec3
	Velocity        mgl32.Vec3
	AngularVelocity mgl32.Vec3
	Mass            float32
	AngularDamping  float32
	Color           string
}

// Host is what a script can change.
type Host interface {
	SpawnBox(b BoxSpec) error
	SetGravity(g mgl32.Vec3)
}

// Engine wraps one gopher-lua VM. Single-goroutine access only.
type Engine struct {
	vm   *lua.LState
	log  *zap.Logger
	host Host
}

func NewEngine(host Host, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState()
	e := &Engine{vm: vm, log: log.Named("script"), host: host}

	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	vm.SetGlobal("spawn_box", vm.NewFunction(e.luaSpawnBox))
	vm.SetGlobal("set_gravity", vm.NewFunction(e.luaSetGravity))
	vm.SetGlobal("log", vm.NewFunction(e.luaLog))
	return e
}

// RunFile executes the script at path in fsys.
func (e *Engine) RunFile(fsys fs.FS, path string) error {
	src, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	if err := e.vm.DoString(string(src)); err != nil {
		return fmt.Errorf("run %s: %w", path, err)
	}
	e.log.Debug("ran lua script", zap.String("file", path))
	return nil
}

// RunString executes src.
func (e *Engine) RunString(src string) error {
	return e.vm.DoString(src)
}

func (e *Engine) Close() {
	e.vm.Close()
}

// spawn_box{name=, position={x,y,z}, size={hx,hy,hz}, mass=, velocity=, spin=, damping=, color=}
func (e *Engine) luaSpawnBox(L *lua.LState) int {
	t := L.CheckTable(1)
	spec := BoxSpec{
		Name:            lua.LVAsString(t.RawGetString("name")),
		Position:        vecField(t, "position", mgl32.Vec3{}),
		HalfExtents:     vecField(t, "size", mgl32.Vec3{0.5, 0.5, 0.5}),
		Velocity:        vecField(t, "velocity", mgl32.Vec3{}),
		AngularVelocity: vecField(t, "spin", mgl32.Vec3{}),
		Mass:            numField(t, "mass", 1),
		AngularDamping:  numField(t, "damping", 0),
		Color:           lua.LVAsString(t.RawGetString("color")),
	}
	if e.host == nil {
		L.RaiseError("spawn_box: no scene")
		return 0
	}
	if err := e.host.SpawnBox(spec); err != nil {
		L.RaiseError("spawn_box: %v", err)
		return 0
	}
	e.log.Debug("spawned box", zap.String("name", spec.Name))
	return 0
}

// set_gravity(x, y, z)
func (e *Engine) luaSetGravity(L *lua.LState) int {
	g := mgl32.Vec3{
		float32(L.CheckNumber(1)),
		float32(L.CheckNumber(2)),
		float32(L.CheckNumber(3)),
	}
	if e.host != nil {
		e.host.SetGravity(g)
	}
	return 0
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info(L.CheckString(1))
	return 0
}

func vecField(t *lua.LTable, key string, def mgl32.Vec3) mgl32.Vec3 {
	v, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return def
	}
	return mgl32.Vec3{
		float32(lua.LVAsNumber(v.RawGetInt(1))),
		float32(lua.LVAsNumber(v.RawGetInt(2))),
		float32(lua.LVAsNumber(v.RawGetInt(3))),
	}
}

func numField(t *lua.LTable, key string, def float32) float32 {
	v := t.RawGetString(key)
	if v == lua.LNil {
		return def
	}
	return float32(lua.LVAsNumber(v))
}
