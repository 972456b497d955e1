// Package nativelib implements DLL_LOAD/DLL_UNLOAD/DLL_FUNC_CALL: loading a
// native library by name and invoking one of its exported functions against
// the VMContext trap surface (SPEC_FULL.md §4, supplementing lib_api.h's
// APITools_* contract from original_source/).
//
// Go has no dlopen/LoadLibrary equivalent with CGo off, so this loader uses
// the standard library's plugin package, the idiomatic Go analogue: a
// library is a .so built with `go build -buildmode=plugin` that exports each
// callable function under its own name with type func(*trap.Context) error.
// This is a stdlib choice because no
// example repo in the pack wires a third-party FFI/plugin library; see
// DESIGN.md.
package nativelib

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sync"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

// EntryPoint is what a loaded library exports: every symbol DLL_FUNC_CALL
// looks up by function name must satisfy this signature, mirroring lib_api.h's per-function native callback
// taking the VMContext-equivalent trap.Context.
type EntryPoint func(ctx *trap.Context) error

// LibPathEnv is the environment variable SPEC_FULL.md §4 resolves a native
// library search root from, falling back to DefaultLibDir.
const LibPathEnv = "OBJECK_LIB_PATH"

// DefaultLibDir is the fallback native-library directory when LibPathEnv is
// unset, matching the original distribution layout's lib/native directory
// relative to the VM executable.
const DefaultLibDir = "../lib/native"

// Registry tracks loaded libraries by handle, so DLL_UNLOAD can release a
// plugin's resources and DLL_FUNC_CALL can look up an exported function by
// name without re-opening the .so each call.
type Registry struct {
	mu      sync.Mutex
	libs    map[uint64]*plugin.Plugin
	names   map[uint64]string
	nextH   uint64
}

func NewRegistry() *Registry {
	return &Registry{libs: map[uint64]*plugin.Plugin{}, names: map[uint64]string{}}
}

// RegisterTraps wires IDDllLoad/IDDllUnload/IDDllFuncCall into t, the same
// way internal/concurrency wires its thread/mutex traps.
func (r *Registry) RegisterTraps(t *trap.Table) {
	t.Register(trap.IDDllLoad, r.handleLoad)
	t.Register(trap.IDDllUnload, r.handleUnload)
	t.Register(trap.IDDllFuncCall, r.handleFuncCall)
}

func libRoot() string {
	if p := os.Getenv(LibPathEnv); p != "" {
		return p
	}
	return DefaultLibDir
}

// handleLoad pops a name-array reference describing the library's base
// filename (without extension), opens <libRoot>/<name>.so, and pushes an
// opaque handle (0 on failure, matching the original's null-pointer-on-error
// convention for load_lib).
func (r *Registry) handleLoad(ctx *trap.Context) error {
	name := ctx.Pop()
	arr, ok := trap.ArrayFor(name)
	if !ok {
		ctx.Push(0)
		return nil
	}
	libName := decodeCharArray(arr)
	path := filepath.Join(libRoot(), libName+".so")

	p, err := plugin.Open(path)
	if err != nil {
		ctx.Push(0)
		return nil
	}

	r.mu.Lock()
	r.nextH++
	h := r.nextH
	r.libs[h] = p
	r.names[h] = libName
	r.mu.Unlock()

	ctx.Push(h)
	return nil
}

// handleUnload drops the registry's reference to a loaded library. Go's
// plugin package has no Close/unload primitive, so this only removes the
// bookkeeping entry; the loaded code itself is released by the process
// exiting.
func (r *Registry) handleUnload(ctx *trap.Context) error {
	h := ctx.Pop()
	r.mu.Lock()
	delete(r.libs, h)
	delete(r.names, h)
	r.mu.Unlock()
	return nil
}

// handleFuncCall pops (handle, funcNameArray), resolves the exported
// EntryPoint symbol, and invokes it with ctx.DataArray already populated by
// the caller as the Object[] argument array (lib_api.h's data_array).
func (r *Registry) handleFuncCall(ctx *trap.Context) error {
	funcName := ctx.Pop()
	h := ctx.Pop()

	r.mu.Lock()
	p, ok := r.libs[h]
	r.mu.Unlock()
	if !ok {
		ctx.Push(0)
		return nil
	}

	arr, ok := trap.ArrayFor(funcName)
	if !ok {
		ctx.Push(0)
		return nil
	}
	sym, err := p.Lookup(decodeCharArray(arr))
	if err != nil {
		ctx.Push(0)
		return nil
	}
	entry, ok := sym.(func(*trap.Context) error)
	if !ok {
		return fmt.Errorf("nativelib: %s does not export an EntryPoint", decodeCharArray(arr))
	}
	if err := entry(ctx); err != nil {
		return err
	}
	ctx.Push(1)
	return nil
}

func decodeCharArray(arr *memory.Array) string {
	b := make([]byte, 0, len(arr.Payload))
	for _, v := range arr.Payload {
		if v == 0 {
			break
		}
		b = append(b, byte(v))
	}
	return string(b)
}
