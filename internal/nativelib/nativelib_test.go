package nativelib

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/memory"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

func charArrayRef(s string) uint64 {
	payload := make([]uint64, len(s)+1)
	for i := 0; i < len(s); i++ {
		payload[i] = uint64(s[i])
	}
	arr := &memory.Array{
		ArrayHeader: memory.ArrayHeader{TotalElementCount: int64(len(s) + 1), DimensionCount: 1, Dimensions: []int64{int64(len(s) + 1)}},
		Payload:     payload,
	}
	return trap.RefOf(arr)
}

func ctxWith(stack []uint64) *trap.Context {
	pos := len(stack)
	buf := make([]uint64, 16)
	copy(buf, stack)
	return &trap.Context{OpStack: buf, OpStackPos: &pos}
}

func TestDecodeCharArrayStopsAtNullTerminator(t *testing.T) {
	arr := &memory.Array{Payload: []uint64{'h', 'i', 0, 'x'}}
	require.Equal(t, "hi", decodeCharArray(arr))
}

// TestHandleLoadMissingLibraryPushesZeroHandle exercises load_lib's
// null-pointer-on-error convention: no .so exists for this name under
// libRoot, so plugin.Open fails and the registry must push 0 rather than
// erroring the whole VM out.
func TestHandleLoadMissingLibraryPushesZeroHandle(t *testing.T) {
	r := NewRegistry()
	table := trap.NewTable()
	r.RegisterTraps(table)

	ctx := ctxWith([]uint64{charArrayRef("does-not-exist")})
	ctx.TrapID = trap.IDDllLoad
	require.NoError(t, table.Dispatch(ctx))
	require.Equal(t, uint64(0), ctx.OpStack[*ctx.OpStackPos-1])
	require.Empty(t, r.libs)
}

func TestHandleLoadNonArrayNamePushesZeroHandle(t *testing.T) {
	r := NewRegistry()
	table := trap.NewTable()
	r.RegisterTraps(table)

	ctx := ctxWith([]uint64{0})
	ctx.TrapID = trap.IDDllLoad
	require.NoError(t, table.Dispatch(ctx))
	require.Equal(t, uint64(0), ctx.OpStack[*ctx.OpStackPos-1])
}

func TestHandleUnloadForgetsKnownHandle(t *testing.T) {
	r := NewRegistry()
	r.libs[1] = nil
	r.names[1] = "fake"

	ctx := ctxWith([]uint64{1})
	ctx.TrapID = trap.IDDllUnload
	require.NoError(t, r.handleUnload(ctx))
	require.NotContains(t, r.libs, uint64(1))
	require.NotContains(t, r.names, uint64(1))
}

func TestHandleUnloadUnknownHandleIsNoOp(t *testing.T) {
	r := NewRegistry()
	ctx := ctxWith([]uint64{999})
	ctx.TrapID = trap.IDDllUnload
	require.NoError(t, r.handleUnload(ctx))
}

// TestHandleFuncCallUnknownHandlePushesZero exercises the failure path
// without needing an actual loaded plugin: DLL_FUNC_CALL against a handle
// the registry never issued must fail soft, not panic or error the VM.
func TestHandleFuncCallUnknownHandlePushesZero(t *testing.T) {
	r := NewRegistry()
	table := trap.NewTable()
	r.RegisterTraps(table)

	ctx := ctxWith([]uint64{42, charArrayRef("whatever")}) // pop order: funcName then handle
	ctx.TrapID = trap.IDDllFuncCall
	require.NoError(t, table.Dispatch(ctx))
	require.Equal(t, uint64(0), ctx.OpStack[*ctx.OpStackPos-1])
}

func TestLibRootDefaultsWhenEnvUnset(t *testing.T) {
	t.Setenv(LibPathEnv, "")
	require.Equal(t, DefaultLibDir, libRoot())
}

func TestLibRootHonorsEnv(t *testing.T) {
	t.Setenv(LibPathEnv, "/opt/objeck/native")
	require.Equal(t, "/opt/objeck/native", libRoot())
}
