package concurrency

import (
	"time"

	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

// RegisterTraps installs THREAD_JOIN, THREAD_SLEEP, THREAD_MUTEX,
// CRITICAL_START, and CRITICAL_END into t, completing the generic trap
// table internal/trap builds with the concurrency-specific handlers spec.md
// §4.2/§4.7 describes.
func RegisterTraps(t *trap.Table) {
	t.Register(trap.IDThreadJoin, handleThreadJoin)
	t.Register(trap.IDThreadSleep, handleThreadSleep)
	t.Register(trap.IDThreadMutexInit, handleThreadMutexInit)
	t.Register(trap.IDCriticalStart, handleCriticalStart)
	t.Register(trap.IDCriticalEnd, handleCriticalEnd)
}

func handleThreadJoin(ctx *trap.Context) error {
	obj, ok := trap.ObjectFor(ctx.Receiver)
	if !ok || len(obj.Slots) == 0 {
		return diag.NewFault(diag.KindThreadAPIFailure, "join on non-thread receiver", nil)
	}
	h := Handle(obj.Slots[0])
	if err := Join(h); err != nil {
		return diag.NewFault(diag.KindThreadAPIFailure, err.Error(), nil)
	}
	return nil
}

func handleThreadSleep(ctx *trap.Context) error {
	millis := ctx.Pop()
	Sleep(time.Duration(millis) * time.Millisecond)
	return nil
}

func handleThreadMutexInit(ctx *trap.Context) error {
	MutexInit(ctx.Receiver)
	return nil
}

func handleCriticalStart(ctx *trap.Context) error {
	mutexObj := ctx.Pop()
	CriticalStart(mutexObj)
	return nil
}

func handleCriticalEnd(ctx *trap.Context) error {
	mutexObj := ctx.Pop()
	CriticalEnd(mutexObj)
	return nil
}
