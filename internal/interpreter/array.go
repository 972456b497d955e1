package interpreter

import (
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/diag"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/program"
	"github.com/000MatthewJamesKalasky/objeck-lang-sub001/internal/trap"
)

// arrayElemAccess implements LOAD/STORE array-element opcodes: compute the
// row-major linear index, bounds-check it, then read or write the payload
// (spec.md §4.2).
func (t *Thread) arrayElemAccess(in *program.Instr) error {
	isStore := in.Op == program.OpStoreArrayElem
	n := int(in.Operand) // number of declared dimensions

	var storeVal uint64
	if isStore {
		storeVal = t.OpStack[t.pos-1]
		t.pos--
	}

	indices := make([]int64, n)
	for i := n - 1; i >= 0; i-- {
		indices[i] = t.popInt()
	}
	ref := t.popRef()
	if ref == 0 {
		return diag.NewFault(diag.KindNilDeref, "", t.frameInfos())
	}
	arr, ok := trap.ArrayFor(ref)
	if !ok {
		return diag.NewFault(diag.KindNilDeref, "array reference not found", t.frameInfos())
	}

	idx := rowMajorIndex(indices, arr.Dimensions)
	if idx < 0 || idx >= arr.TotalElementCount {
		return diag.NewFault(diag.KindArrayBounds, diag.ArrayBoundsDetail(idx, arr.TotalElementCount), t.frameInfos())
	}

	if isStore {
		arr.Payload[idx] = storeVal
	} else {
		t.pushRef(arr.Payload[idx])
	}
	return nil
}

// rowMajorIndex implements spec.md §4.2's index rule:
// idx = i0; for k in 1..N { idx = idx*dim[k] + i[k] }.
func rowMajorIndex(indices, dims []int64) int64 {
	if len(indices) == 0 {
		return 0
	}
	idx := indices[0]
	for k := 1; k < len(indices); k++ {
		idx = idx*dims[k] + indices[k]
	}
	return idx
}
