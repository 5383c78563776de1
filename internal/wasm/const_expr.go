package wasm

import "github.com/wazevm/wazevm/api"

// ConstExprContext supplies the values a constant expression may reference:
// only imported globals are visible (spec.md §4.3 step 3: "a temporary
// frame that has access only to imported globals"), plus every
// module-defined function's store address so that a ref.func immediate
// resolves to the same FunctionAddr-tagged value the interpreter expects
// to find in a table element or global (rather than a bare module-local
// index, which would collide across instances).
type ConstExprContext struct {
	ImportedGlobals []*GlobalInstance
	FuncAddrs       []FunctionAddr
}

// Eval evaluates a validated constant expression, returning its single
// resulting stack value. The validator guarantees the expression is one of
// *.const, global.get (of an imported immutable global), ref.null, or
// ref.func, so this never errors on a module that passed validation.
func (c ConstExpr) Eval(ctx ConstExprContext) uint64 {
	if len(c.Instructions) == 0 {
		return 0
	}
	ins := c.Instructions[0]
	switch ins.Opcode {
	case OpI32Const:
		return uint64(uint32(ins.I32))
	case OpI64Const:
		return uint64(ins.I64)
	case OpF32Const:
		return api.EncodeF32(ins.F32)
	case OpF64Const:
		return api.EncodeF64(ins.F64)
	case OpGlobalGet:
		return ctx.ImportedGlobals[ins.Index].Value
	case OpRefNull:
		return api.RefNull
	case OpRefFunc:
		return uint64(ctx.FuncAddrs[ins.Index])
	}
	return 0
}
