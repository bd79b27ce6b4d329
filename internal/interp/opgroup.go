package interp

import "github.com/tracevm/tracevm/internal/proto"

func isControlOp(op proto.OpCode) bool {
	switch op {
	case proto.OpCall, proto.OpNCall, proto.OpRet, proto.OpJmp, proto.OpJc,
		proto.OpBranch, proto.OpUseMethod, proto.OpForBegin, proto.OpForEnd, proto.OpDone:
		return true
	default:
		return false
	}
}

func isMemoryOp(op proto.OpCode) bool {
	switch op {
	case proto.OpAssign, proto.OpAssign2, proto.OpMov, proto.OpFastMov,
		proto.OpIAssign, proto.OpEAssign, proto.OpSubset, proto.OpSubset2, proto.OpDollar,
		proto.OpAttrGet, proto.OpAttrSet:
		return true
	default:
		return false
	}
}

func isArithOp(op proto.OpCode) bool {
	switch op {
	case proto.OpNeg, proto.OpNot, proto.OpIsNA, proto.OpIsFinite, proto.OpLog, proto.OpExp,
		proto.OpAdd, proto.OpSub, proto.OpMul, proto.OpDiv, proto.OpMod, proto.OpPow,
		proto.OpEq, proto.OpNeq, proto.OpLt, proto.OpLe, proto.OpGt, proto.OpGe,
		proto.OpAnd, proto.OpOr, proto.OpIfElse, proto.OpSplit:
		return true
	default:
		return false
	}
}

func isVectorOp(op proto.OpCode) bool {
	switch op {
	case proto.OpSeq, proto.OpColon, proto.OpRep, proto.OpList, proto.OpType, proto.OpLength,
		proto.OpStrip, proto.OpMissing, proto.OpFunction, proto.OpInternal, proto.OpConstant,
		proto.OpGather, proto.OpScatter:
		return true
	default:
		return false
	}
}
