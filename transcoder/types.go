package transcoder

import (
	"github.com/wippyai/plod/transcoder/internal/types"
)

type TypeKind = types.Kind

const (
	KindPrimitive = types.KindPrimitive
	KindRecord    = types.KindRecord
	KindSum       = types.KindSum
	KindArray     = types.KindArray
	KindTuple     = types.KindTuple
	KindSequence  = types.KindSequence
	KindSkip      = types.KindSkip
	KindContext   = types.KindContext
	KindCustom    = types.KindCustom
)

// VariableSize is the StaticSize of a type whose encoded size depends on its value.
const VariableSize = types.Variable

type CompiledType = types.CompiledType
type CompiledField = types.Field
type CompiledCase = types.Case
