package transcoder

import (
	"github.com/wippyai/plod/transcoder/internal/abi"
	"github.com/wippyai/plod/transcoder/internal/layout"
)

// MaxSequenceLength bounds the element count a decoded sequence may declare.
const MaxSequenceLength = abi.MaxSequenceLength

// MaxDepth bounds how deeply values may nest, counted in path segments
// (fields, variants and indices). Recursive schemas hit it first.
const MaxDepth = abi.MaxDepth

var (
	resolveSizes = layout.Resolve
	typeName     = abi.TypeName
	safeAdd      = abi.SafeAdd
	safeMul      = abi.SafeMul
)
