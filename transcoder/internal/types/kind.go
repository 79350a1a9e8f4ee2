package types

type Kind uint8

const (
	KindPrimitive Kind = iota
	KindRecord
	KindSum
	KindArray
	KindTuple
	KindSequence
	KindSkip
	KindContext
	KindCustom
)

var kindNames = [...]string{
	KindPrimitive: "primitive",
	KindRecord:    "record",
	KindSum:       "sum",
	KindArray:     "array",
	KindTuple:     "tuple",
	KindSequence:  "sequence",
	KindSkip:      "skip",
	KindContext:   "context",
	KindCustom:    "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsComposite reports whether the kind carries a schema of its own.
func (k Kind) IsComposite() bool {
	return k == KindRecord || k == KindSum
}

// OnWire reports whether values of the kind may occupy bytes.
func (k Kind) OnWire() bool {
	return k != KindSkip && k != KindContext
}
