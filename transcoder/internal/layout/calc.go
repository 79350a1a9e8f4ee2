package layout

import (
	"github.com/wippyai/plod/transcoder/internal/abi"
	"github.com/wippyai/plod/transcoder/internal/types"
)

type visit uint8

const (
	unvisited visit = iota
	visiting
	done
)

// Calculator assigns static sizes to a graph of compiled types. Nodes already
// marked Sized are read, never written, so plans shared through a cache stay
// immutable.
type Calculator struct {
	state map[*types.CompiledType]visit
}

func NewCalculator() *Calculator {
	return &Calculator{
		state: make(map[*types.CompiledType]visit),
	}
}

// Resolve sizes root and every node reachable from it.
func Resolve(root *types.CompiledType) {
	NewCalculator().Calculate(root)
}

// Calculate returns the static size of ct, or types.Variable. A node that is
// reached again while its own size is being computed lies on a cycle and is
// treated as variable.
func (c *Calculator) Calculate(ct *types.CompiledType) int {
	if ct == nil {
		return 0
	}
	if ct.Sized {
		return ct.StaticSize
	}
	switch c.state[ct] {
	case visiting:
		return types.Variable
	case done:
		return ct.StaticSize
	}

	c.state[ct] = visiting
	size := c.compute(ct)
	ct.StaticSize = size
	ct.Sized = true
	c.state[ct] = done
	return size
}

func (c *Calculator) compute(ct *types.CompiledType) int {
	switch ct.Kind {
	case types.KindPrimitive:
		return ct.Primitive.Size()
	case types.KindSkip, types.KindContext:
		return 0
	case types.KindCustom:
		return types.Variable
	case types.KindSequence:
		c.Calculate(ct.Elem)
		return types.Variable
	case types.KindArray:
		elem := c.Calculate(ct.Elem)
		if ct.Len == 0 {
			return 0
		}
		if elem == types.Variable {
			return types.Variable
		}
		if n, ok := abi.SafeMul(elem, ct.Len); ok {
			return n
		}
		return types.Variable
	case types.KindRecord, types.KindTuple:
		return c.add(ct.Magic.Type.Size(), c.fields(ct.Fields))
	case types.KindSum:
		return c.add(ct.Magic.Type.Size(), c.cases(ct))
	}
	return types.Variable
}

// fields sizes every field even after one turns out variable, so nested
// nodes are all resolved.
func (c *Calculator) fields(fields []types.Field) int {
	total := 0
	for i := range fields {
		total = c.add(total, c.Calculate(fields[i].Type))
	}
	return total
}

func (c *Calculator) cases(ct *types.CompiledType) int {
	size := types.Variable
	first := true
	for i := range ct.Cases {
		cs := &ct.Cases[i]
		payload := c.Calculate(cs.Type)
		if cs.Excluded {
			continue
		}
		n := payload
		if !cs.KeepTag {
			n = c.add(ct.TagType.Size(), payload)
		}
		switch {
		case first:
			size, first = n, false
		case n != size:
			size = types.Variable
		}
	}
	return size
}

func (c *Calculator) add(a, b int) int {
	if a == types.Variable || b == types.Variable {
		return types.Variable
	}
	if n, ok := abi.SafeAdd(a, b); ok {
		return n
	}
	return types.Variable
}
