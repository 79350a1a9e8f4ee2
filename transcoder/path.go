package transcoder

import "strconv"

// pathNode is one segment of the location of the value being encoded or
// decoded. Nodes link to their parent; the joined path is only built when an
// error or an observer needs it. A nil node is the root.
type pathNode struct {
	parent *pathNode
	name   string
	index  int
	level  int
}

func (p *pathNode) child(name string) *pathNode {
	return &pathNode{parent: p, name: name, index: -1, level: p.depth() + 1}
}

func (p *pathNode) elem(i int) *pathNode {
	return &pathNode{parent: p, index: i, level: p.depth() + 1}
}

// depth is the number of segments from the root.
func (p *pathNode) depth() int {
	if p == nil {
		return 0
	}
	return p.level
}

func (p *pathNode) segments() []string {
	if p == nil {
		return nil
	}
	out := make([]string, p.level)
	for n := p; n != nil; n = n.parent {
		if n.index >= 0 {
			out[n.level-1] = "[" + strconv.Itoa(n.index) + "]"
		} else {
			out[n.level-1] = n.name
		}
	}
	return out
}
