package schemafile

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/plod/schema"
)

type rawDocument struct {
	Order string    `yaml:"order"`
	Types yaml.Node `yaml:"types"`
}

type rawMagic struct {
	Type  string `yaml:"type"`
	Value uint64 `yaml:"value"`
}

// rawMeta holds the metadata keys accepted at every scope.
type rawMeta struct {
	Magic     *rawMagic `yaml:"magic"`
	ByteSized *bool     `yaml:"byte_sized"`
	KeepTag   *bool     `yaml:"keep_tag"`
	TagType   string    `yaml:"tag_type"`
	SizeType  string    `yaml:"size_type"`
	Order     string    `yaml:"order"`
	KeepDiff  int64     `yaml:"keep_diff"`
}

type rawType struct {
	rawMeta  `yaml:",inline"`
	Fields   []rawField   `yaml:"fields"`
	Variants []rawVariant `yaml:"variants"`
	line     int
}

type rawField struct {
	rawMeta `yaml:",inline"`
	Default any        `yaml:"default"`
	Type    rawTypeRef `yaml:"type"`
	Name    string     `yaml:"name"`
	Context bool       `yaml:"context"`
}

type rawVariant struct {
	rawMeta `yaml:",inline"`
	Tag     *rawTag    `yaml:"tag"`
	Emit    *int64     `yaml:"emit"`
	Name    string     `yaml:"name"`
	Fields  []rawField `yaml:"fields"`
	Skip    bool       `yaml:"skip"`
}

// rawTag accepts a literal, a {from, to} range, or a list of both.
type rawTag struct {
	match schema.TagMatch
}

func (t *rawTag) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.MappingNode:
		r, err := tagRange(node)
		if err != nil {
			return err
		}
		t.match.Ranges = append(t.match.Ranges, r)
	case yaml.SequenceNode:
		for _, item := range node.Content {
			r, err := tagRange(item)
			if err != nil {
				return err
			}
			t.match.Ranges = append(t.match.Ranges, r)
		}
	default:
		return fmt.Errorf("line %d: tag must be an integer, a range or a list", node.Line)
	}
	return nil
}

func tagRange(node *yaml.Node) (schema.TagRange, error) {
	if node.Kind == yaml.ScalarNode {
		var v int64
		if err := node.Decode(&v); err != nil {
			return schema.TagRange{}, fmt.Errorf("line %d: tag %q: %w", node.Line, node.Value, err)
		}
		return schema.TagRange{Lo: v, Hi: v}, nil
	}

	var r struct {
		From *int64 `yaml:"from"`
		To   *int64 `yaml:"to"`
	}
	if err := node.Decode(&r); err != nil {
		return schema.TagRange{}, err
	}
	if r.From == nil || r.To == nil {
		return schema.TagRange{}, fmt.Errorf("line %d: tag range needs from and to", node.Line)
	}
	return schema.TagRange{Lo: *r.From, Hi: *r.To}, nil
}

// rawTypeRef is a field type: a name (primitive, skip, context, unit or a
// declared type) or one of the {seq}, {array, len} and {tuple} mappings.
type rawTypeRef struct {
	Seq   *rawTypeRef
	Array *rawTypeRef
	Tuple *[]rawTypeRef
	Name  string
	Meta  rawMeta
	Len   int
	line  int
}

func (r *rawTypeRef) UnmarshalYAML(node *yaml.Node) error {
	r.line = node.Line
	switch node.Kind {
	case yaml.ScalarNode:
		r.Name = node.Value
		return nil
	case yaml.MappingNode:
	default:
		return fmt.Errorf("line %d: type must be a name or a mapping", node.Line)
	}

	var p struct {
		rawMeta `yaml:",inline"`
		Seq     *rawTypeRef   `yaml:"seq"`
		Array   *rawTypeRef   `yaml:"array"`
		Len     *int          `yaml:"len"`
		Tuple   *[]rawTypeRef `yaml:"tuple"`
	}
	if err := node.Decode(&p); err != nil {
		return err
	}

	forms := 0
	for _, set := range []bool{p.Seq != nil, p.Array != nil, p.Tuple != nil} {
		if set {
			forms++
		}
	}
	if forms != 1 {
		return fmt.Errorf("line %d: type mapping needs exactly one of seq, array or tuple", node.Line)
	}
	if p.Array != nil {
		if p.Len == nil {
			return fmt.Errorf("line %d: array needs len", node.Line)
		}
		r.Len = *p.Len
	}

	r.Seq, r.Array, r.Tuple, r.Meta = p.Seq, p.Array, p.Tuple, p.rawMeta
	return nil
}
