// Package schemafile loads schemas from YAML documents.
//
// A document declares named types. A type with fields is a record; a type
// with a tag_type and variants is a sum:
//
//	order: big
//	types:
//	  Header:
//	    magic: {type: u16, value: 0xbaba}
//	    fields:
//	      - {name: version, type: u8}
//	      - {name: body, type: {seq: u8}, size_type: u32}
//	      - {name: shape, type: Shape}
//	  Shape:
//	    tag_type: u8
//	    variants:
//	      - {name: Empty, tag: 0}
//	      - name: Circle
//	        tag: [1, {from: 6, to: 8}]
//	        emit: 1
//	        fields: [{name: r, type: f32}]
//	      - name: Raw
//	        keep_tag: true
//	        fields: [{name: tag, type: u8}]
//
// Field types are a primitive name, skip, context, unit, the name of a
// declared type (references may be recursive) or one of the mappings
// {seq: T}, {array: T, len: N} and {tuple: [T, ...]}. The metadata keys
// tag_type, size_type, byte_sized, keep_tag, keep_diff and order are
// accepted on types, variants and fields; a seq mapping accepts them for its
// own prefix. magic is only valid on a type. A field with context: true provides the context of the fields
// after it; a variant with skip: true is never decoded and cannot be encoded.
//
// All errors are reported with errors.PhaseLoad.
package schemafile
