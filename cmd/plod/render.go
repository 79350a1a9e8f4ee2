package main

import (
	"fmt"
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatJSON format = "json"
	formatYAML format = "yaml"
	formatCBOR format = "cbor"
	// formatDiag is CBOR diagnostic notation.
	formatDiag format = "diag"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("plod: CBOR encoder initialization failed: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("plod: CBOR decoder initialization failed: " + err.Error())
	}
}

func parseFormat(name string, allowDiag bool) (format, error) {
	switch f := format(name); f {
	case formatJSON, formatYAML, formatCBOR:
		return f, nil
	case formatDiag:
		if allowDiag {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// binary reports whether f produces non-text output.
func (f format) binary() bool {
	return f == formatCBOR
}

func render(w io.Writer, f format, v any) error {
	switch f {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
		return enc.Close()
	case formatCBOR:
		data, err := cborEnc.Marshal(v)
		if err != nil {
			return fmt.Errorf("cbor: %w", err)
		}
		_, err = w.Write(data)
		return err
	case formatDiag:
		data, err := cborEnc.Marshal(v)
		if err != nil {
			return fmt.Errorf("cbor: %w", err)
		}
		diag, err := cbor.Diagnose(data)
		if err != nil {
			return fmt.Errorf("cbor diagnose: %w", err)
		}
		_, err = fmt.Fprintln(w, diag)
		return err
	}
	return fmt.Errorf("unknown format %q", f)
}

// parseValue decodes data in format f into out, a pointer.
func parseValue(data []byte, f format, out any) error {
	switch f {
	case formatJSON:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("json: %w", err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
	case formatCBOR:
		if err := cborDec.Unmarshal(data, out); err != nil {
			return fmt.Errorf("cbor: %w", err)
		}
	default:
		return fmt.Errorf("cannot read %s input", f)
	}
	return nil
}
