package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/pflag"
	"github.com/zeebo/blake3"
	"go.uber.org/zap"

	"github.com/wippyai/plod/schema"
	"github.com/wippyai/plod/schemafile"
	"github.com/wippyai/plod/transcoder"
	"github.com/wippyai/plod/wire"
)

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		t            target
		formatName   string
		compressName string
		outPath      string
		all          bool
		force        bool
	)
	fs := pflag.NewFlagSet("decode", pflag.ContinueOnError)
	t.AddFlags(fs)
	fs.StringVarP(&formatName, "format", "f", "json", "output format: json, yaml, cbor or diag")
	fs.StringVarP(&compressName, "compress", "z", "auto", "input compression: none, zstd, lz4 or auto")
	fs.StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")
	fs.BoolVar(&all, "all", false, "decode consecutive values until the end of input")
	fs.BoolVar(&force, "force", false, "write binary output to a terminal")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	path, err := inputArg(fs)
	if err != nil {
		return err
	}
	f, err := parseFormat(formatName, true)
	if err != nil {
		return err
	}
	c, err := parseCompression(compressName)
	if err != nil {
		return err
	}
	if f.binary() && outPath == "" {
		if err := guardBinary(stdout, force); err != nil {
			return err
		}
	}

	l, err := t.load()
	if err != nil {
		return err
	}
	defer l.close()

	in, err := openInput(path, stdin)
	if err != nil {
		return err
	}
	defer in.Close()
	br, release, err := decompress(in, c)
	if err != nil {
		return err
	}
	defer release()

	out, err := openOutput(outPath, stdout)
	if err != nil {
		return err
	}

	dec := transcoder.NewDecoder()
	r := wire.NewReader(br)
	n := 0
	for {
		v, err := dec.DecodeAt(r, l.ct, l.ctx)
		if err != nil {
			out.Close()
			return fmt.Errorf("value %d: %w", n, err)
		}
		if err := render(out, f, v.Interface()); err != nil {
			out.Close()
			return err
		}
		n++

		if _, err := br.Peek(1); err == io.EOF {
			break
		} else if err != nil {
			out.Close()
			return err
		}
		if !all {
			out.Close()
			return fmt.Errorf("trailing bytes after %s at offset %d (use --all for consecutive values)", l.name, r.Position())
		}
	}

	l.log.Debug("decoded", zap.Int("values", n), zap.Int64("bytes", r.Position()))
	return out.Close()
}

func runEncode(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		t            target
		formatName   string
		compressName string
		outPath      string
		force        bool
	)
	fs := pflag.NewFlagSet("encode", pflag.ContinueOnError)
	t.AddFlags(fs)
	fs.StringVarP(&formatName, "format", "f", "json", "input format: json, yaml or cbor")
	fs.StringVarP(&compressName, "compress", "z", "none", "output compression: none, zstd or lz4")
	fs.StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")
	fs.BoolVar(&force, "force", false, "write binary output to a terminal")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	path, err := inputArg(fs)
	if err != nil {
		return err
	}
	f, err := parseFormat(formatName, false)
	if err != nil {
		return err
	}
	c, err := parseCompression(compressName)
	if err != nil {
		return err
	}
	if outPath == "" {
		if err := guardBinary(stdout, force); err != nil {
			return err
		}
	}

	l, err := t.load()
	if err != nil {
		return err
	}
	defer l.close()

	in, err := openInput(path, stdin)
	if err != nil {
		return err
	}
	defer in.Close()
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	value := reflect.New(l.ct.GoType)
	if err := parseValue(text, f, value.Interface()); err != nil {
		return err
	}
	data, err := transcoder.NewEncoder().Marshal(l.ct, value.Interface(), l.ctx)
	if err != nil {
		return err
	}

	out, err := openOutput(outPath, stdout)
	if err != nil {
		return err
	}
	zw, err := compress(out, c)
	if err != nil {
		out.Close()
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		out.Close()
		return err
	}

	l.log.Debug("encoded", zap.String("type", l.name), zap.Int("bytes", len(data)))
	return out.Close()
}

// span is one decoded field and the stream range it occupied.
type span struct {
	value reflect.Value
	path  []string
	start int64
	end   int64
}

func (s span) name() string {
	if len(s.path) == 0 {
		return ""
	}
	return s.path[len(s.path)-1]
}

// decodeSpans decodes one value of l from data and records every field.
// The spans decoded before a failure are returned with the error.
func decodeSpans(l *loaded, data []byte) ([]span, int64, error) {
	var spans []span
	dec := transcoder.NewDecoder(transcoder.WithObserver(func(path []string, start, end int64, v reflect.Value) {
		spans = append(spans, span{path: append([]string(nil), path...), start: start, end: end, value: v})
	}))
	r := wire.NewReader(bytes.NewReader(data))
	_, err := dec.DecodeAt(r, l.ct, l.ctx)

	// Fields are reported after their members; list parents first.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return len(spans[i].path) < len(spans[j].path)
	})
	return spans, r.Position(), err
}

func readInput(path, compressName string, stdin io.Reader) ([]byte, error) {
	c, err := parseCompression(compressName)
	if err != nil {
		return nil, err
	}
	in, err := openInput(path, stdin)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	br, release, err := decompress(in, c)
	if err != nil {
		return nil, err
	}
	defer release()
	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

func runInspect(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		t            target
		compressName string
		interactive  bool
	)
	fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	t.AddFlags(fs)
	fs.StringVarP(&compressName, "compress", "z", "auto", "input compression: none, zstd, lz4 or auto")
	fs.BoolVarP(&interactive, "interactive", "i", false, "browse the fields in a terminal UI")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	path, err := inputArg(fs)
	if err != nil {
		return err
	}
	if interactive && !isTerminal(stdout) {
		return fmt.Errorf("interactive mode needs a terminal")
	}

	l, err := t.load()
	if err != nil {
		return err
	}
	defer l.close()

	data, err := readInput(path, compressName, stdin)
	if err != nil {
		return err
	}
	spans, consumed, decodeErr := decodeSpans(l, data)

	if interactive {
		return runInteractive(l.name, data, spans, decodeErr)
	}

	fmt.Fprintf(stdout, "%s: %d bytes\n\n", l.name, len(data))
	fmt.Fprintf(stdout, "%-8s %6s  %s\n", "OFFSET", "SIZE", "FIELD")
	for _, s := range spans {
		indent := strings.Repeat("  ", len(s.path)-1)
		fmt.Fprintf(stdout, "%08x %6d  %s%s = %s\n", s.start, s.end-s.start, indent, s.name(), summarize(s.value))
	}
	if decodeErr != nil {
		fmt.Fprintf(stdout, "\nfailed at offset %d\n", consumed)
		return decodeErr
	}
	if rest := int64(len(data)) - consumed; rest > 0 {
		fmt.Fprintf(stdout, "\n%d trailing bytes at offset %d\n", rest, consumed)
	}
	return nil
}

func runVerify(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		t            target
		compressName string
	)
	fs := pflag.NewFlagSet("verify", pflag.ContinueOnError)
	t.AddFlags(fs)
	fs.StringVarP(&compressName, "compress", "z", "auto", "input compression: none, zstd, lz4 or auto")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}

	path, err := inputArg(fs)
	if err != nil {
		return err
	}
	l, err := t.load()
	if err != nil {
		return err
	}
	defer l.close()

	data, err := readInput(path, compressName, stdin)
	if err != nil {
		return err
	}

	r := wire.NewReader(bytes.NewReader(data))
	v, err := transcoder.NewDecoder().DecodeAt(r, l.ct, l.ctx)
	if err != nil {
		return err
	}
	if rest := int64(len(data)) - r.Position(); rest > 0 {
		return fmt.Errorf("%d trailing bytes after %s", rest, l.name)
	}

	encoded, err := transcoder.NewEncoder().Marshal(l.ct, v.Interface(), l.ctx)
	if err != nil {
		return err
	}
	size := transcoder.Sizer{}.SizeValue(l.ct, v)

	inSum := blake3.Sum256(data)
	outSum := blake3.Sum256(encoded)
	fmt.Fprintf(stdout, "%-8s %6d bytes  blake3 %s\n", "input", len(data), hex.EncodeToString(inSum[:]))
	fmt.Fprintf(stdout, "%-8s %6d bytes  blake3 %s\n", "encoded", len(encoded), hex.EncodeToString(outSum[:]))
	fmt.Fprintf(stdout, "%-8s %6d bytes\n", "size", size)

	if size != len(encoded) {
		return fmt.Errorf("computed size %d does not match encoded length %d", size, len(encoded))
	}
	if inSum != outSum {
		return fmt.Errorf("re-encoded bytes differ from input at offset %d", firstDiff(data, encoded))
	}
	fmt.Fprintln(stdout, "ok")
	return nil
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func runTypes(args []string, _ io.Reader, stdout io.Writer) error {
	var (
		schemaPath string
		verbose    bool
	)
	fs := pflag.NewFlagSet("types", pflag.ContinueOnError)
	fs.StringVarP(&schemaPath, "schema", "s", "", "schema document (YAML)")
	fs.BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	if ok, err := parseFlags(fs, args); !ok {
		return err
	}
	if schemaPath == "" {
		return fmt.Errorf("--schema is required")
	}

	log, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	transcoder.SetLogger(log)
	schemafile.SetLogger(log)

	doc, err := schemafile.Load(schemaPath)
	if err != nil {
		return err
	}

	compiler := transcoder.NewCompiler()
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TYPE", "SHAPE", "MEMBERS", "SIZE")
	for _, name := range doc.Names() {
		s, _ := doc.Type(name)
		members := len(s.Fields)
		if s.IsSum() {
			members = len(s.Variants)
		}
		tbl.Row(name, s.Shape.String(), strconv.Itoa(members), staticSize(compiler, s, doc.Order))
	}
	_, err = fmt.Fprintln(stdout, tbl.String())
	return err
}

func staticSize(c *transcoder.Compiler, s *schema.Schema, order wire.Order) string {
	goType, err := transcoder.Synthesize(s)
	if err != nil {
		return "n/a"
	}
	ct, err := c.CompileOrdered(s, goType, order)
	if err != nil {
		return "error"
	}
	if !ct.HasStaticSize() {
		return "variable"
	}
	return strconv.Itoa(ct.StaticSize)
}

// summarize renders v on one line.
func summarize(v reflect.Value) string {
	if !v.IsValid() {
		return "-"
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return summarize(v.Elem())
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return hexPreview(v.Bytes())
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Array:
		return fmt.Sprintf("[%d]", v.Len())
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Struct:
		switch x := v.Interface().(type) {
		case wire.Uint128:
			return fmt.Sprintf("0x%016x%016x", x.Hi, x.Lo)
		case wire.Int128:
			return fmt.Sprintf("0x%016x%016x", x.Hi, x.Lo)
		}
		if name, ok := activeVariant(v); ok {
			return name
		}
		return fmt.Sprintf("{%d fields}", v.NumField())
	}
	return fmt.Sprint(v.Interface())
}

// activeVariant returns the name of the one set variant of a synthesized
// sum value.
func activeVariant(v reflect.Value) (string, bool) {
	name, found := "", false
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Kind() != reflect.Pointer {
			return "", false
		}
		if f.IsNil() {
			continue
		}
		if found {
			return "", false
		}
		name, found = v.Type().Field(i).Tag.Get("plod"), true
	}
	return name, found
}

func hexPreview(b []byte) string {
	const limit = 16
	if len(b) <= limit {
		return fmt.Sprintf("%d bytes %x", len(b), b)
	}
	return fmt.Sprintf("%d bytes %x...", len(b), b[:limit])
}
