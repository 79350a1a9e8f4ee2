package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/plod/schemafile"
	"github.com/wippyai/plod/transcoder"
	"github.com/wippyai/plod/wire"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type command struct {
	run     func(args []string, stdin io.Reader, stdout io.Writer) error
	name    string
	summary string
}

var commands = []command{
	{name: "decode", summary: "decode binary input and print it as json, yaml, cbor or diag", run: runDecode},
	{name: "encode", summary: "encode json, yaml or cbor input into the binary layout", run: runEncode},
	{name: "inspect", summary: "print the offset of every decoded field (-i for a browser)", run: runInspect},
	{name: "verify", summary: "decode, re-encode and compare sizes and blake3 digests", run: runVerify},
	{name: "types", summary: "list the types of a schema document", run: runTypes},
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(os.Stderr)
		return nil
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(args[1:], stdin, stdout)
		}
	}
	printUsage(os.Stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: plod <command> --schema <file.yaml> --type <name> [flags] [input]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, `Run "plod <command> --help" for the flags of a command.`)
}

// target holds the flags shared by every command that works on one type of
// a schema document.
type target struct {
	schemaPath string
	typeName   string
	order      string
	context    string
	verbose    bool
}

func (t *target) AddFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&t.schemaPath, "schema", "s", "", "schema document (YAML)")
	fs.StringVarP(&t.typeName, "type", "t", "", "type to use (default: first type of the document)")
	fs.StringVar(&t.order, "order", "", "override the document byte order: big, little or native")
	fs.StringVar(&t.context, "context", "", "initial context value (integers are passed as int64)")
	fs.BoolVarP(&t.verbose, "verbose", "v", false, "log debug output to stderr")
}

// loaded is a compiled type ready for the codec.
type loaded struct {
	ct   *transcoder.CompiledType
	log  *zap.Logger
	ctx  any
	name string
}

func (l *loaded) close() {
	_ = l.log.Sync()
}

func (t *target) load() (*loaded, error) {
	log, err := newLogger(t.verbose)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	transcoder.SetLogger(log)
	schemafile.SetLogger(log)

	if t.schemaPath == "" {
		return nil, fmt.Errorf("--schema is required")
	}
	doc, err := schemafile.Load(t.schemaPath)
	if err != nil {
		return nil, err
	}

	name := t.typeName
	if name == "" {
		names := doc.Names()
		if len(names) == 0 {
			return nil, fmt.Errorf("%s declares no types", t.schemaPath)
		}
		name = names[0]
	}
	s, ok := doc.Type(name)
	if !ok {
		return nil, fmt.Errorf("type %q not found in %s", name, t.schemaPath)
	}

	order := doc.Order
	if t.order != "" {
		o, ok := wire.ParseOrder(t.order)
		if !ok {
			return nil, fmt.Errorf("unknown byte order %q", t.order)
		}
		order = o
	}

	goType, err := transcoder.Synthesize(s)
	if err != nil {
		return nil, err
	}
	ct, err := transcoder.NewCompiler().CompileOrdered(s, goType, order)
	if err != nil {
		return nil, err
	}

	log.Debug("type ready",
		zap.String("type", name),
		zap.Stringer("go_type", goType),
		zap.Int("static_size", ct.StaticSize))

	return &loaded{ct: ct, log: log, ctx: parseContext(t.context), name: name}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return cfg.Build()
}

func parseContext(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n
	}
	return s
}

// parseFlags parses args, printing usage for --help. It returns false when
// the command should stop without error.
func parseFlags(fs *pflag.FlagSet, args []string) (bool, error) {
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// inputArg returns the single optional positional argument, "" meaning stdin.
func inputArg(fs *pflag.FlagSet) (string, error) {
	switch fs.NArg() {
	case 0:
		return "", nil
	case 1:
		return fs.Arg(0), nil
	}
	return "", fmt.Errorf("unexpected argument: %s", fs.Arg(1))
}
