// geodoc converts geometry documents between encodings and keeps them in a
// Bolt database.
//
//	geodoc convert --from json --to cbor [--type pose] [in [out]]
//	geodoc dump [--from yaml] [--type pose] [in]
//	geodoc put --db poses.db --type pose key [in]
//	geodoc get --db poses.db --type pose [--to json] key
//	geodoc keys --db poses.db --type pose
//	geodoc delete --db poses.db --type pose key
//	geodoc inspect --db poses.db [--stats]
//
// Input and output default to stdin and stdout; "-" means the same. The input
// encoding is guessed from the file extension when --from is not given.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/andreyvit/geodoc"
	"github.com/andreyvit/geodoc/geom"
	"github.com/andreyvit/geodoc/kvo"
	"github.com/spf13/pflag"
)

var errUsage = errors.New("usage")

type env struct {
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
	verbose bool
	reg     *geodoc.Registry
}

type command struct {
	name    string
	usage   string
	summary string
	flags   func(fs *pflag.FlagSet)
	run     func(e *env, args []string) error
}

var commands []*command

func init() {
	commands = []*command{
		{name: "convert", usage: "[in [out]]", summary: "re-encode a document", flags: convertFlags, run: runConvert},
		{name: "dump", usage: "[in]", summary: "print a document tree and its fingerprint", flags: dumpFlags, run: runDump},
		{name: "put", usage: "key [in]", summary: "store a document in the database", flags: putFlags, run: runPut},
		{name: "get", usage: "key", summary: "print a stored document", flags: getFlags, run: runGet},
		{name: "keys", usage: "", summary: "list stored keys", flags: dbFlags, run: runKeys},
		{name: "delete", usage: "key", summary: "delete a stored document", flags: dbFlags, run: runDelete},
		{name: "inspect", usage: "", summary: "print everything in the database", flags: inspectFlags, run: runInspect},
	}
}

func main() {
	err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, errUsage) {
		os.Exit(2)
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "geodoc: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	cmd := findCommand(args[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "geodoc: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return errUsage
	}

	fs := pflag.NewFlagSet("geodoc "+cmd.name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: geodoc %s [flags] %s\n\n%s.\n\nFlags:\n", cmd.name, cmd.usage, cmd.summary)
		fs.PrintDefaults()
	}
	verbose := fs.BoolP("verbose", "v", false, "log debugging details to stderr")
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return errUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	e := &env{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger,
		verbose: *verbose,
		reg: geom.NewRegistry(geodoc.RegistryOpts{
			Logf: func(format string, args ...any) {
				logger.Debug(fmt.Sprintf(format, args...))
			},
		}),
	}
	return cmd.run(e, fs.Args())
}

func findCommand(name string) *command {
	for _, cmd := range commands {
		if cmd.name == name {
			return cmd
		}
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "Usage: geodoc <command> [flags] [args]\n\nCommands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintf(w, "\nRun geodoc <command> --help for the flags of a command.\n")
}

func encodingNames() string {
	var names []string
	for _, enc := range geodoc.Encodings() {
		names = append(names, enc.String())
	}
	return strings.Join(names, ", ")
}

func adapterNames(reg *geodoc.Registry) string {
	var names []string
	for _, a := range reg.Adapters() {
		names = append(names, a.Name())
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func (e *env) adapter(name string) (geodoc.AnyAdapter, error) {
	if name == "" {
		return nil, fmt.Errorf("--type is required (one of %s)", adapterNames(e.reg))
	}
	a := e.reg.AdapterNamed(name)
	if a == nil {
		return nil, fmt.Errorf("unknown type %q (one of %s)", name, adapterNames(e.reg))
	}
	return a, nil
}

// canonicalize decodes n as the named type and encodes the result back, so
// that extra keys are dropped and malformed documents are rejected.
func (e *env) canonicalize(typeName string, n *kvo.Node) (*kvo.Node, error) {
	if typeName == "" {
		return n, nil
	}
	a, err := e.adapter(typeName)
	if err != nil {
		return nil, err
	}
	v, err := a.DecodeAny(n)
	if err != nil {
		return nil, err
	}
	return a.EncodeAny(v)
}

func (e *env) readDocument(path, from string) (*kvo.Node, error) {
	enc, err := inputEncoding(path, from)
	if err != nil {
		return nil, err
	}
	var data []byte
	if path == "" || path == "-" {
		data, err = io.ReadAll(e.stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	e.logger.Debug("read input", "path", path, "encoding", enc, "size", len(data))
	return enc.Unmarshal(data)
}

func (e *env) writeDocument(path string, enc geodoc.Encoding, n *kvo.Node) error {
	data, err := enc.Marshal(n)
	if err != nil {
		return err
	}
	if enc.IsText() && (len(data) == 0 || data[len(data)-1] != '\n') {
		data = append(data, '\n')
	}
	if path == "" || path == "-" {
		_, err = e.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0666)
}

func inputEncoding(path, from string) (geodoc.Encoding, error) {
	if from != "" {
		return geodoc.ParseEncoding(from)
	}
	if enc, ok := geodoc.EncodingForPath(path); ok {
		return enc, nil
	}
	return geodoc.JSON, nil
}

func (e *env) openStore(path string) (*geodoc.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("--db is required")
	}
	return geodoc.OpenStore(path, e.reg, geodoc.StoreOptions{
		Logger:  e.logger,
		Verbose: e.verbose,
	})
}

func maxArgs(args []string, n int) error {
	if len(args) > n {
		return fmt.Errorf("unexpected argument: %s", args[n])
	}
	return nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

var (
	fromFlag  string
	toFlag    string
	typeFlag  string
	dbFlag    string
	statsFlag bool
)

func convertFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&fromFlag, "from", "f", "", "input encoding: "+encodingNames())
	fs.StringVarP(&toFlag, "to", "t", "json", "output encoding: "+encodingNames())
	fs.StringVar(&typeFlag, "type", "", "validate and canonicalize the document as this type")
}

func dumpFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&fromFlag, "from", "f", "", "input encoding: "+encodingNames())
	fs.StringVar(&typeFlag, "type", "", "validate and canonicalize the document as this type")
}

func dbFlags(fs *pflag.FlagSet) {
	fs.StringVar(&dbFlag, "db", "", "database file")
	fs.StringVar(&typeFlag, "type", "", "document type")
}

func putFlags(fs *pflag.FlagSet) {
	dbFlags(fs)
	fs.StringVarP(&fromFlag, "from", "f", "", "input encoding: "+encodingNames())
}

func getFlags(fs *pflag.FlagSet) {
	dbFlags(fs)
	fs.StringVarP(&toFlag, "to", "t", "json", "output encoding: "+encodingNames())
}

func inspectFlags(fs *pflag.FlagSet) {
	fs.StringVar(&dbFlag, "db", "", "database file")
	fs.BoolVar(&statsFlag, "stats", false, "include storage statistics")
}

func runConvert(e *env, args []string) error {
	if err := maxArgs(args, 2); err != nil {
		return err
	}
	to, err := geodoc.ParseEncoding(toFlag)
	if err != nil {
		return err
	}
	n, err := e.readDocument(arg(args, 0), fromFlag)
	if err != nil {
		return err
	}
	n, err = e.canonicalize(typeFlag, n)
	if err != nil {
		return err
	}
	return e.writeDocument(arg(args, 1), to, n)
}

func runDump(e *env, args []string) error {
	if err := maxArgs(args, 1); err != nil {
		return err
	}
	n, err := e.readDocument(arg(args, 0), fromFlag)
	if err != nil {
		return err
	}
	n, err = e.canonicalize(typeFlag, n)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.stdout, "%s\nfingerprint %016x\n", n.Dump(), kvo.Fingerprint(n))
	return err
}

func runPut(e *env, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing key")
	}
	if err := maxArgs(args, 2); err != nil {
		return err
	}
	a, err := e.adapter(typeFlag)
	if err != nil {
		return err
	}
	n, err := e.readDocument(arg(args, 1), fromFlag)
	if err != nil {
		return err
	}
	v, err := a.DecodeAny(n)
	if err != nil {
		return err
	}

	store, err := e.openStore(dbFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	changed, err := store.Put(args[0], v)
	if err != nil {
		return err
	}
	if changed {
		e.logger.Info("stored", "type", a.Name(), "key", args[0])
	} else {
		e.logger.Info("unchanged", "type", a.Name(), "key", args[0])
	}
	return nil
}

func runGet(e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one key")
	}
	a, err := e.adapter(typeFlag)
	if err != nil {
		return err
	}
	to, err := geodoc.ParseEncoding(toFlag)
	if err != nil {
		return err
	}

	store, err := e.openStore(dbFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Document(a.Name(), args[0])
	if err != nil {
		return err
	}
	if n == nil {
		return fmt.Errorf("%s %q not found", a.Name(), args[0])
	}
	n, err = e.canonicalize(a.Name(), n)
	if err != nil {
		return err
	}
	return e.writeDocument("", to, n)
}

func runKeys(e *env, args []string) error {
	if err := maxArgs(args, 0); err != nil {
		return err
	}
	a, err := e.adapter(typeFlag)
	if err != nil {
		return err
	}
	store, err := e.openStore(dbFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	keys, err := store.Keys(a.Name())
	if err != nil {
		return err
	}
	for _, k := range keys {
		fmt.Fprintln(e.stdout, k)
	}
	return nil
}

func runDelete(e *env, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one key")
	}
	a, err := e.adapter(typeFlag)
	if err != nil {
		return err
	}
	store, err := e.openStore(dbFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	found, err := store.Delete(a.Name(), args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s %q not found", a.Name(), args[0])
	}
	return nil
}

func runInspect(e *env, args []string) error {
	if err := maxArgs(args, 0); err != nil {
		return err
	}
	store, err := e.openStore(dbFlag)
	if err != nil {
		return err
	}
	defer store.Close()

	flags := geodoc.DumpBucketHeaders | geodoc.DumpValues
	if statsFlag {
		flags |= geodoc.DumpStats
	}
	out, err := store.Dump(flags)
	if err != nil {
		return err
	}
	_, err = io.WriteString(e.stdout, out)
	return err
}
