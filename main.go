package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jcorbin/intcode/internal/flushio"
	"github.com/jcorbin/intcode/internal/image"
	"github.com/jcorbin/intcode/internal/intcode"
	"github.com/jcorbin/intcode/internal/logio"
	"github.com/jcorbin/intcode/internal/patch"
	"github.com/jcorbin/intcode/internal/pipeline"
	"github.com/pkg/errors"
)

const usage = `usage: intcode [-timeout d] [-trace] [-mem-limit n] <command> [flags] <image>

commands:
  run      run a program once, with values from -in as input
  amplify  search phase settings for the largest amplifier signal
  patch    search for a noun and verb that produce a target value

An image is a file of comma separated integers, zstd compressed if its name
ends in .zst, or "-" to read one from stdin.
`

func main() {
	log := logio.NewLogger(os.Stderr)
	cmd := command{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		log:    log,
	}
	if err := cmd.main(context.Background(), os.Args[1:]); err != nil {
		if cmd.trace {
			log.ErrorIf(err)
		} else {
			log.Errorf("%v", err)
		}
	}
	os.Exit(log.ExitCode())
}

type command struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	log    *logio.Logger

	timeout  time.Duration
	trace    bool
	memLimit uint64
}

func (cmd *command) main(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("intcode", flag.ContinueOnError)
	flags.SetOutput(cmd.stderr)
	flags.Usage = func() {
		fmt.Fprint(flags.Output(), usage)
		flags.PrintDefaults()
	}
	flags.DurationVar(&cmd.timeout, "timeout", 0, "specify a time limit")
	flags.BoolVar(&cmd.trace, "trace", false, "enable trace logging")
	flags.Uint64Var(&cmd.memLimit, "mem-limit", 0, "enable memory limit, in cells")
	if err := flags.Parse(args); err == flag.ErrHelp {
		return nil
	} else if err != nil {
		return err
	}

	args = flags.Args()
	if len(args) == 0 {
		flags.Usage()
		return errors.New("no command given")
	}

	if cmd.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.timeout)
		defer cancel()
	}

	var err error
	switch name, args := args[0], args[1:]; name {
	case "run":
		err = cmd.run(ctx, args)
	case "amplify":
		err = cmd.amplify(ctx, args)
	case "patch":
		err = cmd.patch(ctx, args)
	default:
		flags.Usage()
		err = errors.Errorf("unknown command %q", name)
	}
	if err == flag.ErrHelp {
		return nil
	}
	return err
}

func (cmd *command) subFlags(name string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(cmd.stderr)
	flags.Usage = func() {
		fmt.Fprintf(flags.Output(), "usage: intcode %v [flags] <image>\n", name)
		flags.PrintDefaults()
	}
	return flags
}

// parseSub parses sub-command flags, returning the program image named by
// the one remaining argument.
func (cmd *command) parseSub(flags *flag.FlagSet, args []string) ([]int64, error) {
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return nil, errors.Errorf("%v: expected one image argument, have %d", flags.Name(), flags.NArg())
	}
	if path := flags.Arg(0); path != "-" {
		return image.Load(path)
	}
	return image.Parse(cmd.stdin, "<stdin>")
}

func (cmd *command) engineOptions(capsName string) ([]intcode.Option, error) {
	var opts []intcode.Option
	if capsName != "" {
		caps, err := intcode.ParseCapabilities(capsName)
		if err != nil {
			return nil, err
		}
		opts = append(opts, intcode.WithCapabilities(caps))
	}
	if cmd.memLimit != 0 {
		opts = append(opts, intcode.WithMemLimit(cmd.memLimit))
	}
	if cmd.trace {
		opts = append(opts, intcode.WithLogf(cmd.log.Leveledf("TRACE")))
	}
	return opts, nil
}

func (cmd *command) logf() func(mess string, args ...interface{}) {
	if cmd.trace {
		return cmd.log.Leveledf("DEBUG")
	}
	return nil
}

func (cmd *command) run(ctx context.Context, args []string) error {
	var (
		flags    = cmd.subFlags("run")
		in       intList
		patches  patchList
		peeks    addrList
		dumpPath string
		capsName string
	)
	flags.Var(&in, "in", "comma separated input `values`")
	flags.Var(&patches, "patch", "comma separated `addr=value` memory writes to make before running")
	flags.Var(&peeks, "peek", "comma separated `addrs` whose values to print after running")
	flags.StringVar(&dumpPath, "dump", "", "write final memory to `file`, or - for stdout")
	flags.StringVar(&capsName, "caps", "", "restrict to a capability set: arithmetic, classic, or complete")
	prog, err := cmd.parseSub(flags, args)
	if err != nil {
		return err
	}

	opts, err := cmd.engineOptions(capsName)
	if err != nil {
		return err
	}
	input := intcode.Values(in)
	out := intcode.NewLineWriter(cmd.stdout)
	e, err := intcode.New(prog, append(opts,
		intcode.WithName("run"),
		intcode.WithInput(&input),
		intcode.WithOutput(out),
	)...)
	if err != nil {
		return err
	}
	for _, p := range patches {
		if err := e.Stor(p.addr, p.value); err != nil {
			return errors.Wrapf(err, "patch %d=%d", p.addr, p.value)
		}
	}

	res, err := e.Run(ctx)
	if err != nil {
		return err
	}
	if err := out.Err(); err != nil {
		return err
	}
	cmd.log.Printf("INFO", "%v after %d steps", res.State, res.Steps)

	wf := flushio.NewWriteFlusher(cmd.stdout)
	for _, addr := range peeks {
		v, err := e.Load(addr)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(wf, "%d\n", v); err != nil {
			return err
		}
	}
	if err := wf.Flush(); err != nil {
		return err
	}

	if dumpPath == "" {
		return nil
	}
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	if dumpPath == "-" {
		return image.Write(cmd.stdout, snap)
	}
	return image.Save(dumpPath, snap)
}

func (cmd *command) amplify(ctx context.Context, args []string) error {
	var (
		flags    = cmd.subFlags("amplify")
		settings = intList{0, 1, 2, 3, 4}
		once     bool
		ring     bool
		capsName string
		cfg      pipeline.Config
	)
	flags.Var(&settings, "settings", "comma separated phase `values`, one per amplifier")
	flags.BoolVar(&once, "once", false, "run the given settings only, rather than every permutation")
	flags.BoolVar(&ring, "ring", false, "feed the last amplifier back into the first")
	flags.Int64Var(&cfg.Seed, "seed", 0, "initial signal")
	flags.IntVar(&cfg.Workers, "workers", 0, "maximum concurrent pipelines; default GOMAXPROCS")
	flags.BoolVar(&cfg.SkipFailures, "skip-failures", false, "leave failed permutations out, rather than aborting")
	flags.StringVar(&capsName, "caps", "", "restrict to a capability set: arithmetic, classic, or complete")
	prog, err := cmd.parseSub(flags, args)
	if err != nil {
		return err
	}

	if ring {
		cfg.Topology = pipeline.Ring
	}
	if cfg.Options, err = cmd.engineOptions(capsName); err != nil {
		return err
	}
	cfg.Logf = cmd.logf()

	if once {
		v, err := pipeline.Run(ctx, prog, settings, cfg)
		if err != nil {
			return err
		}
		return cmd.print(v)
	}

	best, err := pipeline.Search(ctx, prog, settings, cfg)
	if err != nil {
		return err
	}
	cmd.log.Printf("INFO", "best %v settings %v of %d tried, %d failed",
		cfg.Topology, intList(best.Settings), best.Trials, best.Failed)
	return cmd.print(best.Value)
}

func (cmd *command) patch(ctx context.Context, args []string) error {
	var (
		flags    = cmd.subFlags("patch")
		addrs    = addrList{1, 2}
		bounds   = rangeFlag{0, 99}
		capsName string
		cfg      patch.Config
	)
	flags.Int64Var(&cfg.Target, "target", 19690720, "value to find at address 0")
	flags.Var(&bounds, "range", "inclusive `lo:hi` range of noun and verb values")
	flags.Var(&addrs, "addrs", "the noun and verb `addrs`")
	flags.IntVar(&cfg.Workers, "workers", 0, "maximum concurrent candidates; default GOMAXPROCS")
	flags.StringVar(&capsName, "caps", "arithmetic", "capability set: arithmetic, classic, or complete")
	prog, err := cmd.parseSub(flags, args)
	if err != nil {
		return err
	}

	cfg.Addrs = addrs
	cfg.Range = &patch.Range{Lo: bounds.lo, Hi: bounds.hi}
	if cfg.Options, err = cmd.engineOptions(capsName); err != nil {
		return err
	}
	cfg.Logf = cmd.logf()

	m, err := patch.Find(ctx, prog, cfg)
	if err != nil {
		return err
	}
	cmd.log.Printf("INFO", "noun %d verb %d", m.Noun, m.Verb)
	return cmd.print(m.Answer())
}

func (cmd *command) print(v int64) error {
	_, err := io.WriteString(cmd.stdout, strconv.FormatInt(v, 10)+"\n")
	return err
}
