package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/funvibe/blockjit/internal/backend"
	"github.com/funvibe/blockjit/internal/config"
	"github.com/funvibe/blockjit/internal/pipeline"
	"github.com/mattn/go-isatty"
)

// BackendType determines the default execution backend.
// Can be set at build time using: -ldflags "-X main.BackendType=sequential"
var BackendType = "scheduler"

const usage = `Usage: blockc <command> [flags] <program.yaml>

Commands:
  run     build and execute every script
  check   build only and report diagnostics
  dump    print instruction listings with analyzed types and compiled blocks

Flags:
  -options <file>   options file (default: blockc.yaml next to the program)
  -backend <name>   scheduler or sequential
  -seed <n>         random seed
  -ticks <n>        scheduler slice budget
  -script <name>    run only this script (repeatable)
  -warp             compile every function without suspend points
  -color <mode>     auto, always or never
`

type cliArgs struct {
	command   string
	path      string
	options   string
	backend   string
	overrides []func(*config.Options)
}

func parseArgs(args []string) (*cliArgs, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("missing command")
	}
	a := &cliArgs{command: args[0], backend: BackendType}
	switch a.command {
	case "run", "check", "dump":
	default:
		return nil, fmt.Errorf("unknown command %q", a.command)
	}

	rest := args[1:]
	value := func(i int, flag string) (string, error) {
		if i+1 >= len(rest) {
			return "", fmt.Errorf("flag %s needs a value", flag)
		}
		return rest[i+1], nil
	}
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		if !strings.HasPrefix(arg, "-") {
			if a.path != "" {
				return nil, fmt.Errorf("unexpected argument %q", arg)
			}
			a.path = arg
			continue
		}
		flag := "-" + strings.TrimLeft(arg, "-")
		if flag == "-warp" {
			a.overrides = append(a.overrides, func(o *config.Options) { o.ForceWarp = true })
			continue
		}
		v, err := value(i, flag)
		if err != nil {
			return nil, err
		}
		i++
		switch flag {
		case "-options":
			a.options = v
		case "-backend":
			a.backend = v
		case "-seed":
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid seed %q", v)
			}
			a.overrides = append(a.overrides, func(o *config.Options) { o.Seed = n })
		case "-ticks":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid tick count %q", v)
			}
			a.overrides = append(a.overrides, func(o *config.Options) { o.Ticks = n })
		case "-script":
			a.overrides = append(a.overrides, func(o *config.Options) { o.Scripts = append(o.Scripts, v) })
		case "-color":
			a.overrides = append(a.overrides, func(o *config.Options) { o.Color = v })
		default:
			return nil, fmt.Errorf("unknown flag %s", arg)
		}
	}
	if a.path == "" {
		return nil, fmt.Errorf("missing program file")
	}
	return a, nil
}

// loadOptions reads the options file given on the command line or found
// next to the program, then applies command-line overrides.
func loadOptions(a *cliArgs) (*config.Options, error) {
	path := a.options
	if path == "" {
		found, err := config.FindOptions(filepath.Dir(a.path))
		if err != nil {
			return nil, err
		}
		path = found
	}

	opts := config.DefaultOptions()
	if path != "" {
		loaded, err := config.LoadOptions(path)
		if err != nil {
			return nil, err
		}
		opts = loaded
	}
	for _, o := range a.overrides {
		o(opts)
	}
	switch opts.Color {
	case config.ColorAuto, config.ColorAlways, config.ColorNever:
	default:
		return nil, fmt.Errorf("invalid color mode %q", opts.Color)
	}
	if a.command == "dump" {
		opts.Dump = true
	}
	return opts, nil
}

func useColor(mode string, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func paint(on bool, code, s string) string {
	if !on {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func printDiagnostics(w io.Writer, ctx *pipeline.PipelineContext, color bool) {
	for _, err := range ctx.Errors {
		fmt.Fprintf(w, "- %s\n", paint(color, "31", err.Error()))
	}
}

func printReport(w io.Writer, ctx *pipeline.PipelineContext, color bool) {
	r := ctx.Report
	fmt.Fprintf(w, "%s: %d ticks\n", r.Backend, r.Ticks)
	for _, c := range r.Contexts {
		state := paint(color, "32", "finished")
		if !c.Finished {
			state = paint(color, "33", "killed")
		}
		fmt.Fprintf(w, "  %-16s on %-10s %s  suspends=%d resumes=%d list-refreshes=%d list-invalidations=%d  [%s]\n",
			c.Script, c.Target, state, c.Stats.Suspends, c.Stats.Resumes, c.Stats.ListRefreshes, c.Stats.ListInvalidations, c.ID)
	}

	proj := ctx.Built.Project
	targets := append([]string{""}, proj.Sprites()...)
	for _, name := range targets {
		t := proj.Owner(name)
		for _, v := range t.Variables {
			fmt.Fprintf(w, "%s.%s = %s\n", t.Name, v.Name, v.Value.Inspect())
		}
		for _, l := range t.Lists {
			fmt.Fprintf(w, "%s.%s = [%d items]\n", t.Name, l.Name, l.Size())
		}
	}
}

func run(args []string, stdout, stderr *os.File) int {
	a, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n\n%s", err, usage)
		return 2
	}
	opts, err := loadOptions(a)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	color := useColor(opts.Color, stderr)

	ctx := pipeline.NewPipelineContext(a.path, opts)
	ctx = pipeline.Build().Run(ctx)

	if opts.Dump && ctx.Program != nil {
		dump(stdout, ctx)
	}
	if a.command == "run" {
		b, err := backend.New(a.backend)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 2
		}
		ctx = backend.NewExecutionProcessor(b).Process(ctx)
	}

	printDiagnostics(stderr, ctx, color)
	if ctx.Report != nil {
		printReport(stdout, ctx, useColor(opts.Color, stdout))
	}
	if len(ctx.Errors) > 0 {
		return 1
	}
	return 0
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "-help", "--help", "help":
			fmt.Print(usage)
			return
		}
	}
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
