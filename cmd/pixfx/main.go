// Command pixfx inspects and exercises the pixfx effects backends.
//
// Usage:
//
//	pixfx status  [flags]              show which backend loads
//	pixfx bench   [flags]              time the effects batch
//	pixfx apply   -in IMG -out PNG     apply effects to an image file
//	pixfx history [-n N]               list recorded benchmark runs
//
// Settings come from a .env file, an optional YAML file (-config) and
// PIXFX_* environment variables; flags override all of them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/goldstar105000117/pixfx/gpu" // registers the GPU engine
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if code := exitCode(run(ctx, os.Args[1:], os.Stdout, os.Stderr), os.Stderr); code != 0 {
		stop()
		os.Exit(code)
	}
}

// exitCode reports err on stderr and maps it to a process status. A help
// request has already printed its usage and succeeds.
func exitCode(err error, stderr io.Writer) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(stderr, "pixfx: %v\n", err)
	return 1
}

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"status", "show which backend loads and why", runStatus},
	{"bench", "time the effects batch on a synthetic frame", runBench},
	{"apply", "apply effects to an image file", runApply},
	{"history", "list recorded benchmark runs", runHistory},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return errors.New("missing command")
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			a := &app{name: cmd.name, stdout: stdout, stderr: stderr}
			return cmd.run(ctx, a, args[1:])
		}
	}
	usage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: pixfx <command> [flags]")
	fmt.Fprintln(w)
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'pixfx <command> -h' for command flags.")
}
