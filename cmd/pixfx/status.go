package main

import (
	"context"
	"fmt"

	"github.com/goldstar105000117/pixfx"
)

func runStatus(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet()
	if err := a.setup(fs, args, nil); err != nil {
		return err
	}
	defer a.close()

	c := a.newContext()
	defer c.Close()

	st, err := c.Load(ctx)
	a.header("pixfx backend")
	fmt.Fprintf(a.stdout, "  %-10s ", "status")
	statusColor(st).Fprintln(a.stdout, st)

	if name := c.EngineName(); name != "" {
		fmt.Fprintf(a.stdout, "  %-10s %s\n", "engine", name)
	}
	fmt.Fprintf(a.stdout, "  %-10s %v\n", "native", pixfx.RegisteredNatives())
	if nerr := c.NativeErr(); nerr != nil {
		fmt.Fprintf(a.stdout, "  %-10s ", "reason")
		dimColor.Fprintln(a.stdout, nerr)
	}
	if lerr := c.LoadErr(); lerr != nil {
		fmt.Fprintf(a.stdout, "  %-10s ", "error")
		failColor.Fprintln(a.stdout, lerr)
	}
	return err
}
