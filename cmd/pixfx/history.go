package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/goldstar105000117/pixfx/internal/store"
)

func runHistory(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet()
	limit := fs.Int("n", 20, "number of runs to show (0 for all)")
	if err := a.setup(fs, args, nil); err != nil {
		return err
	}
	defer a.close()

	s, err := store.Open(ctx, a.cfg.History.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Recent(ctx, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		dimColor.Fprintf(a.stdout, "no runs recorded in %s\n", a.cfg.History.Path)
		return nil
	}

	a.header(fmt.Sprintf("benchmark history (%s)", a.cfg.History.Path))
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tENGINE\tBACKEND\tFRAME\tITER\tTOTAL\tID")
	for _, r := range runs {
		fmt.Fprint(tw, a.printer.Sprintf("%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			humanize.Time(r.CreatedAt), r.Engine, r.Backend, fmt.Sprintf("%dx%d", r.Width, r.Height),
			r.Iterations, r.Elapsed.Round(time.Microsecond), r.ID))
	}
	return tw.Flush()
}
