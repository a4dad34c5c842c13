package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/goldstar105000117/pixfx/internal/config"
	"github.com/goldstar105000117/pixfx/internal/imageio"
)

func runApply(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet()
	var (
		in          = fs.String("in", "", "input image `file` (PNG, JPEG, GIF, BMP, TIFF, WebP)")
		out         = fs.String("out", "", "output PNG `file`")
		maxWidth    = fs.Int("max-width", 0, "downscale wider images to this width")
		maxHeight   = fs.Int("max-height", 0, "downscale taller images to this height")
		brightness  = fs.Float64("brightness", 1, "brightness factor, 0..3")
		contrast    = fs.Float64("contrast", 1, "contrast factor, 0..3")
		saturation  = fs.Float64("saturation", 1, "saturation factor (recorded, not applied)")
		temperature = fs.Float64("temperature", 0, "color temperature, -1 (cool) .. 1 (warm)")
		blur        = fs.Float64("blur", 0, "blur radius, 0..10 (any positive value is one pass)")
	)
	err := a.setup(fs, args, func(set map[string]bool, cfg *config.Config) {
		p := &cfg.Params
		for _, f := range []struct {
			name string
			src  *float64
			dst  *float32
		}{
			{"brightness", brightness, &p.Brightness},
			{"contrast", contrast, &p.Contrast},
			{"saturation", saturation, &p.Saturation},
			{"temperature", temperature, &p.Temperature},
			{"blur", blur, &p.BlurRadius},
		} {
			if set[f.name] {
				*f.dst = float32(*f.src)
			}
		}
	})
	if err != nil {
		return err
	}
	defer a.close()

	if *in == "" || *out == "" {
		return errors.New("apply: -in and -out are required")
	}

	img, format, err := imageio.Load(*in)
	if err != nil {
		return err
	}
	src := img.Bounds()
	img = imageio.Fit(img, *maxWidth, *maxHeight)
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	c := a.newContext()
	defer c.Close()
	proc, err := c.NewProcessor(ctx, w, h)
	if err != nil {
		return err
	}
	defer proc.Close()

	params := a.cfg.Params
	start := time.Now()
	if err := proc.ProcessImage(img, params); err != nil {
		return err
	}
	elapsed := time.Since(start)

	if err := imageio.SavePNG(*out, img); err != nil {
		return err
	}

	a.log.Debug("image processed", "in", *in, "format", format, "engine", proc.Engine(), "elapsed", elapsed)
	fmt.Fprintf(a.stdout, "%s (%s %dx%d) -> %s (%dx%d, %s)\n",
		*in, format, src.Dx(), src.Dy(), *out, w, h, humanize.Bytes(uint64(proc.BufferLen())))
	dimColor.Fprintf(a.stdout, "  engine %s, brightness %.2f contrast %.2f temperature %.2f blur %.1f, %s\n",
		proc.Engine(), params.Brightness, params.Contrast, params.Temperature, params.BlurRadius,
		elapsed.Round(time.Microsecond))
	return nil
}
