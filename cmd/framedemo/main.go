// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command framedemo runs one of the tutorial samples through the frame
// scheduler and optionally saves the last presented frame as a PNG.
//
// Usage:
//
//	framedemo -sample stencil -backend soft -frames 240 -buffers 3 -latency 5ms -out stencil.png
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/framepace"
	"github.com/gogpu/framepace/backend"
	_ "github.com/gogpu/framepace/backend/native"
	"github.com/gogpu/framepace/backend/soft"
	"github.com/gogpu/framepace/gpucore"
	"github.com/gogpu/framepace/platform"
	"github.com/gogpu/framepace/sample"
	"github.com/gogpu/framepace/scheduler"
)

type demo struct {
	sample  string
	backend string
	frames  int
	width   int
	height  int
	output  string
	scale   int
}

func main() {
	var (
		d       demo
		buffers = flag.Int("buffers", framepace.DefaultBufferCount, "frames in flight")
		latency = flag.Duration("latency", 0, "simulated GPU time per submission (soft backend)")
		timeout = flag.Duration("timeout", 0, "fence wait timeout, 0 waits forever")
		verbose = flag.Bool("v", false, "enable debug logging")
	)
	flag.StringVar(&d.sample, "sample", "cube", "sample to run: "+strings.Join(sample.Names(), ", "))
	flag.StringVar(&d.backend, "backend", "", "backend to use (default: best available)")
	flag.IntVar(&d.frames, "frames", 120, "number of frames to render, 0 until interrupted")
	flag.IntVar(&d.width, "width", 320, "back-buffer width")
	flag.IntVar(&d.height, "height", 240, "back-buffer height")
	flag.StringVar(&d.output, "out", "", "write the last presented frame to this PNG (soft backend)")
	flag.IntVar(&d.scale, "scale", 1, "PNG upscale factor")
	flag.Parse()

	if *verbose {
		framepace.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}
	if *latency > 0 {
		backend.Register(backend.BackendSoft, func() backend.Backend {
			return soft.New(soft.WithLatency(*latency))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := framepace.NewConfig(
		framepace.WithBufferCount(*buffers),
		framepace.WithWaitTimeout(*timeout),
		framepace.WithLabel(d.sample),
	)
	if err := d.run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

func (d *demo) open(cfg framepace.Config) (backend.Backend, gpucore.Device, gpucore.SwapChain, error) {
	if d.backend == "" {
		return backend.OpenDefault(cfg, d.width, d.height)
	}
	return backend.Open(d.backend, cfg, d.width, d.height)
}

func (d *demo) run(ctx context.Context, cfg framepace.Config) error {
	s, err := sample.New(d.sample)
	if err != nil {
		return err
	}
	b, dev, swap, err := d.open(cfg)
	if err != nil {
		return err
	}
	defer dev.Destroy()
	defer swap.Destroy()

	sched, err := scheduler.Open(dev, swap, cfg)
	if err != nil {
		return err
	}
	pc := platform.New(fmt.Sprintf("framedemo: %s (%s)", s.Name(), b.Name()), d.width, d.height)
	st, err := sample.Run(ctx, s, sched, pc, sample.WithMaxFrames(d.frames))
	printStats(pc.Title(), st, pc)
	if err != nil {
		return err
	}

	if d.output == "" {
		return nil
	}
	sc, ok := swap.(*soft.SwapChain)
	if !ok {
		return fmt.Errorf("-out needs the %s backend, have %s", backend.BackendSoft, b.Name())
	}
	if err := savePNG(d.output, sc.Front(), d.scale); err != nil {
		return err
	}
	log.Printf("Frame saved to %s", d.output)
	return nil
}

func savePNG(path string, src *image.RGBA, scale int) error {
	img := src
	if scale > 1 {
		b := src.Bounds()
		img = image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		xdraw.NearestNeighbor.Scale(img, img.Bounds(), src, b, xdraw.Src, nil)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printStats(title string, st scheduler.Stats, pc *platform.Context) {
	p := message.NewPrinter(language.English)
	p.Printf("%s: %d frames, %d blocking waits, %d submit failures, %d present failures, fence %d/%d\n",
		title, st.Frames, st.BlockingWaits, st.SubmitFailures, st.PresentFailures, st.Completed, st.Signaled)
	if n := pc.Dropped(); n > 0 {
		p.Printf("%d input events dropped\n", n)
	}
}
