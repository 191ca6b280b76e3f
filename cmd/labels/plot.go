package main

import (
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Noofbiz/openbot/datasets"
)

const (
	scatterFile = "labels_scatter.png"
	histFile    = "command_hist.png"
)

// plotLabels writes two PNGs to outDir: normalized throttle vs steering for
// every frame, and a histogram of the command values.
func plotLabels(outDir string, src datasets.LabelSource) error {
	if src.Len() == 0 {
		return errors.New("no frames to plot")
	}
	batch, err := src.Lookup(src.Keys())
	if err != nil {
		return err
	}

	xys := make(plotter.XYs, batch.BatchSize)
	cmds := make(plotter.Values, batch.BatchSize)
	for i := range batch.BatchSize {
		label := batch.Label(i)
		xys[i].X = float64(label[0])
		xys[i].Y = float64(label[1])
		cmds[i] = float64(batch.Cmds[i])
	}

	if err := ensureDir(outDir); err != nil {
		return err
	}
	if err := plotScatter(filepath.Join(outDir, scatterFile), xys); err != nil {
		return err
	}
	return plotCommands(filepath.Join(outDir, histFile), cmds)
}

func plotScatter(path string, xys plotter.XYs) error {
	p := plot.New()
	p.Title.Text = "Labels: throttle vs steering (normalized)"
	p.X.Label.Text = "throttle"
	p.Y.Label.Text = "steering"

	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{R: 20, G: 80, B: 200, A: 160}
	sc.GlyphStyle.Radius = vg.Points(1.8)
	p.Add(sc)
	p.Add(plotter.NewGrid())

	xmin, xmax, ymin, ymax := autoRange(xys)
	p.X.Min = xmin
	p.X.Max = xmax
	p.Y.Min = ymin
	p.Y.Max = ymax

	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}

func plotCommands(path string, cmds plotter.Values) error {
	p := plot.New()
	p.Title.Text = "Command values"
	p.X.Label.Text = "cmd"
	p.Y.Label.Text = "frames"

	bins := 16
	if len(cmds) < bins {
		bins = len(cmds)
	}
	h, err := plotter.NewHist(cmds, bins)
	if err != nil {
		return err
	}
	h.FillColor = color.RGBA{R: 200, G: 30, B: 30, A: 180}
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// autoRange computes padded min/max for X and Y for a set of points.
func autoRange(xs plotter.XYs) (xmin, xmax, ymin, ymax float64) {
	if len(xs) == 0 {
		return -1, 1, -1, 1
	}
	xmin, xmax = math.Inf(1), math.Inf(-1)
	ymin, ymax = math.Inf(1), math.Inf(-1)
	for _, p := range xs {
		xmin = math.Min(xmin, p.X)
		xmax = math.Max(xmax, p.X)
		ymin = math.Min(ymin, p.Y)
		ymax = math.Max(ymax, p.Y)
	}
	padx := (xmax - xmin) * 0.06
	pady := (ymax - ymin) * 0.06
	if padx == 0 {
		padx = 0.1
	}
	if pady == 0 {
		pady = 0.1
	}
	return xmin - padx, xmax + padx, ymin - pady, ymax + pady
}

func ensureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
