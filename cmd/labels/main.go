package main

// labels loads the driving-log labels of one or more datasets, prints a short
// summary, looks up the requested frames and optionally plots the label
// distributions.
//
// Usage:
//
//	go run ./cmd/labels -data-dir dataset -datasets train_data,test_data \
//	    -query train_data/run1/images/42_crop.jpeg -plot plots
//
// A JSON or YAML file can be given with -config; flags set explicitly on the
// command line override its values.

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	"k8s.io/klog/v2"

	"github.com/Noofbiz/openbot/config"
	"github.com/Noofbiz/openbot/datasets"
)

func main() {
	klog.InitFlags(nil)
	defer klog.Flush()

	configPath := flag.String("config", "", "path to a JSON or YAML config file (optional)")
	dataDir := flag.String("data-dir", "", "base directory holding the datasets (overrides config)")
	datasetList := flag.String("datasets", "", "comma-separated dataset folder names, read in order (overrides config)")
	scale := flag.Float64("scale", float64(datasets.DefaultLabelScale), "divisor applied to throttle and steering")
	queries := flag.String("query", "", "comma-separated frame keys to look up")
	plotDir := flag.String("plot", "", "output directory for label plots (empty disables plotting)")
	progress := flag.Bool("progress", true, "show a progress bar while reading session logs")
	printEffectiveConfig := flag.Bool("print-effective-config", false, "print the effective (file+flags) configuration and exit")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			klog.Exitf("failed to load config %s: %v", *configPath, err)
		}
		klog.Infof("Loaded config from %s", *configPath)
	}

	// Only flags the user actually set override the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "data-dir":
			cfg.DataDir = *dataDir
		case "datasets":
			cfg.Datasets = config.SplitList(*datasetList)
		case "scale":
			cfg.LabelScale = float32(*scale)
		case "query":
			cfg.Queries = config.SplitList(*queries)
		case "plot":
			cfg.PlotDir = *plotDir
		case "progress":
			cfg.Progress = *progress
		}
	})

	if *printEffectiveConfig {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			klog.Exitf("failed to encode config: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	if err := run(cfg, os.Stdout); err != nil {
		klog.Exitf("%v", err)
	}
}

// run builds the loader described by cfg and writes query results to out.
func run(cfg config.Config, out io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	sessions, err := datasets.ListSessions(cfg.DataDir, cfg.Datasets)
	if err != nil {
		return err
	}
	klog.Infof("Using data dir %s: %d datasets, %d sessions", cfg.DataDir, len(cfg.Datasets), len(sessions))

	opts := cfg.LoaderOptions()
	if cfg.Progress && len(sessions) > 0 {
		bar := pb.New(len(sessions))
		bar.Output = os.Stderr
		bar.SetRefreshRate(200 * time.Millisecond)
		bar.SetMaxWidth(80)
		bar.Prefix("sessions ")
		bar.Start()
		defer bar.Finish()
		opts = append(opts, datasets.WithSessionHook(func(datasets.SessionStats) {
			bar.Increment()
		}))
	}

	start := time.Now()
	loader, err := datasets.NewLabelLoader(cfg.DataDir, cfg.Datasets, opts...)
	if err != nil {
		return errors.Wrap(err, "failed to load labels")
	}
	nSessions, records, skipped := loader.Stats()
	klog.Infof("Loaded %d frames from %d records in %d sessions (%d short lines skipped) in %s",
		loader.Len(), records, nSessions, skipped, time.Since(start).Round(time.Millisecond))

	if err := printQueries(out, loader, cfg.Queries); err != nil {
		return err
	}

	if cfg.PlotDir != "" {
		if err := plotLabels(cfg.PlotDir, loader); err != nil {
			return errors.Wrap(err, "failed to plot labels")
		}
		klog.Infof("Wrote label plots to %s", cfg.PlotDir)
	}
	return nil
}

// printQueries writes one line per key: its command and normalized
// (throttle, steering), or "unknown frame".
func printQueries(out io.Writer, src datasets.LabelSource, keys []string) error {
	for _, key := range keys {
		cmd, label, err := src.GetLabel(key)
		if errors.Is(err, datasets.ErrUnknownFrame) {
			fmt.Fprintf(out, "%s\tunknown frame\n", key)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\tcmd=%g\tthrottle=%.4f\tsteering=%.4f\n", key, cmd, label[0], label[1])
	}
	return nil
}
