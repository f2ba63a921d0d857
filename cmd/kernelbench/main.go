// Copyright ©2024 The GUDA Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command kernelbench measures baseline and optimized kernel variants and
// prints how much faster the optimized one is.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/LynnColeArt/kernelbench"
	"github.com/LynnColeArt/kernelbench/workload"
)

type options struct {
	configPath string
	device     string
	iterations int
	warmup     int
	runs       int
	seed       int64
	logDir     string
	counters   bool
	coldCache  bool
	verbose    bool

	// newSuites builds the suites named on the command line.
	newSuites func(seed int64, names ...string) ([]workload.Suite, error)
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("kernelbench: ")

	root := newRootCommand(&options{newSuites: workload.NewSuites})
	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "kernelbench",
		Short:         "Compare baseline and optimized kernel latencies",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.logDir, "log-dir", kernelbench.DefaultLogDir, "directory for session logs")

	run := &cobra.Command{
		Use:       "run [suite...]",
		Short:     "Measure suites (all when none are named)",
		ValidArgs: workload.SuiteNames(),
		Args:      cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuites(cmd, opts, args)
		},
	}
	run.Flags().StringVar(&opts.device, "device", string(kernelbench.DeviceAuto), "device: auto, stream or host")
	run.Flags().IntVar(&opts.iterations, "iterations", kernelbench.DefaultIterations, "timed invocations per measurement")
	run.Flags().IntVar(&opts.warmup, "warmup", kernelbench.DefaultWarmup, "untimed invocations before timing")
	run.Flags().IntVar(&opts.runs, "runs", kernelbench.DefaultRuns, "measurements averaged per unit")
	run.Flags().Int64Var(&opts.seed, "seed", kernelbench.DefaultSeed, "seed for synthetic inputs")
	run.Flags().BoolVar(&opts.counters, "counters", false, "collect hardware counters (host device, Linux)")
	run.Flags().BoolVar(&opts.coldCache, "cold", false, "flush CPU caches after warm-up")
	run.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every measurement")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Print the latest recorded session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logDir := opts.logDir
			if opts.configPath != "" && !cmd.Flags().Changed("log-dir") {
				cfg, err := kernelbench.LoadConfig(opts.configPath)
				if err != nil {
					return err
				}
				logDir = cfg.LogDir
			}
			path, err := kernelbench.LatestSession(logDir)
			if err != nil {
				return err
			}
			results, err := kernelbench.LoadSession(path)
			if err != nil {
				return err
			}
			kernelbench.PrintSummary(cmd.OutOrStdout(), filepath.Base(path), results)
			return nil
		},
	}

	devices := &cobra.Command{
		Use:   "devices",
		Short: "Describe the available devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for ordinal := 0; ordinal < kernelbench.GetDeviceCount(); ordinal++ {
				dev, err := kernelbench.NewStreamDevice(ordinal, kernelbench.DefaultQueueDepth)
				if err != nil {
					fmt.Fprintf(w, "stream:%d unavailable: %v\n", ordinal, err)
					continue
				}
				printDevice(cmd, dev.Info())
				dev.Close()
			}
			printDevice(cmd, kernelbench.NewHostDevice().Info())
			fmt.Fprintln(w, kernelbench.CPUInfo())
			fmt.Fprintf(w, "FMA available: %v\n", kernelbench.HasFMA())
			return nil
		},
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the kernelbench version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v, sum := kernelbench.Version()
			if v == "" {
				v = "(devel)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(v+" "+sum))
		},
	}

	root.AddCommand(run, summary, devices, version)
	return root
}

func printDevice(cmd *cobra.Command, info kernelbench.DeviceInfo) {
	fmt.Fprintf(cmd.OutOrStdout(), "%-10s kind=%-6s cores=%d arch=%s features=%s\n",
		info.Name, info.Kind, info.NumCores, info.Arch, strings.Join(info.Features, ","))
}

// loadConfig merges the config file with the flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (kernelbench.Config, error) {
	cfg := kernelbench.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = kernelbench.LoadConfig(opts.configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("device") || opts.configPath == "" {
		cfg.Device = kernelbench.DeviceKind(opts.device)
	}
	if flags.Changed("iterations") || opts.configPath == "" {
		cfg.Iterations = opts.iterations
	}
	if flags.Changed("warmup") || opts.configPath == "" {
		cfg.Warmup = opts.warmup
	}
	if flags.Changed("runs") || opts.configPath == "" {
		cfg.Runs = opts.runs
	}
	if flags.Changed("seed") || opts.configPath == "" {
		cfg.Seed = opts.seed
	}
	if flags.Changed("log-dir") || opts.configPath == "" {
		cfg.LogDir = opts.logDir
	}
	if flags.Changed("counters") {
		cfg.Counters = opts.counters
	}
	if flags.Changed("cold") {
		cfg.ColdCache = opts.coldCache
	}
	if opts.verbose {
		cfg.Logger = log.New(cmd.ErrOrStderr(), "kernelbench: ", log.Lmicroseconds)
	}
	return cfg, cfg.Validate()
}

func runSuites(cmd *cobra.Command, opts *options, names []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	suites, err := opts.newSuites(cfg.Seed, names...)
	if err != nil {
		return err
	}

	dev, err := kernelbench.OpenDevice(cfg)
	if err != nil {
		return err
	}
	defer dev.Close()

	harness, err := kernelbench.NewHarness(dev, cfg)
	if err != nil {
		return err
	}

	recorder, err := kernelbench.NewRecorder(cfg.LogDir, "kernelbench")
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "device %s, %d iterations, %d warm-up, %d runs\n\n",
		dev.Info().Name, cfg.Iterations, cfg.Warmup, cfg.Runs)

	var comparisons []kernelbench.Comparison
	for _, s := range suites {
		c, err := s.Run(harness, cfg.Iterations, cfg.Warmup, cfg.Runs)
		if err != nil {
			log.Printf("suite %s failed: %v", s.Name, err)
			if rerr := recorder.RecordFailure(s.Name, err); rerr != nil {
				return rerr
			}
			continue
		}
		if err := recorder.RecordComparison(c); err != nil {
			return err
		}
		comparisons = append(comparisons, c)
	}

	kernelbench.PrintComparisons(w, comparisons, reportWidth())
	fmt.Fprintf(w, "session written to %s\n", recorder.Path())

	if len(comparisons) < len(suites) {
		return fmt.Errorf("%d of %d suites failed", len(suites)-len(comparisons), len(suites))
	}
	return nil
}

func reportWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return kernelbench.DefaultReportWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return kernelbench.DefaultReportWidth
	}
	return width
}
