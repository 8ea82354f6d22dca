package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textdet-labels/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// EnvLogLevel selects the logrus level (debug, info, warn, error).
const EnvLogLevel = "DETLABEL_LOG_LEVEL"

func usage() {
	fmt.Println("detlabel - text detection label generator")
	fmt.Println()
	fmt.Println("Usage: detlabel [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    YAML config (defaults are used when omitted)")
	fmt.Println("  --out DIR        Output root; each run writes into DIR/<run-id>/ (default ./out)")
	fmt.Println("  --count N        Number of samples to render, 0 for all (default 0)")
	fmt.Println("  --workers N      Parallel workers (default number of CPUs)")
	fmt.Println("  --overlay        Also write the shrink map blended over the image")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug     Enable debug logging\n", EnvLogLevel)
	fmt.Printf("  %s=DIR        Override dataset.dir\n", config.EnvDataDir)
	fmt.Printf("  %s=N              Override dataset.seed\n", config.EnvSeed)
}

func main() {
	// Handle --version and --help before flag parsing
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("detlabel %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	log := newLogger(os.Getenv(EnvLogLevel))

	fs := flag.NewFlagSet("detlabel", flag.ExitOnError)
	fs.Usage = usage
	configPath := fs.String("config", "", "")
	out := fs.String("out", "./out", "")
	count := fs.Int("count", 0, "")
	workers := fs.Int("workers", runtime.NumCPU(), "")
	overlay := fs.Bool("overlay", false, "")
	_ = fs.Parse(os.Args[1:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	log.WithFields(logrus.Fields{
		"version": Version,
		"commit":  GitCommit,
	}).Debug("detlabel starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, runOptions{
		Config:  cfg,
		Out:     *out,
		Count:   *count,
		Workers: *workers,
		Overlay: *overlay,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("Run failed")
	}
	log.WithFields(logrus.Fields{
		"run_id":  summary.RunID,
		"dir":     summary.Dir,
		"samples": summary.Samples,
		"files":   summary.Files,
	}).Info("Run complete")
}

// newLogger logs text to stderr at the requested level, info by default.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetLevel(logrus.InfoLevel)
	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			log.SetLevel(lvl)
		} else {
			log.WithField("level", level).Warn("Unknown log level, using info")
		}
	}
	return log
}

// loadConfig reads path, or starts from the defaults when path is empty.
// Environment overrides apply either way.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
