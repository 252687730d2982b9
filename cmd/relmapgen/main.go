package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/syssam/relmap/internal/gen"
)

type options struct {
	Positional struct {
		Patterns []string `positional-arg-name:"pattern" description:"go package patterns, current directory if empty"`
	} `positional-args:"yes"`

	Dir       string        `short:"d" long:"dir" env:"RELMAPGEN_DIR" description:"directory patterns are resolved from"`
	TableCase string        `long:"table-case" env:"RELMAPGEN_TABLE_CASE" choice:"keep" choice:"lower" choice:"snake" default:"keep" description:"table naming style"`
	Plural    bool          `long:"plural" env:"RELMAPGEN_PLURAL" description:"pluralize table names"`
	Output    string        `short:"o" long:"output" env:"RELMAPGEN_OUTPUT" default:"relmap_schema.go" description:"generated file name"`
	Tags      []string      `long:"tags" description:"build tags"`
	Watch     bool          `short:"w" long:"watch" description:"regenerate when sources change"`
	Debounce  time.Duration `long:"debounce" default:"300ms" description:"delay before regenerating in watch mode"`

	Version bool `long:"version" description:"show version"`
	Dbg     bool `long:"dbg" description:"debug mode"`
}

var revision = "latest"

func main() {
	fmt.Printf("relmapgen %s\n", revision)

	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		os.Exit(1)
	}
	if opts.Version {
		os.Exit(0) // already printed
	}
	setupLog(opts.Dbg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, opts)
	cancel()
	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	g, err := gen.New(genOptions(opts)...)
	if err != nil {
		return fmt.Errorf("can't make generator: %w", err)
	}
	patterns := opts.Positional.Patterns
	if err := generate(ctx, g, patterns); err != nil {
		if !opts.Watch {
			return err
		}
		log.Printf("[WARN] %v", err)
	}
	if !opts.Watch {
		return nil
	}
	return watch(ctx, g, patterns, opts.Debounce)
}

func genOptions(opts options) []gen.Option {
	res := []gen.Option{gen.WithTableCase(opts.TableCase), gen.WithOutput(opts.Output)}
	if opts.Plural {
		res = append(res, gen.WithPlural())
	}
	if opts.Dir != "" {
		res = append(res, gen.WithDir(opts.Dir))
	}
	if len(opts.Tags) > 0 {
		res = append(res, gen.WithBuildTags(opts.Tags...))
	}
	return res
}

func generate(ctx context.Context, g *gen.Generator, patterns []string) error {
	st := time.Now()
	changed, err := g.Generate(ctx, patterns...)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	for _, f := range changed {
		log.Printf("[INFO] updated %s", f)
	}
	log.Printf("[DEBUG] generated in %v, %d file(s) changed", time.Since(st).Truncate(time.Millisecond), len(changed))
	return nil
}

func setupLog(dbg bool) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.CallerFile, lgr.CallerFunc}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
