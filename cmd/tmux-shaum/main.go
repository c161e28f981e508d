package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/shaum/internal/api"
	"github.com/smokyabdulrahman/shaum/internal/cache"
	"github.com/smokyabdulrahman/shaum/internal/config"
	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/geo"
	"github.com/smokyabdulrahman/shaum/internal/logger"
	"github.com/smokyabdulrahman/shaum/internal/store"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=v1.0.0"
var version = "dev"

// options are the command-line flags. Empty values fall back to the shared
// shaum configuration.
type options struct {
	format   string
	offset   int
	method   string
	offline  bool
	cacheDir string
	dbPath   string
	set      map[string]bool
}

func main() {
	var opts options

	flag.StringVar(&opts.format, "format", "", "Display format: label, short, hijri, label-and-hijri, full, or a custom Go template (e.g. '{{.ShortName}} {{.HijriDay}}'). Template fields: .Label, .Type, .ShortName, .Hijri, .HijriDay, .Month, .Date, .Forbidden, .Reason, .Nadzar, .Qadha")
	flag.IntVar(&opts.offset, "offset", 0, "Shift Hijri dates by whole days")
	flag.StringVar(&opts.method, "method", "", "Remote calendar method (HJCoSA, UAQ, DIYANET, MATHEMATICAL)")
	flag.BoolVar(&opts.offline, "offline", false, "Use the local tabular calendar only")
	flag.StringVar(&opts.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/shaum/)")
	flag.StringVar(&opts.dbPath, "db", "", "Database path (default: ~/.local/share/shaum/shaum.db)")

	showVersion := flag.Bool("version", false, "Print version and exit")
	listMethods := flag.Bool("list-methods", false, "Print supported calendar methods and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("tmux-shaum %s\n", version)
		return
	}

	if *listMethods {
		printMethods(os.Stdout)
		return
	}

	opts.set = make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if err := run(context.Background(), os.Stdout, os.Stderr, opts, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// printMethods prints the supported calendar methods.
func printMethods(w io.Writer) {
	fmt.Fprintln(w, "Supported calendar methods:")
	fmt.Fprintln(w)
	for _, m := range api.ValidMethods {
		fmt.Fprintf(w, "  %s\n", m)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Use --method <name> to select a calendar method.")
	fmt.Fprintln(w, "If omitted, one is picked from your location.")
}

// resolveConfig merges flags > SHAUM_* env > config file > defaults.
func resolveConfig(opts options) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, err
	}

	if opts.set["format"] {
		cfg.Format = opts.format
	}
	if opts.set["offset"] {
		if err := cfg.Set("hijri_offset", fmt.Sprint(opts.offset)); err != nil {
			return config.Config{}, err
		}
	}
	if opts.set["method"] {
		if err := cfg.Set("calendar_method", opts.method); err != nil {
			return config.Config{}, err
		}
	}
	if opts.offline {
		off := false
		cfg.RemoteLookup = &off
	}
	if opts.set["cache-dir"] {
		cfg.CacheDir = opts.cacheDir
	}
	if opts.set["db"] {
		cfg.DBPath = opts.dbPath
	}

	return cfg.Merge(config.Defaults()), nil
}

func run(ctx context.Context, stdout, stderr io.Writer, opts options, now time.Time) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	log := logger.New(stderr, cfg.LogLevel, cfg.LogFormat)

	// A broken database must not blank the status bar; fall back to the
	// calendar alone.
	p, err := loadProfile(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("settings unavailable, showing calendar only")
	}

	gen := forecast.New(generatorOptions(ctx, cfg, &log))
	e := gen.Day(now, p)
	for got := range gen.Range(ctx, now, 1, p) {
		e = got
	}

	fmt.Fprint(stdout, fasting.FormatOutput(e.Recommendation, e.Date, e.Hijri, cfg.Format))
	return nil
}

func loadProfile(ctx context.Context, cfg config.Config, log zerolog.Logger) (fasting.Profile, error) {
	path := cfg.DBPath
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return fasting.Profile{}, err
		}
		path = p
	}
	s, err := store.Open(ctx, path, log)
	if err != nil {
		return fasting.Profile{}, err
	}
	defer s.Close()
	return s.LoadProfile(ctx)
}

// generatorOptions wires the remote calendar with the file cache. The status
// line runs often, so redis is not used here and every remote failure falls
// back to the local calendar.
func generatorOptions(ctx context.Context, cfg config.Config, log *zerolog.Logger) forecast.Options {
	opts := forecast.Options{Offset: cfg.OffsetOrDefault(0), Logger: log}
	if !cfg.RemoteLookupOrDefault(true) {
		return opts
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
	}

	method := cfg.CalendarMethod
	if method == "" {
		var loc *geo.Location
		if c != nil {
			loc = c.LoadGeo()
		}
		if loc == nil {
			dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			loc, err = geo.DetectLocation(dctx)
			cancel()
			if err == nil && c != nil {
				_ = c.SaveGeo(loc) // best-effort
			}
		}
		method = geo.CalendarMethod(loc)
	}

	opts.Method = method
	opts.Lookup = api.NewClient(method)
	if c != nil {
		opts.Cache = c
	} else {
		opts.Cache = forecast.NewMemoryCache()
	}
	return opts
}
