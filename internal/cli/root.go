package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/shaum/internal/api"
	"github.com/smokyabdulrahman/shaum/internal/cache"
	"github.com/smokyabdulrahman/shaum/internal/config"
	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/geo"
	"github.com/smokyabdulrahman/shaum/internal/logger"
	"github.com/smokyabdulrahman/shaum/internal/store"
)

// now is swapped in tests.
var now = time.Now

// flags shared across all subcommands.
type flags struct {
	offset   int
	method   string
	offline  bool
	json     bool
	cacheDir string
	dbPath   string
	logLevel string
}

// app holds what PersistentPreRunE resolved. The store and generator are
// opened on first use so commands like `config path` never touch them.
type app struct {
	flags flags
	cfg   config.Config
	log   zerolog.Logger

	store   *store.Store
	gen     *forecast.Generator
	closers []func() error
}

// NewRootCmd creates the root command for the shaum CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "shaum",
		Short:   "Fasting calendar and Hijri date CLI",
		Long:    "Shows which fast, if any, applies to a day: Ramadhan, sunnah fasts, your Qadha and Nadzar obligations, and the days on which fasting is forbidden.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
		// Default action: show today's recommendation.
		RunE:          a.runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVar(&a.flags.offset, "offset", 0, fmt.Sprintf("Shift Hijri dates by whole days (-%d..%d)", config.MaxOffset, config.MaxOffset))
	pf.StringVar(&a.flags.method, "method", "", "Remote calendar method (HJCoSA, UAQ, DIYANET, MATHEMATICAL)")
	pf.BoolVar(&a.flags.offline, "offline", false, "Use the local tabular calendar only")
	pf.BoolVar(&a.flags.json, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&a.flags.cacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/shaum/)")
	pf.StringVar(&a.flags.dbPath, "db", "", "Database path (default: ~/.local/share/shaum/shaum.db)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error, off")

	rootCmd.AddCommand(a.newTodayCmd())
	rootCmd.AddCommand(a.newDayCmd())
	rootCmd.AddCommand(a.newMonthCmd())
	rootCmd.AddCommand(a.newUpcomingCmd())
	rootCmd.AddCommand(a.newRulesCmd())
	rootCmd.AddCommand(a.newRamadhanCmd())
	rootCmd.AddCommand(a.newLogCmd())
	rootCmd.AddCommand(a.newStatsCmd())
	rootCmd.AddCommand(a.newExportCmd())
	rootCmd.AddCommand(a.newServeCmd())
	rootCmd.AddCommand(a.newCacheCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// setup merges configuration with the priority CLI flags > SHAUM_* env
// (and .env files) > config file > defaults, then builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	local := cmd.Flags()
	root := cmd.Root().PersistentFlags()
	if flagWasSet(local, root, "offset") {
		if err := cfg.Set("hijri_offset", fmt.Sprint(a.flags.offset)); err != nil {
			return err
		}
	}
	if flagWasSet(local, root, "method") {
		if err := cfg.Set("calendar_method", a.flags.method); err != nil {
			return err
		}
	}
	if flagWasSet(local, root, "offline") && a.flags.offline {
		off := false
		cfg.RemoteLookup = &off
	}
	if flagWasSet(local, root, "cache-dir") {
		cfg.CacheDir = a.flags.cacheDir
	}
	if flagWasSet(local, root, "db") {
		cfg.DBPath = a.flags.dbPath
	}
	if flagWasSet(local, root, "log-level") {
		if err := cfg.Set("log_level", a.flags.logLevel); err != nil {
			return err
		}
	}

	a.cfg = cfg.Merge(config.Defaults())
	a.log = logger.New(cmd.ErrOrStderr(), a.cfg.LogLevel, a.cfg.LogFormat)
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	a.store, a.gen = nil, nil
	return errors.Join(errs...)
}

// openStore opens the settings database on first use.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.cfg.DBPath
	if path == "" {
		p, err := store.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	s, err := store.Open(ctx, path, a.log)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)
	return s, nil
}

// profile loads the user's settings fresh from the store.
func (a *app) profile(ctx context.Context) (fasting.Profile, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return fasting.Profile{}, err
	}
	return s.LoadProfile(ctx)
}

// generator builds the forecast generator on first use.
func (a *app) generator(ctx context.Context) *forecast.Generator {
	if a.gen != nil {
		return a.gen
	}

	opts := forecast.Options{
		Offset: a.cfg.OffsetOrDefault(0),
		Logger: &a.log,
	}
	if a.cfg.RemoteLookupOrDefault(true) {
		method := a.cfg.CalendarMethod
		fc := a.fileCache()
		if method == "" {
			method = a.detectMethod(ctx, fc)
		}
		opts.Method = method
		opts.Lookup = api.NewClient(method)
		opts.Cache = a.calendarCache(ctx, fc)
	}

	a.gen = forecast.New(opts)
	return a.gen
}

func (a *app) fileCache() *cache.Cache {
	fc, err := cache.New(a.cfg.CacheDir)
	if err != nil {
		a.log.Warn().Err(err).Msg("file cache disabled")
		return nil
	}
	return fc
}

// calendarCache picks the configured backend, falling back to the file
// cache and then to memory when a backend is unusable.
func (a *app) calendarCache(ctx context.Context, fc *cache.Cache) forecast.Cache {
	switch a.cfg.CacheBackend {
	case "memory":
		return forecast.NewMemoryCache()
	case "redis":
		rc := cache.NewRedis(cache.RedisOptions{Addr: a.cfg.RedisAddr})
		if err := rc.Ping(ctx); err != nil {
			a.log.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("redis unavailable, using file cache")
			rc.Close()
			break
		}
		a.closers = append(a.closers, rc.Close)
		return rc
	}
	if fc == nil {
		return forecast.NewMemoryCache()
	}
	return fc
}

// detectMethod picks a calendar method from the IP-geolocated country,
// reusing a cached location when one is fresh.
func (a *app) detectMethod(ctx context.Context, fc *cache.Cache) string {
	var loc *geo.Location
	if fc != nil {
		loc = fc.LoadGeo()
	}
	if loc == nil {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		detected, err := geo.DetectLocation(ctx)
		if err != nil {
			a.log.Info().Err(err).Msg("location detection failed, using default calendar method")
		} else {
			loc = detected
			if fc != nil {
				if err := fc.SaveGeo(loc); err != nil {
					a.log.Debug().Err(err).Msg("failed to cache location")
				}
			}
		}
	}
	method := geo.CalendarMethod(loc)
	a.log.Debug().Str("method", method).Msg("calendar method selected")
	return method
}

// PrintVersion prints the version string in the expected format.
func PrintVersion(version string) string {
	return fmt.Sprintf("shaum %s\n", version)
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}
