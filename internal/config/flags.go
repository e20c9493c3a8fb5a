package config

import "flag"

// Flags holds the command-line overrides registered on a FlagSet.
type Flags struct {
	fs          *flag.FlagSet
	config      *string
	debug       *bool
	model       *string
	res         *int
	progressive *bool
	batch       *int
	workers     *int
	out         *string
	logFile     *string
}

// BindFlags registers the shared flags on fs. Call fs.Parse before Load.
func BindFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:          fs,
		config:      fs.String("config", "", "Path to config file"),
		debug:       fs.Bool("debug", false, "Enable debug logging"),
		model:       fs.String("model", "", "Path to face model asset (GLB)"),
		res:         fs.Int("res", 0, "Requested render resolution"),
		progressive: fs.Bool("progressive", true, "Route the resolution through the progressive tiers"),
		batch:       fs.Int("batch", 0, "Batch size (0 = number of coefficient rows)"),
		workers:     fs.Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)"),
		out:         fs.String("out", "", "Output directory"),
		logFile:     fs.String("log-file", "", "Write logs to this file"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies CLI flag overrides to the config. Boolean flags only
// override when given explicitly.
func (f *Flags) apply(cfg *Config) {
	if f == nil {
		return
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if *f.model != "" {
		cfg.Model.Path = *f.model
	}
	if *f.res > 0 {
		cfg.Render.Resolution = *f.res
	}
	if f.isSet("progressive") {
		cfg.Render.Progressive = *f.progressive
	}
	if *f.batch > 0 {
		cfg.Render.BatchSize = *f.batch
	}
	if *f.workers > 0 {
		cfg.Render.Workers = *f.workers
	}
	if *f.out != "" {
		cfg.Output.Dir = *f.out
	}
	if *f.logFile != "" {
		cfg.Logging.LogFile = *f.logFile
	}
}

func (f *Flags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}
