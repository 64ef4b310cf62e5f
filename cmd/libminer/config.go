package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/bitfsorg/libminer-go/config"
)

const appVersion = "0.1.0"

type configFlags struct {
	ShowVersion bool          `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string        `short:"C" long:"configfile" description:"Path to configuration file (default <datadir>/config)"`
	DataDir     string        `short:"d" long:"datadir" description:"Directory for the block store and transaction archive"`
	MempoolDir  string        `short:"m" long:"mempool" description:"Directory of candidate transaction records"`
	ReportPath  string        `short:"o" long:"output" description:"Path of the block report"`
	LogLevel    string        `long:"loglevel" description:"Logging level {debug, info, warn, error}"`
	LogFormat   string        `long:"logformat" description:"Log output format {text, json}"`
	LogFile     string        `long:"logfile" description:"Also write logs to this rotating file"`
	Workers     int           `short:"j" long:"workers" description:"Number of validation and mining goroutines"`
	Timeout     time.Duration `long:"timeout" description:"Give up the nonce search after this long, e.g. 30s"`
	Timestamp   uint32        `long:"timestamp" description:"Header timestamp in Unix seconds (default now)"`
	Target      string        `long:"target" description:"Difficulty target as 64 hex characters"`
	Bits        uint32        `long:"bits" description:"Difficulty target in compact form; overrides --target"`
	PrevBlock   string        `long:"prevblock" description:"Previous block hash as 64 hex characters"`
	ExtendTip   bool          `long:"extendtip" description:"Mine on top of the stored chain tip instead of --prevblock"`
	NoStore     bool          `long:"nostore" description:"Do not persist the block or archive its transactions"`
	SaveConfig  bool          `long:"saveconfig" description:"Write the effective configuration to the config file and exit"`
}

// parseConfig parses the command line, loads the configuration file and
// applies flag overrides on top of it.
func parseConfig() (*configFlags, config.Config, error) {
	opts := &configFlags{}
	parser := flags.NewParser(opts, flags.PrintErrors|flags.HelpFlag)
	_, err := parser.Parse()

	if opts.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", appVersion)
		os.Exit(0)
	}

	if err != nil {
		return nil, config.Config{}, err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, cfg, err
	}
	opts.apply(&cfg)

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, cfg, err
	}
	return opts, cfg, nil
}

// loadConfig reads the configuration file. A missing file is only an error
// when it was named explicitly.
func loadConfig(opts *configFlags) (config.Config, error) {
	path := opts.ConfigFile
	if path == "" {
		dataDir := opts.DataDir
		if dataDir == "" {
			dataDir = config.DefaultDataDir()
		}
		path = config.ConfigPath(dataDir)
	}

	explicit := opts.ConfigFile != ""
	opts.ConfigFile = path

	cfg, err := config.LoadConfig(path)
	if errors.Is(err, config.ErrConfigNotFound) && (!explicit || opts.SaveConfig) {
		return config.DefaultConfig(), nil
	}
	return cfg, err
}

// apply overrides cfg with every flag that was set.
func (f *configFlags) apply(cfg *config.Config) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.MempoolDir != "" {
		cfg.MempoolDir = f.MempoolDir
	}
	if f.ReportPath != "" {
		cfg.ReportPath = f.ReportPath
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		cfg.LogFormat = f.LogFormat
	}
	if f.LogFile != "" {
		cfg.LogFile = f.LogFile
	}
	if f.Workers != 0 {
		cfg.Workers = f.Workers
	}
	if f.Timeout != 0 {
		cfg.SearchTimeout = f.Timeout
	}
	if f.Target != "" {
		cfg.DifficultyTarget = f.Target
		cfg.DifficultyBits = 0
	}
	if f.Bits != 0 {
		cfg.DifficultyBits = f.Bits
	}
	if f.PrevBlock != "" {
		cfg.PrevBlock = f.PrevBlock
	}
	if f.ExtendTip {
		cfg.ExtendTip = true
	}
}
