package main

import (
	"encoding/json"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mudrockdev/schemadiff/adapter"
	"github.com/mudrockdev/schemadiff/filter"
)

// Config holds the settings of a run. Values come from the optional TOML
// file first; flags given on the command line override them.
type Config struct {
	Driver   string         `toml:"driver" json:"driver"`
	LogLevel string         `toml:"log-level" json:"log-level"`
	LogFile  string         `toml:"log-file" json:"log-file"`
	NoColor  bool           `toml:"no-color" json:"no-color"`
	Info     bool           `toml:"info" json:"info"`
	Filter   filter.Options `toml:"filter" json:"filter"`

	configFile string
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Driver:   "mysql",
		LogLevel: "warn",
	}
}

func (cfg *Config) String() string {
	data, err := json.MarshalIndent(cfg, "\t", "\t")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

// bindPersistentFlags registers the flags shared by every command.
func (cfg *Config) bindPersistentFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.configFile, "config", "", "path to the configuration file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFile, "log-file", "", "log file path, logs go to stderr when empty")
}

// bindFlags registers the comparison flags.
func (cfg *Config) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&cfg.Driver, "driver", cfg.Driver, "database type: mysql, postgres, sqlite, sqlserver")
	fs.BoolVar(&cfg.NoColor, "no-color", false, "disable colored output")
	fs.BoolVar(&cfg.Info, "info", false, "print table count and size of the compared databases")

	fs.StringVar(&cfg.Filter.IgnoreDatabases, "ignore-databases", "", "ignore this comma-separated list of databases")
	fs.StringVar(&cfg.Filter.IgnoreDatabasesRegex, "ignore-databases-regex", "", "ignore databases whose names match this regex")
	fs.StringVar(&cfg.Filter.Databases, "databases", "", "compare only this comma-separated list of databases")
	fs.StringVar(&cfg.Filter.DatabasesRegex, "databases-regex", "", "compare only databases whose names match this regex")
	fs.StringVar(&cfg.Filter.IgnoreTables, "ignore-tables", "", "ignore this comma-separated list of tables, may be qualified as db.table")
	fs.StringVar(&cfg.Filter.IgnoreTablesRegex, "ignore-tables-regex", "", "ignore tables whose names match this regex")
	fs.StringVar(&cfg.Filter.Tables, "tables", "", "compare only this comma-separated list of tables, may be qualified as db.table")
	fs.StringVar(&cfg.Filter.TablesRegex, "tables-regex", "", "compare only tables whose names match this regex")
}

// Load reads the config file, if one was given, and validates the result.
// fs must be the parsed flag set of the running command.
func (cfg *Config) Load(fs *pflag.FlagSet) error {
	if cfg.configFile != "" {
		// Remember what was set on the command line, since decoding the
		// file overwrites the same fields.
		changed := make(map[string]string)
		fs.Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})

		if err := cfg.configFromFile(cfg.configFile); err != nil {
			return errors.Trace(err)
		}

		for name, value := range changed {
			if err := fs.Set(name, value); err != nil {
				return errors.Annotatef(err, "flag --%s", name)
			}
		}
	}

	return cfg.validate()
}

func (cfg *Config) configFromFile(path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return errors.Annotatef(err, "read config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.Errorf("config file %s contains unknown keys %v", path, undecoded)
	}
	return nil
}

func (cfg *Config) validate() error {
	if _, err := adapter.Get(cfg.Driver); err != nil {
		return errors.Trace(err)
	}
	if _, err := filter.New(cfg.Filter, nil); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// loadConfig is the PreRunE shared by the commands.
func loadConfig(cfg *Config) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		return cfg.Load(cmd.Flags())
	}
}
