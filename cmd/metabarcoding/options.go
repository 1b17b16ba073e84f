package main

import (
	"github.com/carbocation/pfx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/CSB-hub/Seokwoo-Github/compileinfo"
	"github.com/CSB-hub/Seokwoo-Github/config"
	"github.com/CSB-hub/Seokwoo-Github/workflow"
)

// globalOptions holds the persistent flags shared by the workflow commands.
type globalOptions struct {
	configPath string
	verbose    bool
}

// Flags that override config keys.
var flagKeys = map[string]string{
	"input-dir":     "input_dir",
	"pattern":       "level_pattern",
	"sample-column": "sample_column",
	"labels":        "level_labels",
}

func (o *globalOptions) register(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVarP(&o.configPath, "config", "c", "", "Path to a toml, yaml or json config file.")
	f.StringP("input-dir", "i", "", "Directory holding the level-N.csv tables. Outputs are written there too.")
	f.StringP("pattern", "p", "", "Glob, relative to the input directory, selecting rank tables.")
	f.String("sample-column", "", "Name of the sample identifier column. Defaults to the first column.")
	f.StringSlice("labels", nil, "Comma-separated rank labels, one per rank table, in rank order.")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Enable debug logging.")
}

// loadConfig reads the config file and applies any flags that were set.
func (o *globalOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	v, err := config.NewViper(o.configPath)
	if err != nil {
		return config.Config{}, err
	}

	for flag, key := range flagKeys {
		fl := cmd.Flags().Lookup(flag)
		if fl == nil || !fl.Changed {
			continue
		}
		if err := v.BindPFlag(key, fl); err != nil {
			return config.Config{}, pfx.Err(err)
		}
	}

	return config.FromViper(v)
}

func (o *globalOptions) logger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if o.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	return cfg.Build()
}

// newWorkflow builds the logger and workflow for one command invocation. The
// returned function flushes the logger.
func (o *globalOptions) newWorkflow(cmd *cobra.Command) (*workflow.Workflow, func(), error) {
	log, err := o.logger()
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	done := func() { _ = log.Sync() }

	log.Debug("Build", compileinfo.Get().Fields()...)

	cfg, err := o.loadConfig(cmd)
	if err != nil {
		done()
		return nil, nil, err
	}

	w, err := workflow.New(cfg, log)
	if err != nil {
		done()
		return nil, nil, err
	}

	return w, done, nil
}
