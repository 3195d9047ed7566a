// Package config loads pipeline configuration from file, environment and
// defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Service struct {
	URL string `mapstructure:"url" yaml:"url"`
}

type Services struct {
	STT Service `mapstructure:"stt" yaml:"stt"`
}

type Analysis struct {
	Segments           int     `mapstructure:"segments" yaml:"segments"`
	MinDurationSeconds float64 `mapstructure:"min_duration_seconds" yaml:"min_duration_seconds"`
	MinValidSegments   int     `mapstructure:"min_valid_segments" yaml:"min_valid_segments"`
	MinVoicedPercent   float64 `mapstructure:"min_voiced_percent" yaml:"min_voiced_percent"`
	SyllablesPerSecond float64 `mapstructure:"syllables_per_second" yaml:"syllables_per_second"`
	SilenceThresholdDB float64 `mapstructure:"silence_threshold_db" yaml:"silence_threshold_db"`
	MaxFitIterations   int     `mapstructure:"max_fit_iterations" yaml:"max_fit_iterations"`
	Concurrency        int     `mapstructure:"concurrency" yaml:"concurrency"`
}

type Root struct {
	Pipeline struct {
		Name    string `mapstructure:"name" yaml:"name"`
		Version string `mapstructure:"version" yaml:"version"`
		LogLvl  string `mapstructure:"log_level" yaml:"log_level"`
	} `mapstructure:"pipeline" yaml:"pipeline"`
	Analysis Analysis `mapstructure:"analysis" yaml:"analysis"`
	Services Services `mapstructure:"services" yaml:"services"`
	Paths    struct {
		Outputs string `mapstructure:"outputs" yaml:"outputs"`
	} `mapstructure:"paths" yaml:"paths"`
}

// Default returns the built-in configuration.
func Default() *Root {
	var r Root
	r.Pipeline.Name = "fatigue-pipeline"
	r.Pipeline.Version = "0.1.0"
	r.Pipeline.LogLvl = "info"
	r.Analysis = Analysis{
		Segments:           12,
		MinDurationSeconds: 60,
		MinValidSegments:   4,
		MinVoicedPercent:   10,
		SyllablesPerSecond: 4.5,
		SilenceThresholdDB: 20,
		MaxFitIterations:   2000,
		Concurrency:        1,
	}
	r.Paths.Outputs = "outputs"
	return &r
}

// Load reads configuration from path (or ./config.yaml when path is empty),
// layered under FATIGUE_* environment overrides and the defaults. A missing
// config file is fine; a malformed one is not.
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetEnvPrefix("FATIGUE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Root) {
	v.SetDefault("pipeline.name", d.Pipeline.Name)
	v.SetDefault("pipeline.version", d.Pipeline.Version)
	v.SetDefault("pipeline.log_level", d.Pipeline.LogLvl)
	v.SetDefault("analysis.segments", d.Analysis.Segments)
	v.SetDefault("analysis.min_duration_seconds", d.Analysis.MinDurationSeconds)
	v.SetDefault("analysis.min_valid_segments", d.Analysis.MinValidSegments)
	v.SetDefault("analysis.min_voiced_percent", d.Analysis.MinVoicedPercent)
	v.SetDefault("analysis.syllables_per_second", d.Analysis.SyllablesPerSecond)
	v.SetDefault("analysis.silence_threshold_db", d.Analysis.SilenceThresholdDB)
	v.SetDefault("analysis.max_fit_iterations", d.Analysis.MaxFitIterations)
	v.SetDefault("analysis.concurrency", d.Analysis.Concurrency)
	v.SetDefault("services.stt.url", d.Services.STT.URL)
	v.SetDefault("paths.outputs", d.Paths.Outputs)
}

// YAML renders the configuration, used by `config init`.
func (r *Root) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}
