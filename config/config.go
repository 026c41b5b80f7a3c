package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/emobts/core/factory"
	"github.com/kilianp07/emobts/core/metrics"
	"github.com/kilianp07/emobts/core/model"
	"github.com/kilianp07/emobts/core/runlog"
)

// EnvPrefix marks environment variables overriding configuration keys.
// Nested keys are separated by a double underscore, so EMOB_OUTPUT__DIR
// sets output.dir.
const EnvPrefix = "EMOB_"

// DefaultClusterPattern matches the cluster files of a directory.
const DefaultClusterPattern = "cluster_*.json"

// Config is the main configuration of a generation run.
type Config struct {
	Year int `json:"year"`
	// Jahr is accepted in place of year for existing configuration files.
	Jahr        int                    `json:"jahr"`
	Clusters    ClustersConfig         `json:"clusters"`
	Parallelism int                    `json:"parallelism"`
	Output      OutputConfig           `json:"output"`
	Exporters   []factory.ModuleConfig `json:"exporters"`
	Metrics     metrics.Config         `json:"metrics"`
	RunLog      runlog.Config          `json:"runlog"`
	LogLevel    string                 `json:"log_level"`
}

// ClustersConfig locates the cluster files.
type ClustersConfig struct {
	Dir     string `json:"dir"`
	Pattern string `json:"pattern"`
}

// OutputConfig holds the defaults of the file exporters.
type OutputConfig struct {
	Dir       string `json:"dir"`
	Delimiter string `json:"delimiter"`
	Decimal   string `json:"decimal"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Year == 0 {
		c.Year = c.Jahr
	}
	if c.Clusters.Dir == "" {
		c.Clusters.Dir = "."
	}
	if c.Clusters.Pattern == "" {
		c.Clusters.Pattern = DefaultClusterPattern
	}
	if c.Output.Dir == "" {
		c.Output.Dir = c.Clusters.Dir
	}
	if c.Output.Delimiter == "" {
		c.Output.Delimiter = ";"
	}
	if c.Output.Decimal == "" {
		c.Output.Decimal = ","
	}
	if len(c.Exporters) == 0 {
		c.Exporters = []factory.ModuleConfig{{Type: "csv"}}
	}
	for i := range c.Exporters {
		c.applyOutput(&c.Exporters[i])
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.Metrics.SetDefaults()
	c.RunLog.SetDefaults()
}

// applyOutput fills the file exporter settings left out of an exporter entry
// from the output section.
func (c *Config) applyOutput(m *factory.ModuleConfig) {
	if m.Type != "csv" && m.Type != "json" {
		return
	}
	if m.Conf == nil {
		m.Conf = map[string]any{}
	}
	setDefault(m.Conf, "dir", c.Output.Dir)
	if m.Type == "csv" {
		setDefault(m.Conf, "delimiter", c.Output.Delimiter)
		setDefault(m.Conf, "decimal", c.Output.Decimal)
	}
}

func setDefault(conf map[string]any, key string, val any) {
	if v, ok := conf[key]; !ok || v == "" || v == nil {
		conf[key] = val
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Year < model.MinYear || c.Year > model.MaxYear {
		return &model.ConfigError{Field: "year", Reason: fmt.Sprintf("must be within %d..%d, got %d", model.MinYear, model.MaxYear, c.Year)}
	}
	if c.Parallelism < 0 {
		return &model.ConfigError{Field: "parallelism", Reason: fmt.Sprintf("must be >= 0, got %d", c.Parallelism)}
	}
	if _, err := filepath.Match(c.Clusters.Pattern, ""); err != nil {
		return &model.ConfigError{Field: "clusters.pattern", Reason: err.Error()}
	}
	if utf8.RuneCountInString(c.Output.Delimiter) != 1 {
		return &model.ConfigError{Field: "output.delimiter", Reason: fmt.Sprintf("must be a single character, got %q", c.Output.Delimiter)}
	}
	if c.Output.Decimal == c.Output.Delimiter {
		return &model.ConfigError{Field: "output.decimal", Reason: "must differ from the delimiter"}
	}
	for i, e := range c.Exporters {
		if e.Type == "" {
			return &model.ConfigError{Field: fmt.Sprintf("exporters[%d].type", i), Reason: "must not be empty"}
		}
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return &model.ConfigError{Field: fmt.Sprintf("metrics.sinks[%d].type", i), Reason: "must not be empty"}
		}
	}
	if err := c.RunLog.Validate(); err != nil {
		return model.PrefixField(err, "runlog")
	}
	return nil
}

// Load reads the configuration file at path, applies EMOB_ environment
// overrides and then overrides, keyed by dotted path such as "output.dir".
// An empty path loads the environment and overrides only.
func Load(path string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}
