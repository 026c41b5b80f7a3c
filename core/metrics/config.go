package metrics

import "github.com/kilianp07/emobts/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PushURL is the Pushgateway receiving the Prometheus registry at the end
	// of a batch run. Empty disables pushing.
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Job == "" {
		c.Job = "emobts"
	}
}
