package export

import (
	"fmt"
	"unicode/utf8"

	coreexport "github.com/kilianp07/emobts/core/export"
	"github.com/kilianp07/emobts/core/factory"
	"github.com/kilianp07/emobts/infra/mqtt"
	pkgexport "github.com/kilianp07/emobts/pkg/export"
)

type fileConf struct {
	Dir       string `json:"dir"`
	Delimiter string `json:"delimiter"`
	Decimal   string `json:"decimal"`
}

type mqttConf struct {
	mqtt.Config `json:",squash"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	Retain      *bool  `json:"retain"`
}

// init registers built-in exporters.
func init() {
	_ = coreexport.RegisterExporter("csv", func(conf map[string]any) (coreexport.Exporter, error) {
		var c fileConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		opts := pkgexport.CSVOptions{Decimal: c.Decimal}
		if c.Delimiter != "" {
			r, size := utf8.DecodeRuneInString(c.Delimiter)
			if size != len(c.Delimiter) {
				return nil, fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
			}
			opts.Delimiter = r
		}
		return NewCSVExporter(c.Dir, opts), nil
	})

	_ = coreexport.RegisterExporter("json", func(conf map[string]any) (coreexport.Exporter, error) {
		var c fileConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewJSONExporter(c.Dir), nil
	})

	_ = coreexport.RegisterExporter("influx", func(conf map[string]any) (coreexport.Exporter, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxExporter(c)
	})

	_ = coreexport.RegisterExporter("mqtt", func(conf map[string]any) (coreexport.Exporter, error) {
		var c mqttConf
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Broker == "" {
			return nil, fmt.Errorf("mqtt exporter requires broker")
		}
		if c.TopicPrefix == "" {
			c.TopicPrefix = "emob"
		}
		retain := true
		if c.Retain != nil {
			retain = *c.Retain
		}
		cli, err := mqtt.NewPahoClient(c.Config)
		if err != nil {
			return nil, err
		}
		return NewMQTTExporter(cli, c.TopicPrefix, c.QoS, retain, cli.Disconnect), nil
	})
}
