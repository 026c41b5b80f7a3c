package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	coreexport "github.com/kilianp07/emobts/core/export"
	coremqtt "github.com/kilianp07/emobts/core/mqtt"
	pkgexport "github.com/kilianp07/emobts/pkg/export"
)

// MQTTExporter publishes the JSON document of a series to
// {prefix}/{cluster}/timeseries.
type MQTTExporter struct {
	pub    coremqtt.Publisher
	prefix string
	qos    byte
	retain bool
	close  func()
}

// NewMQTTExporter wraps pub. close is called by Close and may be nil.
func NewMQTTExporter(pub coremqtt.Publisher, prefix string, qos byte, retain bool, close func()) *MQTTExporter {
	return &MQTTExporter{pub: pub, prefix: strings.TrimSuffix(prefix, "/"), qos: qos, retain: retain, close: close}
}

// Topic returns the topic a cluster series is published on.
func (e *MQTTExporter) Topic(cluster string) string {
	return fmt.Sprintf("%s/%s/timeseries", e.prefix, cluster)
}

// Export publishes s and returns the topic.
func (e *MQTTExporter) Export(ctx context.Context, s coreexport.Series) (string, error) {
	var buf bytes.Buffer
	if err := pkgexport.WriteJSON(&buf, Document(s)); err != nil {
		return "", err
	}
	topic := e.Topic(s.Cluster)
	if err := e.pub.Publish(ctx, topic, e.qos, e.retain, buf.Bytes()); err != nil {
		return "", err
	}
	return topic, nil
}

// Close disconnects the publisher.
func (e *MQTTExporter) Close() error {
	if e.close != nil {
		e.close()
	}
	return nil
}
