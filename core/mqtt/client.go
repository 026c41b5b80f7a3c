// Package mqtt defines the publishing side of the MQTT transport used to
// distribute generated series.
package mqtt

import "context"

// Publisher sends payloads to an MQTT broker.
type Publisher interface {
	// Publish delivers payload to topic, retrying transient failures until
	// ctx is done.
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}
