package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/healthcarekit/vitalmon/internal/vitals"
)

// MQTTTransport publishes records to a broker topic at QoS 0. The pipeline
// is latest-value-wins with no delivery guarantee, which is exactly QoS 0
// semantics; a dropped message is superseded by the next interval anyway.
type MQTTTransport struct {
	client paho.Client
	topic  string
}

// NewMQTTTransport connects to the broker and returns the transport. The
// client's own auto-reconnect covers broker-side blips; WiFi-level loss is
// the link manager's job.
func NewMQTTTransport(brokerURL, clientID, topic string) (*MQTTTransport, error) {
	opts := paho.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetCleanSession(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connecting to broker %s: %w", brokerURL, err)
	}

	return &MQTTTransport{client: client, topic: topic}, nil
}

func (t *MQTTTransport) Send(_ context.Context, rec *vitals.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	token := t.client.Publish(t.topic, 0, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", t.topic, err)
	}
	return nil
}

func (t *MQTTTransport) Close() error {
	t.client.Disconnect(250)
	return nil
}
