package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/seedstats/seedstats/internal/metric"
	"go.uber.org/zap"
)

// MQTTOptions configure the MQTT publishing sink.
type MQTTOptions struct {
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
}

// MQTTSink publishes each sample as a JSON payload to
// <prefix>/<plugin>/<type_instance>.
type MQTTSink struct {
	client mqtt.Client
	prefix string
	qos    byte
	logger *zap.Logger
}

// NewMQTTSink connects to the broker and returns the sink. The client
// auto-reconnects; transient broker outages drop publishes rather than
// blocking the collection loop.
func NewMQTTSink(opts MQTTOptions, logger *zap.Logger) (*MQTTSink, error) {
	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	if opts.Username != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}

	client := mqtt.NewClient(co)
	if tok := client.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", opts.Broker, tok.Error())
	}
	logger.Info("mqtt sink connected", zap.String("broker", opts.Broker))

	return &MQTTSink{
		client: client,
		prefix: opts.TopicPrefix,
		qos:    opts.QoS,
		logger: logger,
	}, nil
}

func (s *MQTTSink) Name() string { return "mqtt" }

type mqttPayload struct {
	Plugin       string  `json:"plugin"`
	TypeInstance string  `json:"type_instance"`
	ValueType    string  `json:"value_type"`
	Value        float64 `json:"value"`
	Time         int64   `json:"time"`
}

func (s *MQTTSink) Submit(_ context.Context, sample metric.Sample) error {
	payload, err := json.Marshal(mqttPayload{
		Plugin:       sample.Plugin,
		TypeInstance: sample.TypeInstance,
		ValueType:    sample.ValueType,
		Value:        sample.Value,
		Time:         time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	topic := s.prefix + "/" + sample.Plugin + "/" + sample.TypeInstance
	if tok := s.client.Publish(topic, s.qos, false, payload); tok.Wait() && tok.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, tok.Error())
	}
	return nil
}

// Close disconnects from the broker, allowing in-flight publishes a
// short grace period.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}

var _ metric.Sink = (*MQTTSink)(nil)
