package plugin

import (
	"fmt"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	slog "github.com/vearne/simplelog"
	"github.com/westhule/combatcap/record"
)

// KafkaOutput publishes damage records to a kafka topic, one message per
// record.
type KafkaOutput struct {
	config *OutputKafkaConfig
	codec  record.Codec
}

// NewKafkaOutput creates instance of kafka producer client
func NewKafkaOutput(config *OutputKafkaConfig) *KafkaOutput {
	c := NewKafkaConfig(&config.SASLConfig)
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Compression = sarama.CompressionSnappy
	c.Producer.Flush.Frequency = 500 * time.Millisecond

	brokerList := strings.Split(config.Host, ",")

	producer, err := sarama.NewAsyncProducer(brokerList, c)
	if err != nil {
		slog.Fatal("failed to start kafka producer: %v", err)
	}
	config.producer = producer

	var o KafkaOutput
	o.config = config
	if config.UseJSON {
		o.codec = record.GetCodec(record.CodecJsonName)
	} else {
		o.codec = record.GetCodec(record.CodecSimpleName)
	}

	go o.ErrorHandler()
	return &o
}

// ErrorHandler drains the producer error channel
func (o *KafkaOutput) ErrorHandler() {
	for err := range o.config.producer.Errors() {
		slog.Error("producing message, %v", err)
	}
}

// PluginWrite writes a record to this plugin
func (o *KafkaOutput) PluginWrite(rec *record.Record) (n int, err error) {
	data, err := o.codec.Marshal(rec)
	if err != nil {
		return 0, err
	}

	o.config.producer.Input() <- &sarama.ProducerMessage{
		Topic: o.config.Topic,
		Value: sarama.ByteEncoder(data),
	}
	return len(data), nil
}

func (o *KafkaOutput) String() string {
	return fmt.Sprintf("Kafka output: %s/%s", o.config.Host, o.config.Topic)
}

func (o *KafkaOutput) Close() error {
	return o.config.producer.Close()
}
