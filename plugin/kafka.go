package plugin

import (
	"github.com/Shopify/sarama"
)

// OutputKafkaConfig is the representation of kafka output configuration
type OutputKafkaConfig struct {
	producer   sarama.AsyncProducer
	Host       string `json:"output-kafka-host"`
	Topic      string `json:"output-kafka-topic"`
	UseJSON    bool   `json:"output-kafka-json-format"`
	SASLConfig SASLKafkaConfig
}

// SASLKafkaConfig SASL configuration
type SASLKafkaConfig struct {
	UseSASL   bool   `json:"output-kafka-use-sasl"`
	Mechanism string `json:"output-kafka-mechanism"`
	Username  string `json:"output-kafka-username"`
	Password  string `json:"output-kafka-password"`
}

// NewKafkaConfig builds the sarama configuration for the output producer
func NewKafkaConfig(saslConfig *SASLKafkaConfig) *sarama.Config {
	config := sarama.NewConfig()
	if saslConfig != nil && saslConfig.UseSASL {
		config.Net.SASL.Enable = true
		config.Net.SASL.Mechanism = sarama.SASLMechanism(saslConfig.Mechanism)
		config.Net.SASL.User = saslConfig.Username
		config.Net.SASL.Password = saslConfig.Password
	}
	return config
}
