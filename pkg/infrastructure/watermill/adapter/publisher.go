package adapter

import (
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const (
	DriverGoChannel = "gochannel"
	DriverRedis     = "redis"
	DriverKafka     = "kafka"
)

type PublisherConfig struct {
	Driver       string
	KafkaBrokers []string
	KafkaClient  string
}

// NewPublisher builds the watermill publisher selected by cfg.Driver. The redis
// driver reuses redisClient; it may be nil for the other drivers.
func NewPublisher(cfg PublisherConfig, redisClient redis.UniversalClient, logger watermill.LoggerAdapter) (message.Publisher, error) {
	switch cfg.Driver {
	case "", DriverGoChannel:
		return gochannel.NewGoChannel(gochannel.Config{}, logger), nil

	case DriverRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis publisher: no redis client configured")
		}
		return redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: redisClient,
		}, logger)

	case DriverKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka publisher: no brokers configured")
		}
		saramaConfig := kafka.DefaultSaramaSyncPublisherConfig()
		saramaConfig.Version = sarama.V1_0_0_0
		if cfg.KafkaClient != "" {
			saramaConfig.ClientID = cfg.KafkaClient
		}
		return kafka.NewPublisher(kafka.PublisherConfig{
			Brokers:               cfg.KafkaBrokers,
			Marshaler:             kafka.DefaultMarshaler{},
			OverwriteSaramaConfig: saramaConfig,
		}, logger)

	default:
		return nil, fmt.Errorf("unknown event driver %q", cfg.Driver)
	}
}
