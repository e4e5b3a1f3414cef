// Package config loads the seat booking configuration from an optional YAML
// file, SEATBOOKING_* environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "SEATBOOKING"

const (
	StoreDriverFile     = "file"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"

	EventsDriverGoChannel = "gochannel"
	EventsDriverRedis     = "redis"
	EventsDriverKafka     = "kafka"
)

type Config struct {
	Store    StoreConfig    `mapstructure:"store"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Events   EventsConfig   `mapstructure:"events"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Booking  BookingConfig  `mapstructure:"booking"`
	Log      LogConfig      `mapstructure:"log"`
}

type StoreConfig struct {
	Driver       string `mapstructure:"driver"`
	UsersPath    string `mapstructure:"users_path"`
	VehiclesPath string `mapstructure:"vehicles_path"`
	AtomicWrites bool   `mapstructure:"atomic_writes"`
	// UsersKey and VehiclesKey name the documents in the redis and postgres
	// backends.
	UsersKey    string `mapstructure:"users_key"`
	VehiclesKey string `mapstructure:"vehicles_key"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type EventsConfig struct {
	Driver string `mapstructure:"driver"`
}

type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	ClientID string   `mapstructure:"client_id"`
}

type BookingConfig struct {
	ReleaseSeatOnCancel bool `mapstructure:"release_seat_on_cancel"`
	BcryptCost          int  `mapstructure:"bcrypt_cost"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.users_path", "data/users.json")
	v.SetDefault("store.vehicles_path", "data/vehicles.json")
	v.SetDefault("store.atomic_writes", false)
	v.SetDefault("store.users_key", "seatbooking:users")
	v.SetDefault("store.vehicles_key", "seatbooking:vehicles")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.dsn", "host=localhost user=seatbooking password=seatbooking dbname=seatbooking port=5432 sslmode=disable TimeZone=UTC")

	v.SetDefault("events.driver", EventsDriverGoChannel)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "seatbooking")

	v.SetDefault("booking.release_seat_on_cancel", false)
	v.SetDefault("booking.bcrypt_cost", 10)

	v.SetDefault("log.level", "info")
}

// LoadConfig builds the viper instance. An empty path looks for config.yaml in
// the working directory and ./config, and a missing file there is not an
// error. An explicit path must exist.
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load is LoadConfig followed by ParseConfig.
func Load(path string) (*Config, error) {
	v, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(v)
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreDriverFile:
		if c.Store.UsersPath == "" || c.Store.VehiclesPath == "" {
			return errors.New("config: store.users_path and store.vehicles_path are required for the file driver")
		}
	case StoreDriverRedis, StoreDriverPostgres:
	default:
		return fmt.Errorf("config: unknown store.driver %q", c.Store.Driver)
	}

	switch c.Events.Driver {
	case EventsDriverGoChannel, EventsDriverRedis:
	case EventsDriverKafka:
		if len(c.Kafka.Brokers) == 0 {
			return errors.New("config: kafka.brokers is required for the kafka events driver")
		}
	default:
		return fmt.Errorf("config: unknown events.driver %q", c.Events.Driver)
	}
	return nil
}

// UsesRedis reports whether any component needs a redis client.
func (c *Config) UsesRedis() bool {
	return c.Store.Driver == StoreDriverRedis || c.Events.Driver == EventsDriverRedis
}
