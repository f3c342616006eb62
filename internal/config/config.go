package config

import (
	"fmt"
	"strings"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	DefaultCurrency  string `env:"DEFAULT_CURRENCY" envDefault:"USD"`
	InvoiceDueDays   int    `env:"INVOICE_DUE_DAYS" envDefault:"30"`
	LoyaltyTiersFile string `env:"LOYALTY_TIERS_FILE"`

	HousekeepingIntervalS int `env:"HOUSEKEEPING_INTERVAL_S" envDefault:"300"`

	EventSink     string   `env:"EVENT_SINK" envDefault:"log"`
	KafkaBrokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic    string   `env:"KAFKA_TOPIC" envDefault:"folio-events"`
	RabbitMQURL   string   `env:"RABBITMQ_URL"`
	RabbitMQQueue string   `env:"RABBITMQ_QUEUE" envDefault:"folio-events"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// EventSinks splits EVENT_SINK, which may name several sinks separated by
// commas (e.g. "log,kafka").
func (c *Config) EventSinks() []string {
	var sinks []string
	for _, s := range strings.Split(c.EventSink, ",") {
		if s = strings.TrimSpace(s); s != "" {
			sinks = append(sinks, s)
		}
	}
	return sinks
}

func (c *Config) validate() error {
	sinks := c.EventSinks()
	if len(sinks) == 0 {
		return fmt.Errorf("EVENT_SINK must not be empty")
	}
	for _, sink := range sinks {
		switch sink {
		case "none", "log":
		case "kafka":
			if len(c.KafkaBrokers) == 0 {
				return fmt.Errorf("KAFKA_BROKERS is required when EVENT_SINK includes kafka")
			}
		case "rabbitmq":
			if c.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is required when EVENT_SINK includes rabbitmq")
			}
		default:
			return fmt.Errorf("unknown EVENT_SINK %q", sink)
		}
	}
	if c.InvoiceDueDays < 0 {
		return fmt.Errorf("INVOICE_DUE_DAYS must not be negative")
	}
	return nil
}
