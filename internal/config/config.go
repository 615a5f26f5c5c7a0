package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port                   string   `env:"PORT" envDefault:"8080"`
	DBUser                 string   `env:"DB_USER,required"`
	DBPassword             string   `env:"DB_PASSWORD,required"`
	DBHost                 string   `env:"DB_HOST,required"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string   `env:"DB_NAME,required"`
	DBPort                 string   `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string   `env:"INSTANCE_CONNECTION_NAME"`
	KafkaBrokers           []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic             string   `env:"KAFKA_TOPIC" envDefault:"marketplace.events"`
	RedisAddr              string   `env:"REDIS_ADDR"`
	AdminUIDs              []string `env:"ADMIN_UIDS" envSeparator:","`
	PayoutWebhookSecret    string   `env:"PAYOUT_WEBHOOK_SECRET"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsAdmin(uid string) bool {
	for _, a := range c.AdminUIDs {
		if a != "" && a == uid {
			return true
		}
	}
	return false
}
