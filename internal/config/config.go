package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
}

var (
	instance *Config
	once     sync.Once
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// URL wins over the discrete fields when set.
	URL string
}

type RedisConfig struct {
	// URL is optional; empty disables redis-backed features.
	URL string
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

type KafkaConfig struct {
	// Brokers is optional; empty disables chat archiving.
	Brokers []string
	Topic   string
}

func LoadConfig() (*Config, error) {
	once.Do(func() {
		viper.SetDefault("SKETCHXPAD_PORT", "8080")
		viper.SetDefault("SKETCHXPAD_READ_TIMEOUT", 30*time.Second)
		viper.SetDefault("SKETCHXPAD_WRITE_TIMEOUT", 30*time.Second)
		viper.SetDefault("SKETCHXPAD_IDLE_TIMEOUT", 60*time.Second)
		viper.SetDefault("SKETCHXPAD_JWT_SECRET", "secret")
		viper.SetDefault("SKETCHXPAD_JWT_EXPIRE", "168h")
		viper.SetDefault("KAFKA_TOPIC", "sketchxpad.chats")
		viper.SetDefault("POSTGRES_USER", "postgres")
		viper.SetDefault("POSTGRES_PASSWORD", "password")
		viper.SetDefault("POSTGRES_HOST", "localhost")
		viper.SetDefault("POSTGRES_PORT", "5432")
		viper.SetDefault("POSTGRES_DB", "sketchxpad")
		viper.SetDefault("POSTGRES_SSLMODE", "disable")
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Host:         viper.GetString("SKETCHXPAD_HOST"),
				Port:         viper.GetString("SKETCHXPAD_PORT"),
				ReadTimeout:  viper.GetDuration("SKETCHXPAD_READ_TIMEOUT"),
				WriteTimeout: viper.GetDuration("SKETCHXPAD_WRITE_TIMEOUT"),
				IdleTimeout:  viper.GetDuration("SKETCHXPAD_IDLE_TIMEOUT"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("POSTGRES_HOST"),
				Port:     viper.GetString("POSTGRES_PORT"),
				User:     viper.GetString("POSTGRES_USER"),
				Password: viper.GetString("POSTGRES_PASSWORD"),
				DBName:   viper.GetString("POSTGRES_DB"),
				SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
				URL:      viper.GetString("DATABASE_URL"),
			},
			Redis: RedisConfig{
				URL: viper.GetString("REDIS_URL"),
			},
			JWT: JWTConfig{
				Secret:         viper.GetString("SKETCHXPAD_JWT_SECRET"),
				ExpirationTime: viper.GetDuration("SKETCHXPAD_JWT_EXPIRE"),
			},
			Kafka: KafkaConfig{
				Brokers: viper.GetStringSlice("KAFKA_BROKERS"),
				Topic:   viper.GetString("KAFKA_TOPIC"),
			},
		}
	})

	return instance, nil
}

// DSN builds the postgres connection string the gorm driver consumes.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.DBName, d.Port, d.SSLMode)
}
