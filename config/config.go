package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type Config struct {
	DatabaseURL       string `envconfig:"DATABASE_URL"        required:"true"`
	HTTPPort          string `envconfig:"HTTP_PORT"           default:":8082"`
	CatalogGrpcPort   string `envconfig:"CATALOG_GRPC_PORT"   default:":50051"`
	CatalogGrpcTarget string `envconfig:"CATALOG_GRPC_TARGET" default:"localhost:50051"`
	LogLevel          string `envconfig:"LOG_LEVEL"           default:"info"`
	JWTSecret         string `envconfig:"JWT_SECRET"`

	DeliveryFee            int64         `envconfig:"DELIVERY_FEE"             default:"1500"`
	CheckoutSessionTTL     time.Duration `envconfig:"CHECKOUT_SESSION_TTL"     default:"2h"`
	PaymentReferencePrefix string        `envconfig:"PAYMENT_REFERENCE_PREFIX" default:"delxta"`

	PaystackSecretKey   string        `envconfig:"PAYSTACK_SECRET_KEY"`
	PaystackBaseURL     string        `envconfig:"PAYSTACK_BASE_URL"     default:"https://api.paystack.co"`
	PaystackCallbackURL string        `envconfig:"PAYSTACK_CALLBACK_URL"`
	GatewayTimeout      time.Duration `envconfig:"GATEWAY_TIMEOUT"       default:"10s"`

	RabbitMQURL               string `envconfig:"RABBITMQ_URL"`
	NotificationsExchange     string `envconfig:"NOTIFICATIONS_EXCHANGE"      default:"notifications_fanout"`
	OrderNotificationsEnabled bool   `envconfig:"ORDER_NOTIFICATIONS_ENABLED" default:"true"`
}

var (
	config  Config
	once    sync.Once
	loadErr error
)

// LoadConfig reads .env (if present) and the process environment exactly once.
// Everything downstream receives the returned value; nothing reads the environment later.
func LoadConfig(logger *logrus.Logger) (*Config, error) {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		loadErr = envconfig.Process("", &config)
		if loadErr == nil {
			loadErr = config.Validate()
		}
		if loadErr != nil {
			return
		}

		logger.Infof("Configuration loaded: HTTP Port=%s, Catalog gRPC=%s, LogLevel=%s, SessionTTL=%s",
			config.HTTPPort, config.CatalogGrpcTarget, config.LogLevel, config.CheckoutSessionTTL)
		if config.PaystackSecretKey == "" {
			logger.Warn("Configuration: PAYSTACK_SECRET_KEY is not set, hosted gateway payments will fail")
		}
		if config.RabbitMQURL == "" {
			logger.Warn("Configuration: RABBITMQ_URL is not set, notifications will only be logged")
		}
	})
	if loadErr != nil {
		return nil, loadErr
	}
	return &config, nil
}

// Validate rejects values that would break checkout pricing or session handling.
func (c *Config) Validate() error {
	if c.DeliveryFee <= 0 {
		return fmt.Errorf("DELIVERY_FEE must be positive, got %d", c.DeliveryFee)
	}
	if c.CheckoutSessionTTL <= 0 {
		return fmt.Errorf("CHECKOUT_SESSION_TTL must be positive, got %s", c.CheckoutSessionTTL)
	}
	return nil
}

// ParseLogLevel falls back to info when the configured level is unknown.
func ParseLogLevel(level string, logger *logrus.Logger) logrus.Level {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Invalid LOG_LEVEL '%s', using default: %s", level, logrus.InfoLevel.String())
		return logrus.InfoLevel
	}
	return logLevel
}
