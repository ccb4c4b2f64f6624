package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Payment  PaymentConfig
	Booking  BookingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

type PaymentConfig struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

type BookingConfig struct {
	AdvanceCents    int
	AvailabilityTTL time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	postgresHost := os.Getenv("POSTGRES_HOST")
	if postgresHost == "" {
		postgresHost = "localhost"
	}

	postgresPortStr := os.Getenv("POSTGRES_PORT")
	if postgresPortStr == "" {
		postgresPortStr = "5432"
	}

	postgresPort, err := strconv.Atoi(postgresPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid POSTGRES_PORT: %w", op, err)
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_USER", op)
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_PASSWORD", op)
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return nil, fmt.Errorf("%s: missing POSTGRES_DB", op)
	}

	postgresSSLMode := os.Getenv("POSTGRES_SSLMODE")
	if postgresSSLMode == "" {
		postgresSSLMode = "disable"
	}

	postgresCfg := PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     postgresHost,
		Port:     postgresPort,
		SSLMode:  postgresSSLMode,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: "",
		DB:       0,
	}

	paymentBaseURL := os.Getenv("PAYMENT_BASE_URL")
	if paymentBaseURL == "" {
		paymentBaseURL = "https://api.razorpay.com"
	}

	paymentKeyID := os.Getenv("PAYMENT_KEY_ID")
	if paymentKeyID == "" {
		return nil, fmt.Errorf("%s: missing PAYMENT_KEY_ID", op)
	}

	paymentKeySecret := os.Getenv("PAYMENT_KEY_SECRET")
	if paymentKeySecret == "" {
		return nil, fmt.Errorf("%s: missing PAYMENT_KEY_SECRET", op)
	}

	paymentTimeout := 10 * time.Second
	if s := os.Getenv("PAYMENT_TIMEOUT"); s != "" {
		paymentTimeout, err = time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid PAYMENT_TIMEOUT: %w", op, err)
		}
	}

	paymentCfg := PaymentConfig{
		BaseURL:   paymentBaseURL,
		KeyID:     paymentKeyID,
		KeySecret: paymentKeySecret,
		Timeout:   paymentTimeout,
	}

	advanceCents := 50000
	if s := os.Getenv("BOOKING_ADVANCE_CENTS"); s != "" {
		advanceCents, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid BOOKING_ADVANCE_CENTS: %w", op, err)
		}
	}

	availabilityTTL := 15 * time.Second
	if s := os.Getenv("AVAILABILITY_TTL"); s != "" {
		availabilityTTL, err = time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid AVAILABILITY_TTL: %w", op, err)
		}
	}

	bookingCfg := BookingConfig{
		AdvanceCents:    advanceCents,
		AvailabilityTTL: availabilityTTL,
	}

	return &Config{
		Server:   serverCfg,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Payment:  paymentCfg,
		Booking:  bookingCfg,
	}, nil
}
