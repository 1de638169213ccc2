package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	MailSMTP = "smtp"
	MailAMQP = "amqp"
)

type Config struct {
	Port            string
	JWTSecret       string
	SessionTTL      time.Duration
	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	DatabaseURL     string
	BcryptCost      int
	AllowOrigins    []string
	LogstashTCPAddr string
	LogLevel        string
	SwaggerSpecPath string

	FrontendBaseURL  string
	PublicBaseURL    string
	PasswordResetTTL time.Duration

	MailTransport string
	SMTPHost      string
	SMTPPort      string
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	SMTPUseTLS    bool
	RabbitMQURL   string

	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	RateLimitEnabled        bool
	RateLimitCapacity       int
	RateLimitRefillInterval time.Duration
}

// Load reads the API configuration from the environment (and .env when
// present). It panics when a required variable for the selected drivers is
// missing.
func Load() Config {
	cfg := read()
	cfg.JWTSecret = must("JWT_SECRET")
	switch cfg.StoreDriver {
	case StoreMongo:
		cfg.MongoURI = must("MONGO_URI")
	case StorePostgres:
		cfg.DatabaseURL = must("DATABASE_URL")
	case StoreMemory:
	default:
		panic("unknown STORE_DRIVER: " + cfg.StoreDriver)
	}
	if cfg.MailTransport == MailAMQP {
		cfg.RabbitMQURL = must("RABBITMQ_URL")
	}
	return cfg
}

// LoadMailWorker reads only what the mail worker needs: the broker, SMTP and
// logging settings.
func LoadMailWorker() Config {
	cfg := read()
	cfg.RabbitMQURL = must("RABBITMQ_URL")
	return cfg
}

func read() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	port := getenv("PORT", "8080")
	return Config{
		Port:            port,
		SessionTTL:      duration("SESSION_TTL", 7*24*time.Hour),
		StoreDriver:     strings.ToLower(getenv("STORE_DRIVER", StoreMongo)),
		MongoDatabase:   getenv("MONGO_DATABASE", "fitcity_auth"),
		BcryptCost:      integer("BCRYPT_COST", 10),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		SwaggerSpecPath: getenv("SWAGGER_SPEC_PATH", "docs/swagger.yaml"),

		FrontendBaseURL:  strings.TrimRight(getenv("FRONTEND_BASE_URL", ""), "/"),
		PublicBaseURL:    strings.TrimRight(getenv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
		PasswordResetTTL: duration("PASSWORD_RESET_TTL", time.Hour),

		MailTransport: strings.ToLower(getenv("MAIL_TRANSPORT", MailSMTP)),
		SMTPHost:      getenv("SMTP_HOST", ""),
		SMTPPort:      getenv("SMTP_PORT", ""),
		SMTPUsername:  getenv("SMTP_USERNAME", ""),
		SMTPPassword:  getenv("SMTP_PASSWORD", ""),
		SMTPFrom:      getenv("SMTP_FROM", ""),
		SMTPUseTLS:    getenv("SMTP_USE_TLS", "false") == "true",
		RabbitMQURL:   getenv("RABBITMQ_URL", ""),

		RedisAddr:               getenv("REDIS_ADDR", ""),
		RedisPassword:           getenv("REDIS_PASSWORD", ""),
		RedisDB:                 integer("REDIS_DB", 0),
		RateLimitEnabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitCapacity:       integer("RATE_LIMIT_CAPACITY", 10),
		RateLimitRefillInterval: duration("RATE_LIMIT_REFILL_INTERVAL", 6*time.Second),
	}
}

// ResetPageURL is where emailed reset links point. The API's own page is used
// when no frontend is configured.
func (c Config) ResetPageURL() string {
	base := c.FrontendBaseURL
	if base == "" {
		base = c.PublicBaseURL
	}
	return base + "/reset-password"
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func duration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s %q, using %s", k, raw, d)
		return d
	}
	return v
}

func integer(k string, d int) int {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s %q, using %d", k, raw, d)
		return d
	}
	return v
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
