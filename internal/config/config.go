package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Migrate  MigrationConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Venue    VenueConfig
	Printer  PrinterConfig
	Auth     AuthConfig
	QR       QRConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	DSN          string
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	ConnectRetry int
}

// URL returns DSN when set, otherwise a postgres:// URL built from the parts.
func (d DatabaseConfig) URL() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.SSLMode)
}

type MigrationConfig struct {
	Dir      string
	Auto     bool
	SeedFile string
}

type RedisConfig struct {
	Enabled        bool
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
	DashboardTTL   time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	GroupID string
	Topics  TopicConfig
}

type TopicConfig struct {
	SaleRecorded string
	EventClosed  string
	PrintJobs    string
}

// All returns every topic the service publishes to.
func (t TopicConfig) All() []string {
	return []string{t.SaleRecorded, t.EventClosed, t.PrintJobs}
}

type VenueConfig struct {
	Name             string
	Timezone         string
	WrapPriceWindows bool
	RequireActive    bool
	UpcomingCount    int
	UpcomingCapacity int
	UpcomingHour     int
	UpcomingSchedule string
	MaxQuantity      int
}

// Location loads the venue timezone, falling back to UTC.
func (v VenueConfig) Location() *time.Location {
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// QuantityLimit is the largest quantity one sale, correction or presale may
// carry. It never exceeds the range of the cantidad INTEGER columns.
func (v VenueConfig) QuantityLimit() int {
	if v.MaxQuantity < 1 || v.MaxQuantity > math.MaxInt32 {
		return math.MaxInt32
	}
	return v.MaxQuantity
}

type PrinterConfig struct {
	Mode     string // none, relay or queue
	RelayURL string
	Timeout  time.Duration
	Device   string
}

type AuthConfig struct {
	OIDCIssuer      string
	JWTSecret       string
	RoleClaim       string
	CloseEventRoles []string
	CatalogRoles    []string
}

type QRConfig struct {
	Secret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", ":8084"),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Database: DatabaseConfig{
			DSN:          getEnv("POSTGRES_DSN", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "boxoffice"),
			Password:     getEnv("DB_PASSWORD", "boxoffice"),
			Database:     getEnv("DB_NAME", "boxoffice"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
			ConnectRetry: getEnvInt("DB_CONNECT_RETRIES", 5),
		},
		Migrate: MigrationConfig{
			Dir:      getEnv("MIGRATIONS_DIR", "./migrations"),
			Auto:     getEnvBool("AUTO_MIGRATE", true),
			SeedFile: getEnv("SEED_FILE", ""),
		},
		Redis: RedisConfig{
			Enabled:        getEnvBool("REDIS_ENABLED", true),
			Addr:           getEnv("REDIS_ADDR", "localhost:6379"),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvInt("REDIS_DB", 0),
			IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
			DashboardTTL:   getEnvDuration("DASHBOARD_CACHE_TTL", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
			GroupID: getEnv("KAFKA_GROUP_ID", "boxoffice-print-worker"),
			Topics: TopicConfig{
				SaleRecorded: getEnv("KAFKA_TOPIC_SALES", "boxoffice.sales.recorded"),
				EventClosed:  getEnv("KAFKA_TOPIC_CLOSES", "boxoffice.events.closed"),
				PrintJobs:    getEnv("KAFKA_TOPIC_PRINT", "boxoffice.print.jobs"),
			},
		},
		Venue: VenueConfig{
			Name:             getEnv("VENUE_NAME", "SANTAS"),
			Timezone:         getEnv("VENUE_TIMEZONE", "America/Argentina/Cordoba"),
			// Overnight windows such as 23:00-01:00 wrap past midnight unless
			// the venue opts into same-day-only matching (DESIGN.md, open
			// question decisions).
			WrapPriceWindows: getEnvBool("PRICE_WINDOW_WRAP_MIDNIGHT", true),
			RequireActive:    getEnvBool("SALES_REQUIRE_ACTIVE_EVENT", true),
			UpcomingCount:    getEnvInt("UPCOMING_SATURDAYS", 5),
			UpcomingCapacity: getEnvInt("UPCOMING_CAPACITY", 800),
			UpcomingHour:     getEnvInt("UPCOMING_HOUR", 23),
			UpcomingSchedule: getEnv("UPCOMING_CRON", "0 6 * * *"),
			MaxQuantity:      getEnvInt("SALE_MAX_QUANTITY", 100),
		},
		Printer: PrinterConfig{
			Mode:     strings.ToLower(getEnv("PRINTER_MODE", "none")),
			RelayURL: getEnv("PRINT_RELAY_URL", "http://localhost:3001"),
			Timeout:  getEnvDuration("PRINT_TIMEOUT", 5*time.Second),
			Device:   getEnv("PRINTER_DEVICE", "/dev/usb/lp0"),
		},
		Auth: AuthConfig{
			OIDCIssuer:      getEnv("OIDC_ISSUER", ""),
			JWTSecret:       getEnv("JWT_SECRET", ""),
			RoleClaim:       getEnv("AUTH_ROLE_CLAIM", "role"),
			CloseEventRoles: getEnvList("CLOSE_EVENT_ROLES", []string{"owner"}),
			CatalogRoles:    getEnvList("CATALOG_WRITE_ROLES", []string{"owner"}),
		},
		QR: QRConfig{
			Secret: getEnv("QR_SECRET_KEY", "boxoffice-dev-secret"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
