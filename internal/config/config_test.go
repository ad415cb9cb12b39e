package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "America/Argentina/Cordoba", cfg.Venue.Timezone)
	assert.True(t, cfg.Venue.WrapPriceWindows)
	assert.True(t, cfg.Venue.RequireActive)
	assert.Equal(t, 5, cfg.Venue.UpcomingCount)
	assert.Equal(t, 800, cfg.Venue.UpcomingCapacity)
	assert.Equal(t, "none", cfg.Printer.Mode)
	assert.Equal(t, []string{"owner"}, cfg.Auth.CloseEventRoles)
	assert.Len(t, cfg.Kafka.Topics.All(), 3)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("PRINTER_MODE", "RELAY")
	t.Setenv("IDEMPOTENCY_TTL", "10m")
	t.Setenv("PRICE_WINDOW_WRAP_MIDNIGHT", "false")
	t.Setenv("CLOSE_EVENT_ROLES", "owner,manager")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "relay", cfg.Printer.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Redis.IdempotencyTTL)
	assert.False(t, cfg.Venue.WrapPriceWindows)
	assert.Equal(t, []string{"owner", "manager"}, cfg.Auth.CloseEventRoles)
}

func TestDatabaseURL(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", Username: "u", Password: "p", Database: "box", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@db:5432/box?sslmode=disable", d.URL())

	d.DSN = "postgres://other"
	assert.Equal(t, "postgres://other", d.URL())
}

func TestQuantityLimit(t *testing.T) {
	assert.Equal(t, 100, Load().Venue.QuantityLimit())

	t.Setenv("SALE_MAX_QUANTITY", "20")
	assert.Equal(t, 20, Load().Venue.QuantityLimit())

	assert.Equal(t, math.MaxInt32, VenueConfig{MaxQuantity: 0}.QuantityLimit())
	assert.Equal(t, math.MaxInt32, VenueConfig{MaxQuantity: math.MaxInt32 + 1}.QuantityLimit())
}

func TestVenueLocationFallback(t *testing.T) {
	v := VenueConfig{Timezone: "Not/AZone"}
	assert.Equal(t, time.UTC, v.Location())
}
