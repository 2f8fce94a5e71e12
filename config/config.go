package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// DefaultSuperAdminPassword is accepted only by the in-memory store.
const DefaultSuperAdminPassword = "superadmin"

type Config struct {
	Version string
	Port    string

	SecretKey  string
	TokenTTL   time.Duration
	BcryptCost int

	StoreDriver   string
	MongoURI      string
	MongoDatabase string

	// Optional. When set, bookings live in Postgres instead of the record store.
	BookingsPostgresDSN string

	// Optional. When set, available seats are served from a Redis snapshot.
	RedisAddr     string
	RedisPassword string
	SeatCacheTTL  time.Duration

	CORSAllowOrigins string

	SuperAdmin SuperAdmin
}

// SuperAdmin describes the bootstrap account. cmd/create-superadmin creates it
// in persistent stores; the memory store is seeded when the server opens it.
type SuperAdmin struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
	Mobile    string
}

func GetSecret(key string) (string, error) {
	val, exist := os.LookupEnv(key)
	if exist {
		return val, nil
	}
	return "", fmt.Errorf("no env variable with key %v", key)
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret, err := GetSecret("SECRET_KEY")
	if err != nil || strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("SECRET_KEY must be set")
	}

	tokenTTL, err := getDuration("TOKEN_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cacheTTL, err := getDuration("SEAT_CACHE_TTL", 5*time.Second)
	if err != nil {
		return nil, err
	}
	bcryptCost, err := getInt("BCRYPT_COST", 12)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Version: getEnv("VERSION", "v1"),
		Port:    getEnv("PORT", "8080"),

		SecretKey:  secret,
		TokenTTL:   tokenTTL,
		BcryptCost: bcryptCost,

		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "bus-booking"),

		BookingsPostgresDSN: os.Getenv("BOOKINGS_POSTGRES_DSN"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SeatCacheTTL:  cacheTTL,

		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),

		SuperAdmin: SuperAdmin{
			Username:  getEnv("SUPERADMIN_USERNAME", "superadmin"),
			Password:  getEnv("SUPERADMIN_PASSWORD", DefaultSuperAdminPassword),
			Email:     getEnv("SUPERADMIN_EMAIL", "superadmin@example.com"),
			FirstName: getEnv("SUPERADMIN_FIRSTNAME", "Super"),
			LastName:  getEnv("SUPERADMIN_LASTNAME", "Admin"),
			Mobile:    getEnv("SUPERADMIN_MOBILE", "1234567890"),
		},
	}

	switch cfg.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if tokenTTL < 0 {
		return nil, fmt.Errorf("TOKEN_TTL must not be negative")
	}

	return cfg, nil
}

// CheckSuperAdmin rejects the default bootstrap password outside the memory
// store.
func (c *Config) CheckSuperAdmin() error {
	if c.StoreDriver != DriverMemory && c.SuperAdmin.Password == DefaultSuperAdminPassword {
		return fmt.Errorf("SUPERADMIN_PASSWORD must be set to a non-default value for the %s store", c.StoreDriver)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value, err := GetSecret(key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, defaultValue int) (int, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
