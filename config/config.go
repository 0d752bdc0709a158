package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds runtime settings plus the shared Mongo client once connected.
type Config struct {
	Port        string
	Env         string
	StoreDriver string

	MongoURI    string
	DBName      string
	MongoClient *mongo.Client

	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int

	CORSOrigins []string

	RateLimitWindow  time.Duration
	RateLimitMax     int
	AuthRateLimitMax int

	MaxBodyBytes int64

	Cloudinary CloudinaryConfig
	Mail       MailConfig
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Enabled reports whether all credentials are present.
func (c CloudinaryConfig) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type MailConfig struct {
	APIURL string
	APIKey string
	From   string
}

func (m MailConfig) Enabled() bool {
	return m.APIURL != "" && m.APIKey != "" && m.From != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", getEnv("NODE_ENV", "development"))

	expires, err := parseExpiry(getEnv("JWT_EXPIRES_IN", "7d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}

	origins := []string{getEnv("CORS_ORIGIN", "http://localhost:3000")}
	for _, o := range strings.Split(os.Getenv("CORS_EXTRA_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	cfg := &Config{
		Port:             getEnv("PORT", "5000"),
		Env:              env,
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
		MongoURI:         getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:           getEnv("DB_NAME", "community_platform"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTExpiresIn:     expires,
		BcryptCost:       getEnvAsInt("BCRYPT_COST", getEnvAsInt("BCRYPT_SALT_ROUNDS", 12)),
		CORSOrigins:      origins,
		RateLimitWindow:  getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		RateLimitMax:     getEnvAsInt("RATE_LIMIT_MAX", 100),
		AuthRateLimitMax: getEnvAsInt("AUTH_RATE_LIMIT_MAX", 5),
		MaxBodyBytes:     int64(getEnvAsInt("MAX_BODY_BYTES", 10<<20)),
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnv("CLOUDINARY_FOLDER", "events"),
		},
		Mail: MailConfig{
			APIURL: os.Getenv("ZEPTO_API_URL"),
			APIKey: os.Getenv("ZEPTO_API_KEY"),
			From:   os.Getenv("EMAIL_FROM"),
		},
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = "dev-secret-change-me"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.StoreDriver != DriverMongo && c.StoreDriver != DriverMemory {
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	if c.JWTExpiresIn <= 0 {
		return errors.New("JWT_EXPIRES_IN must be positive")
	}
	return nil
}

// ConnectDB dials Mongo, pings it and stores the client on cfg.
func ConnectDB(ctx context.Context, cfg *Config) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	cfg.MongoClient = client
	return nil
}

// Database returns the configured database handle. MongoClient must be set.
func (c *Config) Database() *mongo.Database {
	return c.MongoClient.Database(c.DBName)
}

// parseExpiry accepts Go durations ("168h") and day counts ("7d").
func parseExpiry(v string) (time.Duration, error) {
	if strings.HasSuffix(v, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(v, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", v)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := parseExpiry(value); err == nil {
			return d
		}
	}
	return defaultValue
}
