package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration, read once at startup and passed down.
type Config struct {
	Addr   string
	AppEnv string

	DBDriver string
	DBDSN    string

	StorageDriver string
	StorageDir    string
	S3            S3Config

	RedisURL string
	Workers  int

	// SweepInterval is how often registrants still missing a confirmation are
	// re-queued; SweepEnabled turns the loop off.
	SweepEnabled  bool
	SweepInterval time.Duration

	PDFTemplateURL string
	PDFFontURL     string

	WhatsApp WhatsAppConfig

	DefaultCountryCode string
	Timezone           string

	AdminPassword     string
	AdminPasswordHash string
	JWTSecret         string

	Google GoogleConfig

	CORSOrigins []string

	NameMinTokens  int
	PassportRule   string
	MaxUploadBytes int64
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	PathStyle bool
}

type WhatsAppConfig struct {
	BaseURL  string
	Username string
	Password string
	Retries  int
	Timeout  time.Duration
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// Load reads an optional .env file and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables, applying defaults.
func FromEnv() Config {
	return Config{
		Addr:   getEnv("ADDR", ":8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		DBDriver: getEnv("DB_DRIVER", "sqlite"),
		DBDSN:    getEnv("DB_DSN", "wisuda.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"),

		StorageDriver: getEnv("STORAGE_DRIVER", "disk"),
		StorageDir:    getEnv("STORAGE_DIR", "uploads"),
		S3: S3Config{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			Bucket:    os.Getenv("S3_BUCKET"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			PathStyle: getBool("S3_PATH_STYLE", true),
		},

		RedisURL: os.Getenv("REDIS_URL"),
		Workers:  getInt("WORKERS", 2),

		SweepEnabled:  getBool("SWEEP_ENABLED", true),
		SweepInterval: getDuration("SWEEP_INTERVAL", 15*time.Minute),

		PDFTemplateURL: os.Getenv("PDF_TEMPLATE_URL"),
		PDFFontURL:     os.Getenv("PDF_FONT_URL"),

		WhatsApp: WhatsAppConfig{
			BaseURL:  os.Getenv("WHATSAPP_BASE_URL"),
			Username: os.Getenv("WHATSAPP_USERNAME"),
			Password: os.Getenv("WHATSAPP_PASSWORD"),
			Retries:  getInt("WHATSAPP_RETRIES", 2),
			Timeout:  getDuration("WHATSAPP_TIMEOUT", 30*time.Second),
		},

		DefaultCountryCode: getEnv("DEFAULT_COUNTRY_CODE", "62"),
		Timezone:           getEnv("TIMEZONE", "Africa/Cairo"),

		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret-change-me"),

		Google: GoogleConfig{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("GOOGLE_REDIRECT_URI"),
		},

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),

		NameMinTokens:  getInt("NAME_MIN_TOKENS", 1),
		PassportRule:   getEnv("PASSPORT_RULE", "always"),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_MB", 5)) << 20,
	}
}

// Production reports whether the app runs with production settings.
func (c Config) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Location resolves Timezone, falling back to a fixed UTC+2 zone when tzdata is missing.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.FixedZone("EET", 2*3600)
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	out := []string{}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
