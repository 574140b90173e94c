package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors and halts execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Auth mode values. ModeToken issues JWT access/refresh pairs; ModeSession
// keeps a server-side session keyed by an opaque cookie. The two are
// interchangeable strategies over the same member store.
const (
	ModeToken   = "token"
	ModeSession = "session"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable: strings for identifiers and secrets, ints for
// durations and costs.
type Config struct {
	Env             string // application environment (e.g. "dev", "prod")
	Port            string // HTTP port to listen on
	DBUser          string // database username
	DBPass          string // database password (optional)
	DBHost          string // database host address
	DBPort          string // database port number
	DBName          string // database name
	AuthMode        string // "token" or "session"
	AccessSecret    string // secret used to sign access tokens
	RefreshSecret   string // separate secret used to sign refresh tokens
	AccessTTLMin    int    // access token time-to-live in minutes
	RefreshTTLHours int    // refresh token time-to-live in hours
	SessionTTLHours int    // server-side session time-to-live in hours
	BcryptCost      int    // bcrypt cost for password hashing
	UploadDir       string // directory for uploaded post attachments
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must(); missing values cause
// the program to exit with a fatal log message.
func Load() Config {
	mode := os.Getenv("AUTH_MODE")
	if mode != ModeSession {
		mode = ModeToken // token mode is the default
	}
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		AuthMode:        mode,
		AccessSecret:    must("ACCESS_SECRET"),
		RefreshSecret:   must("REFRESH_SECRET"),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLHours: mustInt("REFRESH_TOKEN_TTL_HOURS"),
		SessionTTLHours: envIntDefault("SESSION_TTL_HOURS", 12),
		BcryptCost:      mustInt("BCRYPT_COST"),
		UploadDir:       envStrDefault("UPLOAD_DIR", "static/uploads"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
