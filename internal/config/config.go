package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// LogLevel represents the logging severity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Environment constants.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
	EnvironmentTest        = "test"
)

const defaultDatabaseFilename = "linkdrop.db"

// Config encapsulates runtime configuration sourced from environment variables.
type Config struct {
	AppName     string `envconfig:"LINKDROP_APP_NAME" default:"linkdrop"`
	Environment string `envconfig:"LINKDROP_ENV" default:"development"`
	Port        string `envconfig:"LINKDROP_PORT" default:"8080"`
	Debug       bool   `envconfig:"LINKDROP_DEBUG" default:"false"`

	LogLevel         LogLevel `envconfig:"LINKDROP_LOG_LEVEL" default:"info"`
	LogsDirectory    string   `envconfig:"LINKDROP_LOGS_DIR" default:"storage/logs"`
	LogsMaxSizeInMB  int      `envconfig:"LINKDROP_LOGS_MAX_SIZE_MB" default:"20"`
	LogsMaxBackups   int      `envconfig:"LINKDROP_LOGS_MAX_BACKUPS" default:"10"`
	LogsMaxAgeInDays int      `envconfig:"LINKDROP_LOGS_MAX_AGE_DAYS" default:"30"`

	DataDirectory        string `envconfig:"LINKDROP_DATA_DIR" default:"storage"`
	DatabaseFilename     string `envconfig:"LINKDROP_DATABASE_FILENAME" default:"linkdrop.db"`
	DatabasePathOverride string `envconfig:"LINKDROP_DATABASE_PATH"`
	DatabasePath         string
	DatabaseMaxOpenConns int `envconfig:"LINKDROP_DB_MAX_OPEN_CONNS" default:"0"`
	DatabaseMaxIdleConns int `envconfig:"LINKDROP_DB_MAX_IDLE_CONNS" default:"0"`

	// Security: bearer token protecting the admin API. Auto-generated if not provided.
	AdminToken string `envconfig:"LINKDROP_ADMIN_TOKEN"`

	// Quota engine. RoleLimits maps role ids to weekly claim allowances,
	// formatted as "role:limit" pairs separated by commas.
	RoleLimits    string        `envconfig:"LINKDROP_ROLE_LIMITS" default:"verified:3,burning:20,booster:20"`
	UsageWindow   time.Duration `envconfig:"LINKDROP_USAGE_WINDOW" default:"168h"`
	SweepInterval time.Duration `envconfig:"LINKDROP_SWEEP_INTERVAL" default:"24h"`

	ClaimRatePerMinute int `envconfig:"LINKDROP_CLAIM_RATE_PER_MINUTE" default:"30"`

	// Outbound collaborators (link reachability probe, delivery webhook).
	CollaboratorTimeout time.Duration `envconfig:"LINKDROP_COLLABORATOR_TIMEOUT" default:"5s"`

	Delivery DeliveryConfig
}

// DeliveryConfig configures outbound delivery of claimed links.
type DeliveryConfig struct {
	URL             string `envconfig:"LINKDROP_DELIVERY_URL"`
	Secret          string `envconfig:"LINKDROP_DELIVERY_SECRET"`
	SignatureHeader string `envconfig:"LINKDROP_DELIVERY_SIGNATURE_HEADER" default:"X-Linkdrop-Signature"`
}

var (
	cfgOnce sync.Once
	cfgInst *Config
)

// Get returns the singleton configuration instance populated from environment variables.
func Get() *Config {
	cfgOnce.Do(func() {
		cfgInst = &Config{}
		if err := envconfig.Process("", cfgInst); err != nil {
			log.Fatalf("config: failed to process environment variables: %v", err)
		}

		cfgInst.DatabasePath = cfgInst.resolveDatabasePath()
		cfgInst.ensureDirectories()

		if err := cfgInst.Validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}
	})
	return cfgInst
}

func (c *Config) Validate() error {
	var problems []string

	// In production, REQUIRE the admin token
	if c.IsProduction() {
		if c.AdminToken == "" {
			problems = append(problems, "LINKDROP_ADMIN_TOKEN is REQUIRED in production (generate with: openssl rand -hex 32)")
		}
	} else {
		// Auto-generate the token in non-production (with a warning)
		if c.AdminToken == "" {
			c.AdminToken = generateSecret()
			log.Println("⚠️  LINKDROP_ADMIN_TOKEN not set - generated random token (changes on every restart)")
		}
	}

	switch c.Environment {
	case EnvironmentDevelopment, EnvironmentProduction, EnvironmentTest:
	default:
		problems = append(problems, fmt.Sprintf("invalid LINKDROP_ENV value %q", c.Environment))
	}

	if _, err := ParseRoleLimits(c.RoleLimits); err != nil {
		problems = append(problems, fmt.Sprintf("invalid LINKDROP_ROLE_LIMITS: %v", err))
	}

	if c.UsageWindow <= 0 {
		problems = append(problems, "LINKDROP_USAGE_WINDOW must be positive")
	}
	if c.SweepInterval <= 0 {
		problems = append(problems, "LINKDROP_SWEEP_INTERVAL must be positive")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ParseRoleLimits parses a "role:limit,role:limit" specification into a lookup table.
func ParseRoleLimits(spec string) (map[string]int, error) {
	limits := make(map[string]int)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		role, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("entry %q is not role:limit", pair)
		}
		role = strings.TrimSpace(role)
		if role == "" {
			return nil, fmt.Errorf("entry %q has an empty role", pair)
		}
		limit, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || limit < 0 {
			return nil, fmt.Errorf("entry %q has an invalid limit", pair)
		}
		limits[role] = limit
	}
	return limits, nil
}

// GetRoleLimits returns the parsed role limit table.
func (c *Config) GetRoleLimits() map[string]int {
	limits, err := ParseRoleLimits(c.RoleLimits)
	if err != nil {
		// Validate() already rejected malformed specs; an empty table makes every role ineligible.
		return map[string]int{}
	}
	return limits
}

func generateSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatalf("failed to generate random secret: %v", err)
	}
	return hex.EncodeToString(b)
}

// DatabaseDSN returns the DSN for opening the SQLite database.
func (c *Config) DatabaseDSN() string {
	return c.DatabasePath
}

// IsDevelopment reports whether the application runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

// IsProduction reports whether the application runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// IsTest reports whether the application runs in test mode.
func (c *Config) IsTest() bool {
	return c.Environment == EnvironmentTest
}

// GetMaxOpenConns returns configured or environment-specific max open connections.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}
	if c.IsProduction() {
		return 10
	}
	return 1
}

// GetMaxIdleConns returns configured or environment-specific max idle connections.
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}
	if c.IsProduction() {
		return 5
	}
	return 1
}

func (c *Config) ensureDirectories() {
	if err := os.MkdirAll(c.DataDirectory, 0o755); err != nil {
		log.Printf("config: failed to create data directory %q: %v", c.DataDirectory, err)
	}

	if err := os.MkdirAll(c.LogsDirectory, 0o755); err != nil {
		log.Printf("config: failed to create logs directory %q: %v", c.LogsDirectory, err)
	}
}

func (c *Config) resolveDatabasePath() string {
	if c.DatabasePathOverride != "" {
		if filepath.IsAbs(c.DatabasePathOverride) {
			return c.DatabasePathOverride
		}
		return filepath.Join(c.DataDirectory, c.DatabasePathOverride)
	}

	filename := c.DatabaseFilename
	if filename == "" {
		filename = defaultDatabaseFilename
	}

	if strings.EqualFold(filename, defaultDatabaseFilename) {
		filename = addEnvironmentSuffix(filename, c.Environment)
	}

	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(c.DataDirectory, filename)
}

func addEnvironmentSuffix(filename, environment string) string {
	env := strings.ToLower(strings.TrimSpace(environment))
	if env == "" {
		env = EnvironmentDevelopment
	}

	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	if ext == "" {
		ext = ".db"
	}
	return fmt.Sprintf("%s.%s%s", base, env, ext)
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	cfgOnce = sync.Once{}
	cfgInst = nil
}
