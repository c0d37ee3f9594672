package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"telecom-scraper/models"
)

// Scrape modes.
const (
	ModeFull  = "full"
	ModeLight = "light"
)

// Config holds all run configuration loaded from environment variables.
type Config struct {
	Mode        string
	ForceUpdate bool
	Kinds       []models.Kind

	DataDir       string
	ProvidersFile string
	LogLevel      string
	RejectsCSV    string

	MaxRetries     int
	PageTimeoutSec int
	RenderWaitMs   int
	ChromeBin      string
	UserAgent      string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Warnings collects problems found while loading; main logs them once the
	// logger exists.
	Warnings []string
}

// Load reads the .env file, if any, and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() *Config {
	cfg := &Config{
		ForceUpdate: getEnvBool("FORCE_UPDATE", false),

		DataDir:       getEnv("DATA_DIR", "./data"),
		ProvidersFile: getEnv("PROVIDERS_FILE", "./providers.yaml"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		RejectsCSV:    getEnv("REJECTS_CSV_PATH", ""),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		PageTimeoutSec: getEnvInt("PAGE_TIMEOUT_SEC", 30),
		RenderWaitMs:   getEnvInt("RENDER_WAIT_MS", 3000),
		ChromeBin:      getEnv("CHROME_BIN", ""),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "telecom_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
	}

	cfg.Mode = parseMode(getEnv("SCRAPER_TYPE", ModeFull), cfg)
	cfg.Kinds = parseKinds(getEnv("SCRAPE_KINDS", ""), cfg)
	return cfg
}

// SnapshotPath is where the snapshot document for kind lives.
func (c *Config) SnapshotPath(kind models.Kind) string {
	return filepath.Join(c.DataDir, kind.FileName())
}

// RejectsPath is where dropped candidates of kind are written, or "" when
// REJECTS_CSV_PATH is unset. The kind is appended to the file stem.
func (c *Config) RejectsPath(kind models.Kind) string {
	if c.RejectsCSV == "" {
		return ""
	}
	ext := filepath.Ext(c.RejectsCSV)
	return strings.TrimSuffix(c.RejectsCSV, ext) + "_" + string(kind) + ext
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func parseMode(val string, cfg *Config) string {
	switch mode := strings.ToLower(strings.TrimSpace(val)); mode {
	case ModeFull, ModeLight:
		return mode
	default:
		cfg.Warnings = append(cfg.Warnings, "unknown SCRAPER_TYPE "+strconv.Quote(val)+", using full")
		return ModeFull
	}
}

func parseKinds(val string, cfg *Config) []models.Kind {
	if strings.TrimSpace(val) == "" {
		return append([]models.Kind(nil), models.AllKinds...)
	}

	seen := make(map[models.Kind]bool)
	var kinds []models.Kind
	for _, part := range strings.Split(val, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		kind, ok := models.ParseKind(part)
		if !ok {
			cfg.Warnings = append(cfg.Warnings, "ignoring unknown kind "+strconv.Quote(part)+" in SCRAPE_KINDS")
			continue
		}
		if !seen[kind] {
			seen[kind] = true
			kinds = append(kinds, kind)
		}
	}
	if len(kinds) == 0 {
		cfg.Warnings = append(cfg.Warnings, "SCRAPE_KINDS selected nothing, running all kinds")
		return append([]models.Kind(nil), models.AllKinds...)
	}
	return kinds
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
	}
	return fallback
}
