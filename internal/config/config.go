package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string

	DataFile   string
	BackupDir  string
	CatalogDir string

	UndoWindow       time.Duration
	BackupRetention  time.Duration
	LockTimeout      time.Duration
	SessionTTL       time.Duration
	LinkCheckTimeout time.Duration

	SearchPerMinute int
	BatchPerMinute  int
	// TrustProxy lets X-Real-IP / X-Forwarded-For pick the rate-limit bucket.
	TrustProxy      bool
}

// Load reads .env (if present) and then the environment.
func Load() Config {
	_ = godotenv.Load()

	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         getint("PORT", 8082),
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		MaxUploadMB:  getint("MAX_UPLOAD_MB", 10),
		LogFile:      getenv("LOG_FILE", "logs/xref-service.log"),

		DataFile:   getenv("DATA_FILE", "Portfolio_Syskomp_pA.csv"),
		BackupDir:  getenv("BACKUP_DIR", "backups"),
		CatalogDir: getenv("CATALOG_DIR", "."),

		UndoWindow:       getdur("UNDO_WINDOW", 3*time.Minute),
		BackupRetention:  getdur("BACKUP_RETENTION", 24*time.Hour),
		LockTimeout:      getdur("LOCK_TIMEOUT", 5*time.Second),
		SessionTTL:       getdur("SESSION_TTL", 30*time.Minute),
		LinkCheckTimeout: getdur("LINK_CHECK_TIMEOUT", 10*time.Second),

		SearchPerMinute: getint("RATE_SEARCH_PER_MIN", 30),
		BatchPerMinute:  getint("RATE_BATCH_PER_MIN", 10),
		TrustProxy:      getbool("TRUST_PROXY", false),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) << 20 }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil {
		return def
	}
	return n
}

// getdur accepts Go durations ("90s") and plain seconds ("90").
func getdur(k string, def time.Duration) time.Duration {
	v := getenv(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func getbool(k string, def bool) bool {
	b, err := strconv.ParseBool(getenv(k, ""))
	if err != nil {
		return def
	}
	return b
}
