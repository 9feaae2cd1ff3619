package shared

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Row source kinds.
const (
	SourceCSV        = "csv"
	SourceMySQL      = "mysql"
	SourceOutscraper = "outscraper"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string `validate:"required"`
	MetricsAddr string
	CORSOrigins []string

	Source   string `validate:"oneof=csv mysql outscraper"`
	CSVPath  string `validate:"required_if=Source csv"`
	MySQLDSN string `validate:"required_if=Source mysql"`
	// MySQLTable must be a plain identifier; it is interpolated into SELECT.
	MySQLTable string `validate:"required,sqlident"`

	OutscraperBase  string `validate:"required,url"`
	OutscraperKey   string `validate:"required_if=Source outscraper"`
	OutscraperQuery string `validate:"required_if=Source outscraper"`
	OutscraperLimit int    `validate:"gte=1,lte=5000"`
	OutscraperRPS   int    `validate:"gte=1"`

	RedisAddr string
	RedisPass string
	RedisDB   int           `validate:"gte=0"`
	CacheTTL  time.Duration `validate:"gte=0"`

	Workers int `validate:"gte=1"`
}

// CacheEnabled reports whether raw batches should go through redis.
func (c Config) CacheEnabled() bool { return c.CacheTTL > 0 && c.RedisAddr != "" }

// Load reads the environment, applies defaults and validates the result.
func Load() (Config, error) {
	var errs []error
	atoi := func(k string, def int) int {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			return def
		}
		return n
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		CORSOrigins: list(env("CORS_ORIGINS", "*")),

		Source:     strings.ToLower(env("SOURCE", SourceCSV)),
		CSVPath:    env("CSV_PATH", "restaurants.xlsx.csv"),
		MySQLDSN:   env("MYSQL_DSN", "root:root@tcp(localhost:3306)/qc?parseTime=true&charset=utf8mb4"),
		MySQLTable: env("MYSQL_TABLE", "restaurants"),

		OutscraperBase:  env("OUTSCRAPER_BASE_URL", "https://api.app.outscraper.com"),
		OutscraperKey:   env("OUTSCRAPER_API_KEY", ""),
		OutscraperQuery: env("OUTSCRAPER_QUERY", "restaurants, Quezon City, Philippines"),
		OutscraperLimit: atoi("OUTSCRAPER_LIMIT", 500),
		OutscraperRPS:   atoi("OUTSCRAPER_RPS", 2),

		RedisAddr: env("REDIS_ADDR", "localhost:6379"),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 0)) * time.Second,

		Workers: atoi("NORMALIZE_WORKERS", 4),
	}
	if len(errs) > 0 {
		return c, errors.Join(errs...)
	}
	if err := validate.Struct(c); err != nil {
		return c, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

var (
	validate = newValidator()
	sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return sqlIdent.MatchString(fl.Field().String())
	})
	return v
}

// list splits a comma separated value, dropping blanks.
func list(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
