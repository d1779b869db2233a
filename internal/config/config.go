package config

import (
	"os"
	"strings"
	"time"
)

type Source string

const (
	SourceCSV Source = "csv"
	SourceSQL Source = "sql"
)

const DefaultDataPath = "data/2025 Midyear_Final ICD-10-CM Mappings.csv"

type Config struct {
	HTTPAddr string

	Source    Source
	DataPath  string // csv source
	RulesFile string // optional YAML layout + scoring rules
	Watch     bool   // reload DataPath when it changes

	DBDriver string // sqlite|postgres
	DBDSN    string

	LogLevel  string
	LogFormat string // text|json

	CORSOrigins    []string
	RequestTimeout time.Duration
}

func FromEnv() Config {
	return Config{
		HTTPAddr:       envOr("HTTP_ADDR", ":8001"),
		Source:         Source(strings.ToLower(envOr("MEDSCORE_SOURCE", string(SourceCSV)))),
		DataPath:       envOr("MEDSCORE_DATA_PATH", DefaultDataPath),
		RulesFile:      os.Getenv("MEDSCORE_RULES_FILE"),
		Watch:          envBool("MEDSCORE_WATCH", false),
		DBDriver:       envOr("DB_DRIVER", "sqlite"),
		DBDSN:          envOr("DB_DSN", ""),
		LogLevel:       envOr("LOG_LEVEL", "info"),
		LogFormat:      envOr("LOG_FORMAT", "text"),
		CORSOrigins:    csvOr("CORS_ORIGINS", "*"),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}

func csvOr(k, def string) []string {
	return SplitList(envOr(k, def))
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
