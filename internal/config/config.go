package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/ballotd.db"

	// MasterSecret feeds the derived salt resolver.  In dev a fixed
	// fallback keeps the seeded election usable out of the box.
	MasterSecret string

	// Salt cache
	SaltCacheTTLSeconds   int
	SaltSweepIntervalSecs int
}

func FromEnv() Config {
	addr := getenvDefault("BALLOTD_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("BALLOTD_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("BALLOTD_DB_PATH", "./data/ballotd.db")

	master := os.Getenv("BALLOTD_MASTER_SECRET")
	if master == "" && env == "dev" {
		master = "dev-master-secret"
	}

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		MasterSecret: master,

		SaltCacheTTLSeconds:   getenvInt("BALLOTD_SALT_CACHE_TTL_SECONDS", 300),
		SaltSweepIntervalSecs: getenvInt("BALLOTD_SALT_SWEEP_INTERVAL_SECONDS", 300),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
