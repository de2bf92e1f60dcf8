package config

import (
	"os"
	"strconv"
)

// Config captures server wiring and ledger policy. FromEnv keeps main lean;
// every field has a development default.
type Config struct {
	HTTPAddr  string
	GRPCAddr  string
	MySQLDSN  string
	RedisAddr string

	WorkerCount int
	QueueSize   int

	AdminID        string
	PlatformWallet string

	// Policy toggles: the two contract variants. FeeBps 0 disables the
	// platform fee; RequireRegistration false lifts participant gating.
	FeeBps              int64
	RequireRegistration bool
}

func FromEnv() Config {
	return Config{
		HTTPAddr:            getenv("MARKET_HTTP_ADDR", ":8080"),
		GRPCAddr:            getenv("MARKET_GRPC_ADDR", ":50051"),
		MySQLDSN:            getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/provenance?parseTime=true"),
		RedisAddr:           getenv("REDIS_ADDR", "localhost:6379"),
		WorkerCount:         getint("MARKET_WORKERS", 10),
		QueueSize:           getint("MARKET_QUEUE_SIZE", 10000),
		AdminID:             getenv("MARKET_ADMIN", "admin"),
		PlatformWallet:      getenv("MARKET_PLATFORM_WALLET", "platform"),
		FeeBps:              int64(getint("MARKET_FEE_BPS", 250)),
		RequireRegistration: getenv("MARKET_OPEN_REGISTRATION", "") != "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
