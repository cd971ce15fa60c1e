package config

import "os"

type Config struct {
	ServiceName string
	Env         string
	Addr        string
	// DatabaseURL selects the postgres backend; when empty the service runs
	// on the in-memory store (local development and tests).
	DatabaseURL     string
	AdminToken      string
	DefaultCurrency string
}

func Load() *Config {
	return &Config{
		ServiceName:     getenvDefault("SERVICE_NAME", "cardshop"),
		Env:             getenvDefault("ENV", "dev"),
		Addr:            getenvDefault("ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		AdminToken:      getenvDefault("ADMIN_TOKEN", "dev-admin-token"),
		DefaultCurrency: getenvDefault("DEFAULT_CURRENCY", "USD"),
	}
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
