// Package config loads application configuration from environment
// variables. Required variables abort startup with a fatal log so a
// misconfigured deployment fails immediately instead of limping along.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds the core runtime settings. Redis, cache and rate-limit
// settings live in their own Load functions since those subsystems are
// optional; everything here is required for the service to run at all.
//
// Fields:
//  Env            – deployment environment (dev/test/prod).
//  Port           – HTTP port to bind.
//  DBUser..DBName – MySQL connection parameters (DBPass may be empty).
//  JWTSecret      – HMAC key for signing access tokens.
//  AccessTTLMin   – access token lifetime in minutes.
//  RefreshTTLDays – refresh token lifetime in days.
//  BcryptCost     – cost factor for password hashing.
//  StripeSecret   – secret API key for the payment processor.
type Config struct {
	Env            string
	Port           string
	DBUser         string
	DBPass         string
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
	StripeSecret   string
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		StripeSecret:   must("STRIPE_SECRET_KEY"),
	}
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
