package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv reads .env from the working directory if present. Variables
// already set in the process environment win.
func loadDotEnv() {
	_ = godotenv.Load()
}

// parseEnv overlays settings from environment variables. Names follow the
// deployment conventions of the service (PORT, DATABASE_URL, JWT_SECRET...).
func parseEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("env %s: %w", name, err)
		}
		*dst = n
		return nil
	}

	str("ENVIRONMENT", &c.Environment)
	if v, ok := lookup("PORT"); ok && v != "" {
		c.EndpointAddrHTTP = ":" + v
	}
	str("GRPC_ADDR", &c.EndpointAddrGRPC)
	str("STORAGE", &c.StorageType)
	str("DATABASE_URL", &c.DatabaseDSN)
	str("JWT_SECRET", &c.SecretKey)
	str("JWT_ALGORITHM", &c.JWTAlgorithm)

	days := 0
	if err := num("JWT_EXPIRE_DAYS", &days); err != nil {
		return err
	}
	if days > 0 {
		c.TokenValidityDuration = time.Duration(days) * 24 * time.Hour
	}
	if err := num("BCRYPT_COST", &c.BcryptCost); err != nil {
		return err
	}
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.AllowedOrigins = splitList(v)
	}
	if err := num("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute); err != nil {
		return err
	}

	str("S3_ROOT_USER", &c.S3RootUser)
	str("S3_ROOT_PASSWORD", &c.S3RootPassword)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_BASE_ENDPOINT", &c.S3BaseEndpoint)

	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
