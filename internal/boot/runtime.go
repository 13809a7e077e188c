// Package boot provides runtime configuration validation and wiring for the server.
package boot

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/driveboard/driveboard/internal/config"
)

// RuntimeConfig holds parsed runtime settings (session signing, server address, provider key).
// Values may be overridden by environment variables (e.g. HTTP_ADDR).
type RuntimeConfig struct {
	JWTSecret      string
	JWTExpiresIn   time.Duration
	JWTAudience    string
	ServerAddr     string
	FirebaseAPIKey string
}

// ProvideRuntimeConfig builds RuntimeConfig from the given config and applies env overrides.
// A missing signing secret or provider API key is a configuration error, not a request-time one.
func ProvideRuntimeConfig(cfg config.Config) (*RuntimeConfig, error) {
	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	if strings.TrimSpace(cfg.Firebase.APIKey) == "" {
		return nil, errors.New("firebase api key is required")
	}

	jwtExpiresIn, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("invalid jwt expires in: %w", err)
	}
	if jwtExpiresIn <= 0 {
		return nil, errors.New("jwt expires in must be positive")
	}

	ret := &RuntimeConfig{
		JWTSecret:      cfg.Auth.JWTSecret,
		JWTExpiresIn:   jwtExpiresIn,
		JWTAudience:    cfg.Auth.JWTAudience,
		ServerAddr:     cfg.Server.Addr,
		FirebaseAPIKey: cfg.Firebase.APIKey,
	}

	if value := os.Getenv("HTTP_ADDR"); value != "" {
		ret.ServerAddr = value
	}
	return ret, nil
}
