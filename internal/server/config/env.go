package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the variable names used by existing deployments.
// Token lifetimes are whole minutes and days respectively.
type envConfig struct {
	EndpointAddrHTTP         string        `env:"HTTP_ADDR"`
	EndpointAddrGRPC         string        `env:"GRPC_ADDR"`
	DatabaseDSN              string        `env:"DATABASE_URL"`
	SecretKey                string        `env:"JWT_SECRET"`
	SigningAlgorithm         string        `env:"JWT_ALGORITHM"`
	AccessTokenExpireMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	RefreshTokenExpireDays   int           `env:"REFRESH_TOKEN_EXPIRE_DAYS"`
	BcryptCost               int           `env:"BCRYPT_COST"`
	DirectoryTimeout         time.Duration `env:"DIRECTORY_TIMEOUT"`
	HealthCheckInterval      time.Duration `env:"HEALTH_CHECK_INTERVAL"`
	LogLevel                 string        `env:"LOG_LEVEL"`
	AnthropicAPIKey          string        `env:"ANTHROPIC_API_KEY"`
	ClaudeModel              string        `env:"CLAUDE_MODEL"`
	ClaudeMaxTokens          int           `env:"CLAUDE_MAX_TOKENS"`
	ClaudeAPIURL             string        `env:"CLAUDE_API_URL"`
	ClaudeTimeout            time.Duration `env:"CLAUDE_TIMEOUT"`
}

// parseEnv overlays environment variables onto config. Unset variables keep
// the current value. A nil environ reads the process environment.
func parseEnv(config *Config, environ map[string]string) error {
	e := envConfig{
		EndpointAddrHTTP:         config.EndpointAddrHTTP,
		EndpointAddrGRPC:         config.EndpointAddrGRPC,
		DatabaseDSN:              config.DatabaseDSN,
		SecretKey:                config.SecretKey,
		SigningAlgorithm:         config.SigningAlgorithm,
		AccessTokenExpireMinutes: int(config.AccessTokenValidityDuration / time.Minute),
		RefreshTokenExpireDays:   int(config.RefreshTokenValidityDuration / (24 * time.Hour)),
		BcryptCost:               config.BcryptCost,
		DirectoryTimeout:         config.DirectoryTimeout,
		HealthCheckInterval:      config.HealthCheckInterval,
		LogLevel:                 config.LogLevel,
		AnthropicAPIKey:          config.AnthropicAPIKey,
		ClaudeModel:              config.ClaudeModel,
		ClaudeMaxTokens:          config.ClaudeMaxTokens,
		ClaudeAPIURL:             config.ClaudeAPIURL,
		ClaudeTimeout:            config.ClaudeTimeout,
	}
	accessBefore, refreshBefore := e.AccessTokenExpireMinutes, e.RefreshTokenExpireDays

	if err := env.ParseWithOptions(&e, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	config.EndpointAddrHTTP = e.EndpointAddrHTTP
	config.EndpointAddrGRPC = e.EndpointAddrGRPC
	config.DatabaseDSN = e.DatabaseDSN
	config.SecretKey = e.SecretKey
	config.SigningAlgorithm = e.SigningAlgorithm
	// Only convert when the variable changed the value, so sub-minute
	// durations coming from JSON survive an untouched environment.
	if e.AccessTokenExpireMinutes != accessBefore {
		config.AccessTokenValidityDuration = time.Duration(e.AccessTokenExpireMinutes) * time.Minute
	}
	if e.RefreshTokenExpireDays != refreshBefore {
		config.RefreshTokenValidityDuration = time.Duration(e.RefreshTokenExpireDays) * 24 * time.Hour
	}
	config.BcryptCost = e.BcryptCost
	config.DirectoryTimeout = e.DirectoryTimeout
	config.HealthCheckInterval = e.HealthCheckInterval
	config.LogLevel = e.LogLevel
	config.AnthropicAPIKey = e.AnthropicAPIKey
	config.ClaudeModel = e.ClaudeModel
	config.ClaudeMaxTokens = e.ClaudeMaxTokens
	config.ClaudeAPIURL = e.ClaudeAPIURL
	config.ClaudeTimeout = e.ClaudeTimeout

	return nil
}
