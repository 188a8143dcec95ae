package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/witcom-dev/ssobridge/gateway"
	"github.com/witcom-dev/ssobridge/identity"
	"github.com/witcom-dev/ssobridge/oidc"
)

func configPathCandidates() []string {
	if p := os.Getenv("SSOBRIDGE_CONFIG"); p != "" {
		return []string{p}
	}
	return []string{"./config.json", "/etc/ssobridge/config.json"}
}

func parseConfig(cfg *identity.Config) error {
	var data []byte
	var err error
	for _, path := range configPathCandidates() {
		data, err = os.ReadFile(path)
		if err == nil {
			logrusLogger.Printf("Loaded config from %s", path)
			break
		}
	}
	if data == nil {
		return errors.New("config.json not found")
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func configureLogger(cfg identity.Config) {
	logrusLogger.Out = os.Stderr
	if cfg.IsDebug {
		logrusLogger.SetLevel(logrus.DebugLevel)
		logrusLogger.SetReportCaller(true)
	} else {
		logrusLogger.SetLevel(logrus.InfoLevel)
		logrusLogger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}
}

// serverConfig builds the provider endpoint config handed to every carrier
// token.
func serverConfig(cfg identity.Config) *oidc.ServerConfig {
	return &oidc.ServerConfig{
		Issuer:      cfg.SSOIssuer,
		UserInfoURI: cfg.UserInfoURL,
		TokenMethod: oidc.ParseTokenMethod(cfg.UserInfoTokenMethod),
	}
}

// jwtKey prefers the configured key, then the environment, then a random
// one (sessions then won't survive a restart, which is fine for dev).
func jwtKey(cfg identity.Config) ([]byte, error) {
	if cfg.JWTKey != "" {
		return []byte(cfg.JWTKey), nil
	}
	if key := os.Getenv("SSOBRIDGE_JWT_KEY"); key != "" {
		return []byte(key), nil
	}
	logrusLogger.Warn("no jwt key configured, generating an ephemeral one")
	return gateway.GenerateSecretKey(50)
}
