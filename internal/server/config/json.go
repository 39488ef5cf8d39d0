package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/triagekeeper/internal/flagx"
	"github.com/dmitrijs2005/triagekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// "30s"-style strings or integer nanoseconds. Retired keys are keyed by their
// decimal key id.
type JsonConfig struct {
	EndpointAddrHTTP      string            `json:"endpoint_addr_http"`
	DatabaseDSN           string            `json:"database_dsn"`
	LogLevel              string            `json:"log_level"`
	EncryptionKey         string            `json:"encryption_key"`
	EncryptionKeyID       uint8             `json:"encryption_key_id"`
	RetiredEncryptionKeys map[string]string `json:"retired_encryption_keys"`
	KeyDerivation         string            `json:"key_derivation"`
	KeyDerivationSalt     string            `json:"key_derivation_salt"`
	JWTSecret             string            `json:"jwt_secret"`
	AuthBaseURL           string            `json:"auth_base_url"`
	ServiceRoleKey        string            `json:"service_role_key"`
	ErasureTimeout        timex.Duration    `json:"erasure_timeout"`
	S3AccessKey           string            `json:"s3_access_key"`
	S3SecretKey           string            `json:"s3_secret_key"`
	S3Bucket              string            `json:"s3_bucket"`
	S3Region              string            `json:"s3_region"`
	S3BaseEndpoint        string            `json:"s3_base_endpoint"`
	AvatarURLValidity     timex.Duration    `json:"avatar_url_validity"`
}

// parseJson overlays the file named by -c/-config in args, if any. Only keys
// present with a non-zero value override the current config.
func parseJson(config *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.EncryptionKey, c.EncryptionKey)
	if c.EncryptionKeyID != 0 {
		config.EncryptionKeyID = c.EncryptionKeyID
	}
	if len(c.RetiredEncryptionKeys) > 0 {
		config.RetiredEncryptionKeys = make(map[uint8]string, len(c.RetiredEncryptionKeys))
		for id, secret := range c.RetiredEncryptionKeys {
			n, err := strconv.ParseUint(id, 10, 8)
			if err != nil {
				return fmt.Errorf("retired key id %q: %w", id, err)
			}
			config.RetiredEncryptionKeys[uint8(n)] = secret
		}
	}
	setString(&config.KeyDerivation, c.KeyDerivation)
	setString(&config.KeyDerivationSalt, c.KeyDerivationSalt)
	setString(&config.JWTSecret, c.JWTSecret)
	setString(&config.AuthBaseURL, c.AuthBaseURL)
	setString(&config.ServiceRoleKey, c.ServiceRoleKey)
	if c.ErasureTimeout.Duration > 0 {
		config.ErasureTimeout = c.ErasureTimeout.Duration
	}
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.AvatarURLValidity.Duration > 0 {
		config.AvatarURLValidity = c.AvatarURLValidity.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
