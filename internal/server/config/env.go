package config

// Environment variables understood by the server. The names match the hosted
// deployment so the same secrets can be mounted unchanged.
const (
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvEncryptionKey  = "ENCRYPTION_KEY"
	EnvJWTSecret      = "JWT_SECRET"
	EnvAuthBaseURL    = "SUPABASE_URL"
	EnvServiceRoleKey = "SUPABASE_SERVICE_ROLE_KEY"
	EnvS3AccessKey    = "S3_ACCESS_KEY"
	EnvS3SecretKey    = "S3_SECRET_KEY"
	EnvLogLevel       = "LOG_LEVEL"
)

// parseEnv overlays variables that are set and non-empty. lookupEnv is
// os.LookupEnv outside of tests.
func parseEnv(config *Config, lookupEnv func(string) (string, bool)) {
	if lookupEnv == nil {
		return
	}
	bindings := map[string]*string{
		EnvDatabaseDSN:    &config.DatabaseDSN,
		EnvEncryptionKey:  &config.EncryptionKey,
		EnvJWTSecret:      &config.JWTSecret,
		EnvAuthBaseURL:    &config.AuthBaseURL,
		EnvServiceRoleKey: &config.ServiceRoleKey,
		EnvS3AccessKey:    &config.S3AccessKey,
		EnvS3SecretKey:    &config.S3SecretKey,
		EnvLogLevel:       &config.LogLevel,
	}
	for name, dst := range bindings {
		if v, ok := lookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
}
