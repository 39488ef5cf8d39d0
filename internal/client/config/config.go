package config

import "time"

const (
	EnvServerURL = "TRIAGEKEEPER_URL"
	EnvToken     = "TRIAGEKEEPER_TOKEN"
)

// Config holds runtime settings for the triagekeeper CLI.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	// Token is an optional bearer token; when empty the CLI prompts for one.
	Token string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 10 * time.Second
}

// LoadConfig constructs a Config from defaults, the JSON file, the
// environment and args (os.Args[1:]), later sources taking precedence.
func LoadConfig(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if v, ok := lookupEnv(EnvServerURL); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookupEnv(EnvToken); ok && v != "" {
		cfg.Token = v
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
