package config

import "time"

// Config holds runtime settings shared by the terminal and browser clients.
//
// Fields:
//   - APIBaseURL: base URL of the auth REST API.
//   - RequestTimeout: per-request timeout for API calls.
//   - DBPath: SQLite file holding the terminal client's durable session.
//   - StorageSecret: secret the at-rest sealing key is derived from.
//   - WebAddr: listen address of the browser front end.
//   - RedisAddr: redis host:port for browser sessions; empty keeps them in memory.
//   - RememberTTL: lifetime of a "remember me" browser session.
//   - CookieSecure: mark browser cookies Secure.
//   - CaptchaSiteKey: reCAPTCHA site key; empty uses the built-in challenge.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL     string
	RequestTimeout time.Duration
	DBPath         string
	StorageSecret  string
	WebAddr        string
	RedisAddr      string
	RememberTTL    time.Duration
	CookieSecure   bool
	CaptchaSiteKey string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8081/api/auth"
	c.RequestTimeout = 10 * time.Second
	c.DBPath = "gophauth.db"
	c.StorageSecret = ""
	c.WebAddr = ":8080"
	c.RedisAddr = ""
	c.RememberTTL = 30 * 24 * time.Hour
	c.CookieSecure = false
	c.CaptchaSiteKey = ""
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
