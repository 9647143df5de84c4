package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" from "zero", so a file only overrides the keys it
// sets. Durations use timex.Duration and accept "3s" or integer nanoseconds.
type JsonConfig struct {
	APIBaseURL     *string         `json:"api_base_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	DBPath         *string         `json:"db_path"`
	StorageSecret  *string         `json:"storage_secret"`
	WebAddr        *string         `json:"web_addr"`
	RedisAddr      *string         `json:"redis_addr"`
	RememberTTL    *timex.Duration `json:"remember_ttl"`
	CookieSecure   *bool           `json:"cookie_secure"`
	CaptchaSiteKey *string         `json:"captcha_site_key"`
	LogLevel       *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from flagx.ConfigPath: -c/-config, else
// $GOPHAUTH_CONFIG. With neither set nothing is loaded. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.StorageSecret, jc.StorageSecret)
	setString(&cfg.WebAddr, jc.WebAddr)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.CaptchaSiteKey, jc.CaptchaSiteKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.RememberTTL != nil {
		cfg.RememberTTL = jc.RememberTTL.Duration
	}
	if jc.CookieSecure != nil {
		cfg.CookieSecure = *jc.CookieSecure
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
