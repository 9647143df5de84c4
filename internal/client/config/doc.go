// Package config loads runtime configuration for the gophauth clients.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c / -config, or the
//     GOPHAUTH_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
// Only keys present in the file are applied. Durations accept strings like
// "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:8081/api/auth",
//	  "request_timeout": "10s",
//	  "db_path": "gophauth.db",
//	  "storage_secret": "change-me",
//	  "web_addr": ":8080",
//	  "redis_addr": "127.0.0.1:6379",
//	  "remember_ttl": "720h",
//	  "cookie_secure": true,
//	  "captcha_site_key": "",
//	  "log_level": "info"
//	}
package config
