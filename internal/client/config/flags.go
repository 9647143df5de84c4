package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-u string     auth API base URL
//	-t duration   API request timeout
//	-d string     SQLite database path
//	-s string     storage secret
//	-a string     browser front end listen address
//	-r string     redis address
//	-m duration   remember-me session lifetime
//	-secure bool  mark cookies Secure (pass as -secure=true)
//	-k string     reCAPTCHA site key
//	-l string     log level
//
// os.Args is filtered with flagx.FilterArgs first, so flags owned by other
// components (such as -c) do not fail parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-t", "-d", "-s", "-a", "-r", "-m", "-secure", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "u", cfg.APIBaseURL, "auth API base URL")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "API request timeout")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "SQLite database path")
	fs.StringVar(&cfg.StorageSecret, "s", cfg.StorageSecret, "storage secret")
	fs.StringVar(&cfg.WebAddr, "a", cfg.WebAddr, "browser front end listen address")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address (empty keeps sessions in memory)")
	fs.DurationVar(&cfg.RememberTTL, "m", cfg.RememberTTL, "remember-me session lifetime")
	fs.BoolVar(&cfg.CookieSecure, "secure", cfg.CookieSecure, "mark cookies Secure")
	fs.StringVar(&cfg.CaptchaSiteKey, "k", cfg.CaptchaSiteKey, "reCAPTCHA site key")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
