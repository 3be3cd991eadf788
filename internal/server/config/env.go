package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from the process environment. A .env file
// in the working directory is loaded first (missing file is fine); explicit
// environment variables win over the file.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("ADDRESS", &cfg.EndpointAddrHTTP)
	setString("DATABASE_DSN", &cfg.DatabaseDSN)
	setString("SECRET_KEY", &cfg.SecretKey)
	setDuration("ACCESS_TOKEN_EXPIRY", &cfg.AccessTokenValidityDuration)
	setDuration("REFRESH_TOKEN_EXPIRY", &cfg.RefreshTokenValidityDuration)
	setDuration("TEMP_TOKEN_EXPIRY", &cfg.TempTokenValidityDuration)
	setString("BASE_URL", &cfg.BaseURL)
	setString("FORGOT_PASSWORD_REDIRECT_URL", &cfg.ForgotPasswordRedirectURL)
	setString("SMTP_HOST", &cfg.SMTPHost)
	setString("SMTP_USER", &cfg.SMTPUser)
	setString("SMTP_PASSWORD", &cfg.SMTPPassword)
	setString("MAIL_FROM", &cfg.MailFromAddress)

	if v, ok := os.LookupEnv("SMTP_SKIP_VERIFY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.SMTPSkipVerify = b
		}
	}
}
