package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

const DefaultKeyRegistryAddress = "0x00000000Fc1237824fb747aBDE0FF18990E59b7e"

type Config struct {
	Env            string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort     int    `env:"SERVER_PORT" envDefault:"8080"`
	BasicAuthCreds string `env:"BASIC_AUTH_CREDS"`
	DatabasePath   string `env:"DATABASE_PATH" envDefault:"framenotify.sqlite"`

	SiteName   string `env:"SITE_NAME" envDefault:"framenotify"`
	AdminEmail string `env:"ADMIN_EMAIL"`

	Notifications struct {
		Enabled         bool          `env:"NOTIFICATIONS_ENABLED" envDefault:"false"`
		RetryDelay      time.Duration `env:"RETRY_DELAY" envDefault:"300s"`
		ChunkSize       int           `env:"CHUNK_SIZE" envDefault:"100"`
		DeliveryTimeout time.Duration `env:"DELIVERY_TIMEOUT" envDefault:"10s"`
	}

	Chain struct {
		RPCURL             string `env:"RPC_URL"`
		KeyRegistryAddress string `env:"KEY_REGISTRY_ADDRESS" envDefault:"0x00000000Fc1237824fb747aBDE0FF18990E59b7e"`
	}

	EmailProvider string `env:"EMAIL_PROVIDER" envDefault:"log"`
	Mailgun       struct {
		Domain      string `env:"MAILGUN_DOMAIN"`
		APIKey      string `env:"MAILGUN_API_KEY"`
		SenderFrom  string `env:"MAILGUN_SENDER_FROM"`
		TimeoutSecs int    `env:"MAILGUN_TIMEOUT_SECS" envDefault:"10"`
	}
	SES struct {
		Region     string `env:"SES_REGION"`
		SenderFrom string `env:"SES_SENDER_FROM"`
	}

	Scheduler struct {
		Backend string `env:"SCHEDULER_BACKEND" envDefault:"database"`
		Poll    string `env:"SCHEDULER_POLL" envDefault:"@every 10s"`
	}
	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	log   *zap.Logger
	creds map[string]string
}

func NewConfig(log *zap.Logger) (*Config, error) {
	cfg := &Config{log: log}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	creds, err := cfg.parseCreds()
	if err != nil {
		if !cfg.IsProduction() {
			cfg.log.Sugar().Infof("%s (credentials will be set to default outside production)", err)
			creds = map[string]string{"admin": "password"}
		} else {
			cfg.log.Sugar().Panic(err)
		}
	}
	cfg.creds = creds

	return cfg, nil
}

func (cfg *Config) IsProduction() bool {
	return cfg.Env == "production"
}

func (cfg *Config) GetCreds() map[string]string {
	return cfg.creds
}

func (cfg *Config) parseCreds() (map[string]string, error) {
	if cfg.BasicAuthCreds == "" {
		return nil, errors.New("BASIC_AUTH_CREDS envvar must be populated")
	}

	creds := strings.Split(cfg.BasicAuthCreds, ",")
	result := make(map[string]string)
	for _, cred := range creds {
		userPass := strings.Split(cred, ":")
		if len(userPass) != 2 {
			return nil, fmt.Errorf("failed to parse '%s', each credential should be delimited by a colon -- user1:pass1,user2:pass2", cred)
		}

		user, pass := userPass[0], userPass[1]
		result[strings.Trim(user, " ")] = strings.Trim(pass, " ")
	}

	return result, nil
}
