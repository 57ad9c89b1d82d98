package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// Durations are plain nanosecond integers in yaml.
	EmailVerificationTTL time.Duration `yaml:"email_verification_ttl"`
	PasswordResetTTL     time.Duration `yaml:"password_reset_ttl"`
	SessionTTL           time.Duration `yaml:"session_ttl"`

	PasswordMinLength int `yaml:"password_min_length"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

type Private struct {
	Pg         Pg     `yaml:"pg"`
	SigningKey string `yaml:"signing_key"`
	JwtKey     string `yaml:"jwt_key"`
	Email      Email  `yaml:"email"`
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) SigningKey() string {
	return c.Private.SigningKey
}

// SMTPConfigured reports whether out-of-band token delivery is available.
func (c *Config) SMTPConfigured() bool {
	return c.Private.Email.SMTPServer != ""
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	err = yaml.Unmarshal(configFile, output)
	if err != nil {
		panic("can't unmarshal config file")
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{public, private}
	cfg.applyDefaults()
	cfg.mustValidate()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Public.HttpAddr == "" {
		c.Public.HttpAddr = ":8080"
	}
	if c.Public.EmailVerificationTTL == 0 {
		c.Public.EmailVerificationTTL = 24 * time.Hour
	}
	if c.Public.PasswordResetTTL == 0 {
		c.Public.PasswordResetTTL = time.Hour
	}
	if c.Public.SessionTTL == 0 {
		c.Public.SessionTTL = 72 * time.Hour
	}
	if c.Public.PasswordMinLength == 0 {
		c.Public.PasswordMinLength = 8
	}
}

func (c *Config) mustValidate() {
	required := map[string]bool{
		"pg.host":     c.Private.Pg.Host != "",
		"pg.dbname":   c.Private.Pg.Dbname != "",
		"signing_key": c.Private.SigningKey != "",
		"jwt_key":     c.Private.JwtKey != "",
	}
	for name, ok := range required {
		if !ok {
			panic(fmt.Sprintf("missing required config field: %s", name))
		}
	}
}
