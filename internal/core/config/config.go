package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int
	MaxBodyMB         int
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxInFlight       int
	CORSOrigins       []string
}

type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
	// MediaBaseURL prefixes stored object keys when building absolute image URLs.
	MediaBaseURL string
	FrontendURL  string
}

type Log struct {
	Level      string
	JSON       bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin  int
	RefreshTokenTTLMin int
	ActionTokenTTLMin  int
}

func (j JWT) AccessTTL() time.Duration  { return time.Duration(j.AccessTokenTTLMin) * time.Minute }
func (j JWT) RefreshTTL() time.Duration { return time.Duration(j.RefreshTokenTTLMin) * time.Minute }
func (j JWT) ActionTTL() time.Duration  { return time.Duration(j.ActionTokenTTLMin) * time.Minute }

type Redis struct {
	Addr        string `mapstructure:"addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	BrandTTLSec int    `mapstructure:"brandTTLSec"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Storage struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	MaxMB     int
}

type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type NATS struct {
	URL           string
	SubjectPrefix string
}

type Currency struct {
	// Rates keys come back lower-cased from viper; see RateTable.
	Rates map[string]float64
	// RefreshCron is a six-field cron spec (with seconds).
	RefreshCron string
}

// RateTable returns the configured rates keyed by upper-case currency code.
func (c Currency) RateTable() map[string]float64 {
	out := make(map[string]float64, len(c.Rates))
	for k, v := range c.Rates {
		out[strings.ToUpper(k)] = v
	}
	return out
}

type Moderation struct {
	Denylist   []string
	MaxStrikes int
}

type Listing struct {
	BasicQuota      int
	DefaultPageSize int
	MaxPageSize     int
}

type Admin struct {
	BootstrapKey string
}

type Password struct {
	// HistoryDays is how long an old password stays blocked for reuse.
	HistoryDays int
	PurgeCron   string
}

func (p Password) History() time.Duration { return time.Duration(p.HistoryDays) * 24 * time.Hour }

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	DB         DB
	Redis      Redis `mapstructure:"redis"`
	Storage    Storage
	Mail       Mail
	NATS       NATS `mapstructure:"nats"`
	Currency   Currency
	Moderation Moderation
	Listing    Listing
	Admin      Admin
	Password   Password
	// Catalog seeds the brand/model catalog on start: brand => models.
	Catalog map[string][]string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "auto-ria")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 8080)
	v.SetDefault("app.http.readTimeoutSec", 10)
	v.SetDefault("app.http.writeTimeoutSec", 15)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.http.requestTimeoutSec", 10)
	v.SetDefault("app.http.maxBodyMB", 10)
	v.SetDefault("app.http.rateLimitRPS", 50)
	v.SetDefault("app.http.rateLimitBurst", 100)
	v.SetDefault("app.http.maxInFlight", 256)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 8081)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.issuer", "auto-ria")
	v.SetDefault("jwt.accessTokenTTLMin", 60)
	v.SetDefault("jwt.refreshTokenTTLMin", 60*24*7)
	v.SetDefault("jwt.actionTokenTTLMin", 60*24)
	v.SetDefault("password.historyDays", 90)
	v.SetDefault("password.purgeCron", "0 0 3 * * *")
	v.SetDefault("redis.brandTTLSec", 300)
	v.SetDefault("storage.maxMB", 5)
	v.SetDefault("nats.subjectPrefix", "autoria")
	v.SetDefault("currency.rates", map[string]float64{"USD": 41.1, "EUR": 51.1})
	v.SetDefault("currency.refreshCron", "0 0 0 * * *")
	v.SetDefault("moderation.maxStrikes", 3)
	v.SetDefault("listing.basicQuota", 1)
	v.SetDefault("listing.defaultPageSize", 10)
	v.SetDefault("listing.maxPageSize", 100)
}

// Load reads the YAML file at path (CONFIG_PATH, then ./configs/config.local.yaml
// when empty). APP_ prefixed env vars override keys, e.g. APP_JWT_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JWT.Secret == "" {
		return nil, fmt.Errorf("config: jwt.secret is required")
	}
	return &c, nil
}
