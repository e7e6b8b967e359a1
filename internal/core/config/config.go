package config

import (
	"errors"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	ReadTimeoutSec  int      `mapstructure:"read_timeout_sec"`
	WriteTimeoutSec int      `mapstructure:"write_timeout_sec"`
	IdleTimeoutSec  int      `mapstructure:"idle_timeout_sec"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
}
type AdminHTTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type App struct {
	Name  string    `mapstructure:"name"`
	Env   string    `mapstructure:"env"`
	HTTP  HTTP      `mapstructure:"http"`
	Admin AdminHTTP `mapstructure:"admin"`
}

type Log struct {
	Level      string `mapstructure:"level"`
	JSON       bool   `mapstructure:"json"`
	File       string `mapstructure:"file"` // 非空则额外写文件并切割
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type JWT struct {
	Secret              string `mapstructure:"secret"`
	Issuer              string `mapstructure:"issuer"`
	AccessTokenTTLMin   int    `mapstructure:"access_token_ttl_min"`
	RefreshTokenTTLHour int    `mapstructure:"refresh_token_ttl_hour"`
}

type Reset struct {
	TTLMin   int    `mapstructure:"ttl_min"`
	LinkBase string `mapstructure:"link_base"`
}

type Redis struct {
	Addr        string `mapstructure:"addr"` // 为空则不启用
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	CacheTTLSec int    `mapstructure:"cache_ttl_sec"`
}

type DB struct {
	Driver             string `mapstructure:"driver"`
	DSN                string `mapstructure:"dsn"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	MaxOpenConns       int    `mapstructure:"max_open_conns"`
	MaxIdleConns       int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMin int    `mapstructure:"conn_max_lifetime_min"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
	LogLevel           string `mapstructure:"log_level"`
}

type Mail struct {
	Host     string `mapstructure:"host"` // 为空则只打日志
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type Minio struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type Storage struct {
	Driver     string `mapstructure:"driver"` // local | minio
	LocalDir   string `mapstructure:"local_dir"`
	PublicBase string `mapstructure:"public_base"`
	Minio      Minio  `mapstructure:"minio"`
}

type Config struct {
	App     App     `mapstructure:"app"`
	Log     Log     `mapstructure:"log"`
	JWT     JWT     `mapstructure:"jwt"`
	Reset   Reset   `mapstructure:"reset"`
	DB      DB      `mapstructure:"db"`
	Redis   Redis   `mapstructure:"redis"`
	Mail    Mail    `mapstructure:"mail"`
	Storage Storage `mapstructure:"storage"`
}

var defaults = map[string]any{
	"app.name":                   "blog",
	"app.env":                    "local",
	"app.http.host":              "0.0.0.0",
	"app.http.port":              8080,
	"app.http.read_timeout_sec":  5,
	"app.http.write_timeout_sec": 10,
	"app.http.idle_timeout_sec":  60,
	"app.http.cors_origins":      []string{"*"},
	"app.admin.host":             "127.0.0.1",
	"app.admin.port":             8081,

	"log.level":        "info",
	"log.json":         false,
	"log.file":         "",
	"log.max_size_mb":  100,
	"log.max_backups":  7,
	"log.max_age_days": 30,
	"log.compress":     true,

	"jwt.secret":                 "change-me",
	"jwt.issuer":                 "blog",
	"jwt.access_token_ttl_min":   5,
	"jwt.refresh_token_ttl_hour": 24,

	"reset.ttl_min":   60,
	"reset.link_base": "http://localhost:3000/reset-password",

	"db.driver":                "sqlite",
	"db.dsn":                   "blog.db",
	"db.username":              "",
	"db.password":              "",
	"db.max_open_conns":        50,
	"db.max_idle_conns":        10,
	"db.conn_max_lifetime_min": 30,
	"db.auto_migrate":          true,
	"db.log_level":             "warn",

	"redis.addr":          "",
	"redis.password":      "",
	"redis.db":            0,
	"redis.cache_ttl_sec": 300,

	"mail.host":     "",
	"mail.port":     587,
	"mail.username": "",
	"mail.password": "",
	"mail.from":     "noreply@blog.local",

	"storage.driver":           "local",
	"storage.local_dir":        "./media",
	"storage.public_base":      "/media",
	"storage.minio.endpoint":   "",
	"storage.minio.access_key": "",
	"storage.minio.secret_key": "",
	"storage.minio.bucket":     "blog-media",
	"storage.minio.use_ssl":    false,
}

// Load reads config or exits.
func Load(path string) *Config {
	c, err := Read(path)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return c
}

// Read merges defaults, the optional YAML file at path and APP_* env vars.
func Read(path string) (*Config, error) {
	v := viper.New()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
