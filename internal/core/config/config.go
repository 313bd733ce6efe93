package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	RequestTimeoutSec int     // per-request deadline seen by store calls
	MaxBodyMB         int     // avatars arrive as data URLs, keep this generous
	RateLimitRPS      float64 // per client IP
	RateLimitBurst    int
	MaxInFlight       int64 // concurrent requests before 503
}

type App struct {
	Name    string
	Version string
	Env     string // development adds error detail to 500 responses
	HTTP    HTTP
}

func (a App) IsDevelopment() bool { return strings.EqualFold(a.Env, "development") }

type FileLog struct {
	Enable     bool   // also log to a rotated file
	Filename   string // path of the active file
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level string // debug / info / warn / error
	JSON  bool   // JSON lines instead of console output
	File  FileLog
}

type JWT struct {
	Secret            string // HS256 key; required
	Issuer            string
	AccessTokenTTLMin int // session lifetime; bans still apply before it ends
}

type Redis struct {
	Addr           string `mapstructure:"addr"` // empty disables the comment cache
	Password       string `mapstructure:"password"`
	DB             int    `mapstructure:"db"`
	CommentsTTLSec int    `mapstructure:"commentsttlsec"` // lifetime of a cached comment list
}

type DB struct {
	Driver             string // postgres / mysql / sqlite / mongo
	DSN                string // connection string; a mongo URI for mongo
	Name               string // mongo database when the URI names none
	Username           string // mysql override
	Password           string // mysql override
	MaxOpenConns       int    // also the mongo pool size
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool   // create tables/indexes at startup
	LogLevel           string // gorm log level
}

type CORS struct {
	AllowOrigins []string
}

// Bootstrap is the reserved super-user credential. An empty username
// disables it.
type Bootstrap struct {
	Username string
	Password string
}

type Library struct {
	FavoritesCap int // oldest favorites are dropped past this
	HistoryCap   int // oldest reads are dropped past this
}

type Premium struct {
	Days int // length of a granted window; upgrades reset it
}

// Cloudinary hosts uploaded avatars when all three credentials are set.
type Cloudinary struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string // upload folder, e.g. mangazone/avatars
}

func (c Cloudinary) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type Config struct {
	App        App
	Log        Log
	JWT        JWT
	DB         DB
	Redis      Redis `mapstructure:"redis"`
	CORS       CORS
	Bootstrap  Bootstrap
	Library    Library
	Premium    Premium
	Cloudinary Cloudinary
}

var supportedDrivers = map[string]bool{"postgres": true, "mysql": true, "sqlite": true, "mongo": true}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "MangaZone API")
	v.SetDefault("app.version", "2.0.0")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 10000)
	v.SetDefault("app.http.readtimeoutsec", 15)
	v.SetDefault("app.http.writetimeoutsec", 30)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.requesttimeoutsec", 10)
	v.SetDefault("app.http.maxbodymb", 50)
	v.SetDefault("app.http.ratelimitrps", 20)
	v.SetDefault("app.http.ratelimitburst", 40)
	v.SetDefault("app.http.maxinflight", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "mangazone")
	v.SetDefault("jwt.accesstokenttlmin", 60*24*7)
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.name", "mangazone")
	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.loglevel", "warn")
	v.SetDefault("redis.commentsttlsec", 30)
	v.SetDefault("cors.alloworigins", []string{
		"https://mangazone.vercel.app",
		"https://mangazone.netlify.app",
		"http://localhost:3000",
	})
	v.SetDefault("library.favoritescap", 100)
	v.SetDefault("library.historycap", 20)
	v.SetDefault("premium.days", 30)
	v.SetDefault("bootstrap.username", "")
	v.SetDefault("bootstrap.password", "")
	v.SetDefault("cloudinary.cloudname", "")
	v.SetDefault("cloudinary.apikey", "")
	v.SetDefault("cloudinary.apisecret", "")
	v.SetDefault("cloudinary.folder", "mangazone/avatars")
	v.SetDefault("redis.addr", "")
}

// Load reads the yaml file at path (or CONFIG_PATH, or the local default)
// and applies APP_* environment overrides, e.g. APP_DB_DSN.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt.secret is required")
	}
	if !supportedDrivers[c.DB.Driver] {
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("config: db.dsn is required")
	}
	if c.Library.HistoryCap <= 0 || c.Library.FavoritesCap <= 0 {
		return errors.New("config: library caps must be positive")
	}
	return nil
}
