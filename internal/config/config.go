// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Guard                   `yaml:"guard"`
	SubscriptionAPI         `yaml:"subscription_api"`
	Realtime                `yaml:"realtime"`
	RabbitMQ                `yaml:"rabbitmq"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	UpstreamURL string        `yaml:"upstream_url" env:"UPSTREAM_URL"`
	RateLimit   float64       `yaml:"rate_limit" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env-default:"20"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieName   string        `yaml:"cookie_name" env-default:"pc_session"`
}

// Guard пути, которыми оперирует охранник доступа.
type Guard struct {
	SignInPath       string   `yaml:"sign_in_path" env-default:"/signin"`
	AfterLoginPath   string   `yaml:"after_login_path" env-default:"/app/dashboard"`
	SubscriptionPath string   `yaml:"subscription_path" env-default:"/app/subscription"`
	ProtectedPrefix  string   `yaml:"protected_prefix" env-default:"/app"`
	GuestPaths       []string `yaml:"guest_paths" env-default:"/signin,/signup"`
	AdminPrefix      string   `yaml:"admin_prefix" env-default:"/app/admin"`
	AdminRoles       []string `yaml:"admin_roles" env-default:"Admin"`
	AdminRedirectTo  string   `yaml:"admin_redirect_to"`
	AdminShowPanel   bool     `yaml:"admin_show_panel" env:"ADMIN_SHOW_PANEL"`
}

// SubscriptionAPI настройки клиента сервиса статуса подписки.
type SubscriptionAPI struct {
	BaseURL      string        `yaml:"base_url" env:"SUBSCRIPTION_API_URL"`
	Timeout      time.Duration `yaml:"timeout" env-default:"5s"`
	RetryMax     int           `yaml:"retry_max" env-default:"2"`
	CacheFresh   time.Duration `yaml:"cache_fresh" env-default:"30s"`
	CacheTTL     time.Duration `yaml:"cache_ttl" env-default:"10m"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env-default:"3s"`
}

// Realtime настройки websocket-соединения с бэкендом.
type Realtime struct {
	URL            string        `yaml:"url" env:"REALTIME_URL"`
	TokenFile      string        `yaml:"token_file" env:"REALTIME_TOKEN_FILE"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" env-default:"2s"`
}

// RabbitMQ настройки публикации событий аудита.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange   string        `yaml:"exchange" env-default:"access"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Upstream: %s\n"+
			"Guard:\n"+
			"  SignIn: %s\n"+
			"  Subscription: %s\n"+
			"SubscriptionAPI:\n"+
			"  BaseURL: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.UpstreamURL,
		c.SignInPath,
		c.SubscriptionPath,
		c.BaseURL,
	)
}
