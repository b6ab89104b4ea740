package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	BaseURL    string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:3000"`
	Session    `yaml:"session"`
	RabbitMQ   `yaml:"rabbitmq"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
	Uploads    `yaml:"uploads"`
	S3         `yaml:"s3"`
	AdminSeed  `yaml:"admin_seed"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env:"POSTGRES_SSLMODE" env-default:"disable"`
}

// Session holds the signing secret. Rotating it invalidates every issued credential.
type Session struct {
	Secret   string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TTL      time.Duration `yaml:"ttl" env-default:"168h"`
	ResetTTL time.Duration `yaml:"reset_ttl" env-default:"15m"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"emails"`
}

// Redis is optional. With an empty address reset tokens stay reusable until expiry.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Uploads struct {
	Driver   string `yaml:"driver" env:"UPLOADS_DRIVER" env-default:"local"` // local | s3
	Dir      string `yaml:"dir" env:"UPLOADS_DIR" env-default:"./public"`
	MaxBytes int64  `yaml:"max_bytes" env-default:"10485760"`
}

type S3 struct {
	Region        string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT"`
	AccessKey     string `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// AdminSeed creates the first administrator when the users table is empty.
type AdminSeed struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Phone    string `yaml:"phone" env:"ADMIN_PHONE"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// IsProd reports whether cookies must be marked Secure.
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

func MustLoad() *Config {
	return MustLoadPath(fetchConfigPath())
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return &cfg
}

// fetchConfigPath resolves the config path: flag > env > default.
func fetchConfigPath() string {
	var res string

	if !flag.Parsed() {
		flag.StringVar(&res, "config", "", "path to config file")
		flag.Parse()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = defaultConfigPath
	}

	return res
}
