package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// MailSenderConfig configures cmd/mail_sender. It is read from the environment only.
type MailSenderConfig struct {
	Env         string `env:"ENV" env-default:"local"`
	RabbitMQURL string `env:"RABBITMQ_URL" env-required:"true"`
	QueueName   string `env:"RABBITMQ_QUEUE" env-default:"emails"`
	Email       SMTP
}

type SMTP struct {
	Host     string `env:"SMTP_HOST" env-required:"true"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	Username string `env:"SMTP_USERNAME" env-required:"true"`
	Password string `env:"SMTP_PASSWORD" env-required:"true"`
	From     string `env:"SMTP_FROM" env-default:"IMBA <no-reply@imba.or.kr>"`
}

func MustLoadMailSender() *MailSenderConfig {
	var cfg MailSenderConfig

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("Failed to read mail sender config: " + err.Error())
	}

	return &cfg
}
