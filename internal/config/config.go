package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer

	// Canonical base URL for Stripe return URLs and portal links. Never
	// derived from request headers.
	SiteURL     string `env:"PUBLIC_SITE_URL" envDefault:"http://localhost:5173"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"file:storefront.db"`

	// Secret for magic-link token signing.
	SessionSecret string `env:"SESSION_SECRET"`

	Stripe Stripe `envPrefix:"STRIPE_"`
	SMTP   SMTP   `envPrefix:"SMTP_"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type SMTP struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	Sender   string `env:"SENDER"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
