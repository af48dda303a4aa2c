package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`

	Database  Database  `envPrefix:"DATABASE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	CloudCart CloudCart `envPrefix:"CLOUDCART_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
	Auth      Auth      `envPrefix:"AUTH_"`
	Orders    Orders    `envPrefix:"ORDERS_"`
	Catalog   Catalog   `envPrefix:"CATALOG_"`
}

type Database struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql
	URL    string `env:"URL" envDefault:"storefront.db"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type CloudCart struct {
	BaseApiURL string        `env:"BASE_API_URL"`
	ApiKey     string        `env:"API_KEY"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
	PageSize   int           `env:"PAGE_SIZE" envDefault:"24"`
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

// Enabled reports whether card payments can be charged at checkout.
func (b Braintree) Enabled() bool {
	return b.MerchantID != "" && b.PublicKey != "" && b.PrivateKey != ""
}

type Auth struct {
	JWTSecret   string   `env:"JWT_SECRET"`
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`
	AdminClaim  string   `env:"ADMIN_CLAIM" envDefault:"admin"`
}

type Orders struct {
	// unresolved idempotency reservations older than this may be taken over by a retry
	IdempotencyLease time.Duration `env:"IDEMPOTENCY_LEASE" envDefault:"30s"`
	// zero keeps idempotency records forever
	IdempotencyRetention time.Duration `env:"IDEMPOTENCY_RETENTION" envDefault:"0s"`
}

type Catalog struct {
	PageSize      int           `env:"PAGE_SIZE" envDefault:"24"`
	DefaultSource string        `env:"DEFAULT_SOURCE" envDefault:"cloudcart"`
	ImageCacheTTL time.Duration `env:"IMAGE_CACHE_TTL" envDefault:"1h"`
	CartTTL       time.Duration `env:"CART_TTL" envDefault:"168h"`
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
