package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Supabase  SupabaseConfig  `yaml:"supabase"`
	Plans     PlansConfig     `yaml:"plans"`
	Billing   BillingConfig   `yaml:"billing"`
	Storage   StorageConfig   `yaml:"storage"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release, test
	AppURL string `yaml:"app_url"` // public base URL, e.g. https://koe.so
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured. Empty means the socket address is the client address.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

// SupabaseConfig holds the hosted auth provider credentials.
// ServiceRoleKey bypasses tenant policy and is never written back to disk.
type SupabaseConfig struct {
	URL            string `yaml:"url"`
	AnonKey        string `yaml:"anon_key"`
	ServiceRoleKey string `yaml:"-"`
}

type PlansConfig struct {
	FreeProjects     int `yaml:"free_projects"`
	FreeTestimonials int `yaml:"free_testimonials"`
}

type BillingConfig struct {
	StripeSecretKey     string `yaml:"-"`
	StripeWebhookSecret string `yaml:"-"`
	ProPriceID          string `yaml:"pro_price_id"`
}

// StorageConfig points at an S3-compatible bucket for project logos.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"-"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type RateLimitConfig struct {
	PublicRPS   float64 `yaml:"public_rps"`
	PublicBurst int     `yaml:"public_burst"`
	SubmitRPS   float64 `yaml:"submit_rps"`
	SubmitBurst int     `yaml:"submit_burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Enabled reports whether logo uploads can be served.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.Bucket != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Enabled reports whether Stripe checkout and webhooks are configured.
func (b BillingConfig) Enabled() bool {
	return b.StripeSecretKey != ""
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.Server.AppURL, "https://")
}

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	cfg.overrideFromEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Plans: PlansConfig{
			FreeProjects:     1,
			FreeTestimonials: 10,
		},
		RateLimit: RateLimitConfig{
			PublicRPS:   20,
			PublicBurst: 40,
			SubmitRPS:   0.2,
			SubmitBurst: 5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate reports every required value that is still missing.
func (c *Config) Validate() error {
	var missing []string
	check := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	check("SUPABASE_URL", c.Supabase.URL)
	check("SUPABASE_ANON_KEY", c.Supabase.AnonKey)
	check("SUPABASE_SERVICE_ROLE_KEY", c.Supabase.ServiceRoleKey)
	check("APP_URL", c.Server.AppURL)
	if c.Database.Driver != "sqlite" {
		check("DB_DSN", c.Database.DSN)
	}

	if len(missing) > 0 {
		return &MissingError{Names: missing}
	}

	for name, raw := range map[string]string{"SUPABASE_URL": c.Supabase.URL, "APP_URL": c.Server.AppURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an absolute URL", name, raw)
		}
	}

	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("invalid trusted proxy %q: must be an IP or CIDR", p)
			}
		}
	}

	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	return nil
}

func (c *Config) overrideFromEnv() {
	set := func(dst *string, key string) {
		if v := Lookup(key); v != "" {
			*dst = v
		}
	}

	set(&c.Server.Host, "SERVER_HOST")
	set(&c.Server.Port, "SERVER_PORT")
	set(&c.Server.Port, "PORT")
	set(&c.Server.Mode, "SERVER_MODE")
	set(&c.Server.AppURL, "APP_URL")
	set(&c.Database.Driver, "DB_DRIVER")
	set(&c.Database.DSN, "DB_DSN")
	set(&c.Supabase.URL, "SUPABASE_URL")
	set(&c.Supabase.AnonKey, "SUPABASE_ANON_KEY")
	set(&c.Supabase.ServiceRoleKey, "SUPABASE_SERVICE_ROLE_KEY")
	set(&c.Billing.StripeSecretKey, "STRIPE_SECRET_KEY")
	set(&c.Billing.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	set(&c.Billing.ProPriceID, "STRIPE_PRO_PRICE_ID")
	set(&c.Storage.Endpoint, "STORAGE_ENDPOINT")
	set(&c.Storage.AccessKey, "STORAGE_ACCESS_KEY")
	set(&c.Storage.SecretKey, "STORAGE_SECRET_KEY")
	set(&c.Storage.Bucket, "STORAGE_BUCKET")
	set(&c.Storage.PublicURL, "STORAGE_PUBLIC_URL")
	set(&c.Log.Level, "LOG_LEVEL")

	if v := Lookup("TRUSTED_PROXIES"); v != "" {
		c.Server.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Server.TrustedProxies = append(c.Server.TrustedProxies, p)
			}
		}
	}
	if v := Lookup("STORAGE_USE_SSL"); v != "" {
		c.Storage.UseSSL, _ = strconv.ParseBool(v)
	}
	if v := Lookup("FREE_PROJECT_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Plans.FreeProjects = n
		}
	}
	if v := Lookup("FREE_TESTIMONIAL_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Plans.FreeTestimonials = n
		}
	}
}

// normalize trims values that may have come from the YAML file.
func (c *Config) normalize() {
	for _, p := range []*string{
		&c.Server.AppURL, &c.Supabase.URL, &c.Supabase.AnonKey, &c.Supabase.ServiceRoleKey,
		&c.Database.DSN, &c.Storage.PublicURL,
	} {
		*p = strings.TrimSpace(*p)
	}
	c.Server.AppURL = strings.TrimRight(c.Server.AppURL, "/")
	c.Supabase.URL = strings.TrimRight(c.Supabase.URL, "/")
	c.Storage.PublicURL = strings.TrimRight(c.Storage.PublicURL, "/")
}
