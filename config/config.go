package config

import (
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig  `json:"server"`
	Backend BackendConfig `json:"backend"`
	Places  PlacesConfig  `json:"places"`
	Invoice InvoiceConfig `json:"invoice"`
	Redis   RedisConfig   `json:"redis"`
	Kafka   KafkaConfig   `json:"kafka"`
	Auth    AuthConfig    `json:"auth"`
	Proxy   ProxyConfig   `json:"proxy"`
	Guard   GuardConfig   `json:"guard"`
	Limiter LimiterConfig `json:"limiter"`
}

type ServerConfig struct {
	Addr         string   `json:"addr"`
	SiteBaseURL  string   `json:"site_base_url"`
	AllowOrigins []string `json:"allow_origins"`
}

type BackendConfig struct {
	BaseURL string `json:"base_url"`
	Timeout int    `json:"timeout"` // in seconds
}

type PlacesConfig struct {
	APIKey string `json:"api_key"`
}

type InvoiceConfig struct {
	RenderEngineURL string `json:"render_engine_url"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

type KafkaConfig struct {
	Brokers  []string `json:"brokers"`
	Topic    string   `json:"topic"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	// SASLMechanism: "SCRAM-SHA-256", "SCRAM-SHA-512", 留空走 PLAIN
	SASLMechanism string `json:"sasl_mechanism"`
	UseTLS        bool   `json:"use_tls"`
	CertFile      string `json:"cert_file"`
	KeyFile       string `json:"key_file"`
	CAFile        string `json:"ca_file"`
}

type OAuthProvider struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURL  string   `json:"redirect_url"`
	Scopes       []string `json:"scopes"`
}

type AuthConfig struct {
	Google OAuthProvider `json:"google"`
	// TokenStateDir is where the file backend of the token store keeps
	// its snapshots.
	TokenStateDir string `json:"token_state_dir"`
}

type ProxyConfig struct {
	// NormalizePaths are upstream paths whose 401/404 responses are
	// rewritten to 200 with an injected _statusCode field.
	NormalizePaths []string `json:"normalize_paths"`
}

type GuardConfig struct {
	PublicPaths    []string `json:"public_paths"`
	ProtectedPaths []string `json:"protected_paths"`
}

type LimiterConfig struct {
	Limit  int `json:"limit"`
	Window int `json:"window"` // in seconds
	// Strategy: "fixed_window" (默认) 或 "token_bucket"
	Strategy string `json:"strategy"`
}

func LoadConfig() (config Config, err error) {
	// .env 覆盖 JSON 配置中的密钥（文件不存在也没关系）
	_ = godotenv.Load()

	file, err := os.Open(configPath())
	if err != nil {
		return config, err
	}
	defer func(file *os.File) {
		closeErr := file.Close()
		if closeErr != nil {
			log.Printf("Error closing config file: %v", closeErr)
		}
	}(file)
	decoder := json.NewDecoder(file)
	err = decoder.Decode(&config)
	if err != nil {
		return config, err
	}
	config.applyEnv()
	config.applyDefaults()
	return config, nil
}

func configPath() string {
	if p := os.Getenv("FRESHCART_CONFIG"); p != "" {
		return p
	}
	return "config/config.json"
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("PLACES_API_KEY"); v != "" {
		c.Places.APIKey = v
	}
	if v := os.Getenv("SITE_BASE_URL"); v != "" {
		c.Server.SiteBaseURL = v
	}
	if v := os.Getenv("PDF_RENDER_ENGINE_URL"); v != "" {
		c.Invoice.RenderEngineURL = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.Auth.Google.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.Auth.Google.ClientSecret = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = 15
	}
	if len(c.Proxy.NormalizePaths) == 0 {
		c.Proxy.NormalizePaths = []string{
			"/api/auth/me",
			"/api/users/onboarding-status",
		}
	}
	if len(c.Guard.PublicPaths) == 0 {
		c.Guard.PublicPaths = []string{
			"/", "/login", "/signup", "/products", "/categories",
			"/about", "/contact",
		}
	}
	if len(c.Guard.ProtectedPaths) == 0 {
		c.Guard.ProtectedPaths = []string{
			"/cart", "/checkout", "/orders", "/profile", "/favorites",
		}
	}
	if c.Limiter.Limit <= 0 {
		c.Limiter.Limit = 20
	}
	if c.Limiter.Window <= 0 {
		c.Limiter.Window = 10
	}
}
