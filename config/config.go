package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath                = "."
	defaultMaxRequestBodySize  = "100KB"
	defaultProviderHTTPTimeout = 10 * time.Second
	defaultWeChatCodeCacheTTL  = 5 * time.Minute
	defaultCodeCacheLRUSize    = 4096
	defaultSignInPath          = "/auth/signin"

	// EnvProduction is the only env name that disables development fallbacks.
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	Migrations *MigrationsConfig `json:"migrations" yaml:"migrations"`

	SecretKey SecretKeyConfig `json:"secretKey" yaml:"secretKey"`

	Session *SessionConfig `json:"session" yaml:"session"`

	Line *LineConfig `json:"line" yaml:"line"`

	WeChat *WeChatConfig `json:"wechat" yaml:"wechat"`

	Facebook *FacebookConfig `json:"facebook" yaml:"facebook"`

	Providers *ProvidersConfig `json:"providers" yaml:"providers"`

	// Redis backs the WeChat code replay cache; an empty address keeps the cache in process.
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	CodeCache *CodeCacheConfig `json:"codeCache" yaml:"codeCache"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	// PubSub configuration for account-linked events
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`

	Metrics *MetricsConfig `json:"metrics" yaml:"metrics"`
}

// IsProduction reports whether development fallbacks must be refused.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env.Env), EnvProduction)
}

// IsDevelopment reports whether the service runs on a developer machine.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(strings.TrimSpace(c.Env.Env), EnvDevelopment)
}

// SecretKeyConfig holds the HMAC secrets for the two token kinds.
type SecretKeyConfig struct {
	Bearer  string `json:"bearer" yaml:"bearer"`
	Session string `json:"session" yaml:"session"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

type MigrationsConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// SessionConfig controls cookie names and scope for every session channel.
type SessionConfig struct {
	// CookieDomain is the parent domain the platform session cookie is scoped to (e.g. ".example.com").
	CookieDomain      string        `json:"cookieDomain" yaml:"cookieDomain"`
	SessionCookieName string        `json:"sessionCookieName" yaml:"sessionCookieName"`
	BearerCookieName  string        `json:"bearerCookieName" yaml:"bearerCookieName"`
	SecureCookies     bool          `json:"secureCookies" yaml:"secureCookies"`
	SessionTTL        time.Duration `json:"sessionTtl" yaml:"sessionTtl"`
	LegacyTTL         time.Duration `json:"legacyTtl" yaml:"legacyTtl"`
	SignInPath        string        `json:"signInPath" yaml:"signInPath"`
}

// LineConfig configures the LINE ID token verification leg.
type LineConfig struct {
	ChannelID string `json:"channelId" yaml:"channelId"`
	LiffID    string `json:"liffId" yaml:"liffId"`
	// VerifyMode is "api" (LINE verify endpoint) or "oidc" (local JWKS verification).
	VerifyMode string `json:"verifyMode" yaml:"verifyMode"`
	VerifyURL  string `json:"verifyUrl" yaml:"verifyUrl"`
	IssuerURL  string `json:"issuerUrl" yaml:"issuerUrl"`
}

// WeChatConfig configures the mini-program code2session leg.
type WeChatConfig struct {
	AppID           string        `json:"appId" yaml:"appId"`
	AppSecret       string        `json:"appSecret" yaml:"appSecret"`
	Code2SessionURL string        `json:"code2SessionUrl" yaml:"code2SessionUrl"`
	CodeCacheTTL    time.Duration `json:"codeCacheTtl" yaml:"codeCacheTtl"`
}

// FacebookConfig configures the database-backed OAuth sign-in.
type FacebookConfig struct {
	ClientID     string `json:"clientId" yaml:"clientId"`
	ClientSecret string `json:"clientSecret" yaml:"clientSecret"`
	RedirectURL  string `json:"redirectUrl" yaml:"redirectUrl"`
	GraphURL     string `json:"graphUrl" yaml:"graphUrl"`
}

type ProvidersConfig struct {
	HTTPTimeout time.Duration `json:"httpTimeout" yaml:"httpTimeout"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

type CodeCacheConfig struct {
	LRUSize int `json:"lruSize" yaml:"lruSize"`
}

// RateLimitConfig bounds the credential endpoints per client IP. Provider exchanges and
// password register/login draw from separate budgets.
type RateLimitConfig struct {
	ExchangeRPS     float64 `json:"exchangeRps" yaml:"exchangeRps"`
	ExchangeBurst   int     `json:"exchangeBurst" yaml:"exchangeBurst"`
	CredentialRPS   float64 `json:"credentialRps" yaml:"credentialRps"`
	CredentialBurst int     `json:"credentialBurst" yaml:"credentialBurst"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// PushAudience is the audience expected in Google push tokens. Empty derives it from the request URL.
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// applyDefaults fills optional sections so consumers never nil-check them.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.SessionCookieName == "" {
		cfg.Session.SessionCookieName = "bazaar.session-token"
	}
	if cfg.Session.BearerCookieName == "" {
		cfg.Session.BearerCookieName = "bazaar.bearer"
	}
	if cfg.Session.SessionTTL <= 0 {
		cfg.Session.SessionTTL = 30 * 24 * time.Hour
	}
	if cfg.Session.LegacyTTL <= 0 {
		cfg.Session.LegacyTTL = 7 * 24 * time.Hour
	}
	if cfg.Session.SignInPath == "" {
		cfg.Session.SignInPath = defaultSignInPath
	}

	if cfg.Line == nil {
		cfg.Line = &LineConfig{}
	}
	if cfg.Line.VerifyMode == "" {
		cfg.Line.VerifyMode = "api"
	}
	if cfg.Line.VerifyURL == "" {
		cfg.Line.VerifyURL = "https://api.line.me/oauth2/v2.1/verify"
	}
	if cfg.Line.IssuerURL == "" {
		cfg.Line.IssuerURL = "https://access.line.me"
	}

	if cfg.WeChat == nil {
		cfg.WeChat = &WeChatConfig{}
	}
	if cfg.WeChat.Code2SessionURL == "" {
		cfg.WeChat.Code2SessionURL = "https://api.weixin.qq.com/sns/jscode2session"
	}
	if cfg.WeChat.CodeCacheTTL <= 0 {
		cfg.WeChat.CodeCacheTTL = defaultWeChatCodeCacheTTL
	}

	if cfg.Facebook == nil {
		cfg.Facebook = &FacebookConfig{}
	}
	if cfg.Facebook.GraphURL == "" {
		cfg.Facebook.GraphURL = "https://graph.facebook.com"
	}

	if cfg.Providers == nil {
		cfg.Providers = &ProvidersConfig{}
	}
	if cfg.Providers.HTTPTimeout <= 0 {
		cfg.Providers.HTTPTimeout = defaultProviderHTTPTimeout
	}

	if cfg.CodeCache == nil {
		cfg.CodeCache = &CodeCacheConfig{}
	}
	if cfg.CodeCache.LRUSize <= 0 {
		cfg.CodeCache.LRUSize = defaultCodeCacheLRUSize
	}

	if cfg.RateLimit == nil {
		cfg.RateLimit = &RateLimitConfig{}
	}
	if cfg.RateLimit.ExchangeRPS <= 0 {
		cfg.RateLimit.ExchangeRPS = 5
	}
	if cfg.RateLimit.ExchangeBurst <= 0 {
		cfg.RateLimit.ExchangeBurst = 10
	}
	if cfg.RateLimit.CredentialRPS <= 0 {
		cfg.RateLimit.CredentialRPS = 2
	}
	if cfg.RateLimit.CredentialBurst <= 0 {
		cfg.RateLimit.CredentialBurst = 5
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Environment variable format: POSTGRES_REPLICAS_{index}_{field}
// Example: POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, POSTGRES_REPLICAS_0_USERNAME, POSTGRES_REPLICAS_0_PASSWORD
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			// No more replicas or incomplete configuration.
			break
		}

		replica := postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		}

		replicas = append(replicas, replica)
	}

	return replicas
}
