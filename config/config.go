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
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
	defaultHTTPPort           = 8080

	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	HashAlgorithmBcrypt   = "bcrypt"
	HashAlgorithmArgon2id = "argon2id"

	BreachFailClosed = "closed"
	BreachFailOpen   = "open"

	defaultBreachBaseURL   = "https://api.pwnedpasswords.com"
	defaultBreachTimeout   = 3 * time.Second
	minBreachTimeout       = time.Second
	maxBreachTimeout       = 5 * time.Second
	defaultBreachCacheTTL  = 24 * time.Hour
	defaultBreachUserAgent = "credvault-breach-check"
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

	Store StoreConfig `json:"store" yaml:"store"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// Redis backs the breach range cache; optional.
	Redis *RedisConfig `json:"redis" yaml:"redis"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	Policy *PolicyConfig `json:"policy" yaml:"policy"`

	Breach *BreachConfig `json:"breach" yaml:"breach"`
}

// StoreConfig selects the account store implementation.
type StoreConfig struct {
	// Driver is "postgres" or "memory"
	Driver      string `json:"driver" yaml:"driver"`
	AutoMigrate bool   `json:"autoMigrate" yaml:"autoMigrate"`
}

// RedisConfig defines the Redis connection used for caching breach ranges
type RedisConfig struct {
	Enabled      bool   `json:"enabled" yaml:"enabled"`
	URL          string `json:"url" yaml:"url"`
	PoolSize     int    `json:"poolSize" yaml:"poolSize"`
	MinIdleConns int    `json:"minIdleConns" yaml:"minIdleConns"`
}

// AuthConfig defines password hashing configuration
type AuthConfig struct {
	// HashAlgorithm used for new digests: "bcrypt" or "argon2id". Both are always verifiable.
	HashAlgorithm string       `json:"hashAlgorithm" yaml:"hashAlgorithm"`
	BcryptCost    int          `json:"bcryptCost" yaml:"bcryptCost"`
	Argon2        Argon2Config `json:"argon2" yaml:"argon2"`
}

// Argon2Config captures tunable parameters for argon2id
type Argon2Config struct {
	Memory      uint32 `json:"memory" yaml:"memory"` // KiB
	Iterations  uint32 `json:"iterations" yaml:"iterations"`
	Parallelism uint8  `json:"parallelism" yaml:"parallelism"`
	SaltLength  uint32 `json:"saltLength" yaml:"saltLength"`
	KeyLength   uint32 `json:"keyLength" yaml:"keyLength"`
}

// PolicyConfig defines password length bounds, counted in Unicode code points
type PolicyConfig struct {
	MinLength int `json:"minLength" yaml:"minLength"`
	MaxLength int `json:"maxLength" yaml:"maxLength"`
}

// BreachConfig defines the k-anonymity breach lookup
type BreachConfig struct {
	// Enabled defaults to true when omitted; only an explicit false turns the check off
	Enabled *bool  `json:"enabled" yaml:"enabled"`
	BaseURL string `json:"baseUrl" yaml:"baseUrl"`

	// Timeout for a single range request; clamped to 1s..5s
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// AddPadding asks the range API to pad responses with zero-count entries
	AddPadding bool   `json:"addPadding" yaml:"addPadding"`
	UserAgent  string `json:"userAgent" yaml:"userAgent"`

	// MinOccurrences is the breach count at which a suffix counts as compromised
	MinOccurrences int `json:"minOccurrences" yaml:"minOccurrences"`

	// FailureMode is "closed" (reject on outage) or "open" (accept on outage)
	FailureMode string `json:"failureMode" yaml:"failureMode"`

	// CacheTTL applies to ranges cached in Redis
	CacheTTL time.Duration `json:"cacheTtl" yaml:"cacheTtl"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
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

	cfg.ApplyDefaults()

	if cfg.Postgres != nil {
		// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every unset optional section and field.
func (cfg *Config) ApplyDefaults() {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = defaultHTTPPort
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = StoreDriverPostgres
	}

	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	cfg.Auth.HashAlgorithm = strings.ToLower(strings.TrimSpace(cfg.Auth.HashAlgorithm))
	if cfg.Auth.HashAlgorithm == "" {
		cfg.Auth.HashAlgorithm = HashAlgorithmBcrypt
	}

	if cfg.Policy == nil {
		cfg.Policy = &PolicyConfig{}
	}

	if cfg.Breach == nil {
		cfg.Breach = &BreachConfig{}
	}
	applyBreachDefaults(cfg.Breach)
}

// IsEnabled reports whether breach checks run. A nil section counts as enabled.
func (b *BreachConfig) IsEnabled() bool {
	return b == nil || b.Enabled == nil || *b.Enabled
}

// DefaultBreachConfig returns the breach section used when none is configured.
func DefaultBreachConfig() *BreachConfig {
	b := &BreachConfig{}
	applyBreachDefaults(b)

	return b
}

func applyBreachDefaults(b *BreachConfig) {
	if b.Enabled == nil {
		enabled := true
		b.Enabled = &enabled
	}
	if strings.TrimSpace(b.BaseURL) == "" {
		b.BaseURL = defaultBreachBaseURL
	}
	b.BaseURL = strings.TrimRight(b.BaseURL, "/")

	switch {
	case b.Timeout == 0:
		b.Timeout = defaultBreachTimeout
	case b.Timeout < minBreachTimeout:
		b.Timeout = minBreachTimeout
	case b.Timeout > maxBreachTimeout:
		b.Timeout = maxBreachTimeout
	}

	if b.MinOccurrences <= 0 {
		b.MinOccurrences = 1
	}
	if b.CacheTTL <= 0 {
		b.CacheTTL = defaultBreachCacheTTL
	}
	if b.UserAgent == "" {
		b.UserAgent = defaultBreachUserAgent
	}

	b.FailureMode = strings.ToLower(strings.TrimSpace(b.FailureMode))
	if b.FailureMode == "" {
		b.FailureMode = BreachFailClosed
	}
}

// Validate rejects configurations the service cannot run with.
func (cfg *Config) Validate() error {
	switch cfg.Store.Driver {
	case StoreDriverPostgres:
		if cfg.Postgres == nil {
			return errors.New("postgres store selected but postgres section is missing")
		}
	case StoreDriverMemory:
	default:
		return errors.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}

	switch cfg.Auth.HashAlgorithm {
	case HashAlgorithmBcrypt, HashAlgorithmArgon2id:
	default:
		return errors.Errorf("unknown hash algorithm: %s", cfg.Auth.HashAlgorithm)
	}

	switch cfg.Breach.FailureMode {
	case BreachFailClosed, BreachFailOpen:
	default:
		return errors.Errorf("unknown breach failure mode: %s", cfg.Breach.FailureMode)
	}

	if cfg.Policy.MinLength > 0 && cfg.Policy.MaxLength > 0 && cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return errors.Errorf("policy minLength %d exceeds maxLength %d", cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}

	if cfg.Redis.Enabled && strings.TrimSpace(cfg.Redis.URL) == "" {
		return errors.New("redis enabled but url is empty")
	}

	return nil
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
