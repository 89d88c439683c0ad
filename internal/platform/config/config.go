package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"certflow/internal/content/ipfs"
)

// DevJWTSigningKey is the default signing key. Only the dev environment may
// run with it.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// Server is the complete process configuration.
type Server struct {
	Environment string
	HTTP        HTTPConfig
	Log         LogConfig
	Ledger      LedgerConfig
	Content     ContentConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Keyring     KeyringConfig
	Catalog     CatalogConfig
	Issuance    IssuanceConfig
	Roles       RolesConfig
}

type HTTPConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	TrustedProxies  []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig selects and configures the ledger backend.
type LedgerConfig struct {
	Backend                    string // memory | postgres | evm
	Owner                      string // administrator identity for memory/postgres ledgers
	RPCURL                     string
	ChainID                    int64
	UserRegistryAddress        string
	CertificateRegistryAddress string
	ReceiptTimeout             time.Duration
	CallTimeout                time.Duration
}

// ContentConfig selects and configures the content-addressed store.
type ContentConfig struct {
	Backend         string // memory | redis | ipfs
	APIURL          string
	GatewayTemplate string
	Timeout         time.Duration
	MaxBlobBytes    int64
	CacheEnabled    bool
	CacheTTL        time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers         string
	Topic           string
	Acks            string
	Retries         int
	DeliveryTimeout time.Duration
	PollInterval    time.Duration
	Retention       time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	TokenTTL      time.Duration
	ChallengeTTL  time.Duration
}

// KeyringConfig points at sealed key files used to sign ledger writes on
// behalf of authenticated callers (required by the evm backend).
type KeyringConfig struct {
	Dir        string
	Passphrase string
}

type CatalogConfig struct {
	Concurrency int
}

type IssuanceConfig struct {
	CheckpointTTL time.Duration
	MaxImageBytes int64
}

type RolesConfig struct {
	CacheTTL time.Duration
}

const (
	LedgerMemory   = "memory"
	LedgerPostgres = "postgres"
	LedgerEVM      = "evm"

	ContentMemory = "memory"
	ContentRedis  = "redis"
	ContentIPFS   = "ipfs"
)

// Defaults registers every key with its default on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 60*time.Second)
	v.SetDefault("http.request_timeout", 45*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.trusted_proxies", []string{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ledger.backend", LedgerMemory)
	v.SetDefault("ledger.owner", "")
	v.SetDefault("ledger.rpc_url", "")
	v.SetDefault("ledger.chain_id", 0)
	v.SetDefault("ledger.user_registry_address", "")
	v.SetDefault("ledger.certificate_registry_address", "")
	v.SetDefault("ledger.receipt_timeout", 2*time.Minute)
	v.SetDefault("ledger.call_timeout", 10*time.Second)

	v.SetDefault("content.backend", ContentMemory)
	v.SetDefault("content.api_url", "http://127.0.0.1:5001")
	v.SetDefault("content.gateway_template", "https://ipfs.io/ipfs/%s")
	v.SetDefault("content.timeout", 20*time.Second)
	v.SetDefault("content.max_blob_bytes", 10<<20)
	v.SetDefault("content.cache_enabled", false)
	v.SetDefault("content.cache_ttl", 24*time.Hour)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "certflow.audit.events")
	v.SetDefault("kafka.acks", "all")
	v.SetDefault("kafka.retries", 3)
	v.SetDefault("kafka.delivery_timeout", 30*time.Second)
	v.SetDefault("kafka.poll_interval", 250*time.Millisecond)
	v.SetDefault("kafka.retention", 24*time.Hour)

	v.SetDefault("auth.jwt_signing_key", DevJWTSigningKey)
	v.SetDefault("auth.issuer", "certflow")
	v.SetDefault("auth.token_ttl", 30*time.Minute)
	v.SetDefault("auth.challenge_ttl", 5*time.Minute)

	v.SetDefault("keyring.dir", "")
	v.SetDefault("keyring.passphrase", "")

	v.SetDefault("catalog.concurrency", 8)

	v.SetDefault("issuance.checkpoint_ttl", 72*time.Hour)
	v.SetDefault("issuance.max_image_bytes", 5<<20)

	v.SetDefault("roles.cache_ttl", 30*time.Second)
}

// NewViper returns a viper instance with defaults and CERTFLOW_ environment
// overrides. configFile is optional.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix("CERTFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}
	return v, nil
}

// Load builds and validates the Server config. configFile is optional.
func Load(configFile string) (Server, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return Server{}, err
	}
	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// FromViper maps viper keys into the typed config.
func FromViper(v *viper.Viper) Server {
	return Server{
		Environment: v.GetString("environment"),
		HTTP: HTTPConfig{
			Addr:            v.GetString("http.addr"),
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			RequestTimeout:  v.GetDuration("http.request_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			TrustedProxies:  v.GetStringSlice("http.trusted_proxies"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Ledger: LedgerConfig{
			Backend:                    strings.ToLower(v.GetString("ledger.backend")),
			Owner:                      v.GetString("ledger.owner"),
			RPCURL:                     v.GetString("ledger.rpc_url"),
			ChainID:                    v.GetInt64("ledger.chain_id"),
			UserRegistryAddress:        v.GetString("ledger.user_registry_address"),
			CertificateRegistryAddress: v.GetString("ledger.certificate_registry_address"),
			ReceiptTimeout:             v.GetDuration("ledger.receipt_timeout"),
			CallTimeout:                v.GetDuration("ledger.call_timeout"),
		},
		Content: ContentConfig{
			Backend:         strings.ToLower(v.GetString("content.backend")),
			APIURL:          v.GetString("content.api_url"),
			GatewayTemplate: v.GetString("content.gateway_template"),
			Timeout:         v.GetDuration("content.timeout"),
			MaxBlobBytes:    v.GetInt64("content.max_blob_bytes"),
			CacheEnabled:    v.GetBool("content.cache_enabled"),
			CacheTTL:        v.GetDuration("content.cache_ttl"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("database.url"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("redis.url"),
			PoolSize:     v.GetInt("redis.pool_size"),
			MinIdleConns: v.GetInt("redis.min_idle_conns"),
			DialTimeout:  v.GetDuration("redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("redis.read_timeout"),
			WriteTimeout: v.GetDuration("redis.write_timeout"),
		},
		Kafka: KafkaConfig{
			Brokers:         v.GetString("kafka.brokers"),
			Topic:           v.GetString("kafka.topic"),
			Acks:            v.GetString("kafka.acks"),
			Retries:         v.GetInt("kafka.retries"),
			DeliveryTimeout: v.GetDuration("kafka.delivery_timeout"),
			PollInterval:    v.GetDuration("kafka.poll_interval"),
			Retention:       v.GetDuration("kafka.retention"),
		},
		Auth: AuthConfig{
			JWTSigningKey: v.GetString("auth.jwt_signing_key"),
			Issuer:        v.GetString("auth.issuer"),
			TokenTTL:      v.GetDuration("auth.token_ttl"),
			ChallengeTTL:  v.GetDuration("auth.challenge_ttl"),
		},
		Keyring: KeyringConfig{
			Dir:        v.GetString("keyring.dir"),
			Passphrase: v.GetString("keyring.passphrase"),
		},
		Catalog: CatalogConfig{
			Concurrency: v.GetInt("catalog.concurrency"),
		},
		Issuance: IssuanceConfig{
			CheckpointTTL: v.GetDuration("issuance.checkpoint_ttl"),
			MaxImageBytes: v.GetInt64("issuance.max_image_bytes"),
		},
		Roles: RolesConfig{
			CacheTTL: v.GetDuration("roles.cache_ttl"),
		},
	}
}

// Validate fails fast on settings the selected backends cannot run without.
func (s Server) Validate() error {
	switch s.Ledger.Backend {
	case LedgerMemory:
		if s.Ledger.Owner == "" {
			return fmt.Errorf("ledger.owner is required for the memory ledger")
		}
	case LedgerPostgres:
		if s.Ledger.Owner == "" {
			return fmt.Errorf("ledger.owner is required for the postgres ledger")
		}
		if s.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres ledger")
		}
	case LedgerEVM:
		if s.Ledger.RPCURL == "" {
			return fmt.Errorf("ledger.rpc_url is required for the evm ledger")
		}
		if s.Ledger.ChainID <= 0 {
			return fmt.Errorf("ledger.chain_id is required for the evm ledger")
		}
		if s.Ledger.UserRegistryAddress == "" || s.Ledger.CertificateRegistryAddress == "" {
			return fmt.Errorf("ledger contract addresses are required for the evm ledger")
		}
		if s.Keyring.Dir == "" {
			return fmt.Errorf("keyring.dir is required for the evm ledger")
		}
	default:
		return fmt.Errorf("unknown ledger backend %q", s.Ledger.Backend)
	}

	switch s.Content.Backend {
	case ContentMemory:
	case ContentRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("redis.url is required for the redis content backend")
		}
	case ContentIPFS:
		if s.Content.APIURL == "" || s.Content.GatewayTemplate == "" {
			return fmt.Errorf("content.api_url and content.gateway_template are required for the ipfs backend")
		}
		if s.Content.MaxBlobBytes > ipfs.MaxBlobBytes {
			return fmt.Errorf("content.max_blob_bytes %d exceeds the ipfs limit of %d", s.Content.MaxBlobBytes, ipfs.MaxBlobBytes)
		}
		if s.Issuance.MaxImageBytes > ipfs.MaxBlobBytes {
			return fmt.Errorf("issuance.max_image_bytes %d exceeds the ipfs limit of %d", s.Issuance.MaxImageBytes, ipfs.MaxBlobBytes)
		}
	default:
		return fmt.Errorf("unknown content backend %q", s.Content.Backend)
	}

	if s.Content.CacheEnabled && s.Redis.URL == "" {
		return fmt.Errorf("redis.url is required when content.cache_enabled is set")
	}
	if s.Auth.JWTSigningKey == "" {
		return fmt.Errorf("auth.jwt_signing_key is required")
	}
	if s.Auth.JWTSigningKey == DevJWTSigningKey && !strings.EqualFold(s.Environment, "dev") {
		return fmt.Errorf("auth.jwt_signing_key must be set outside the dev environment")
	}
	return nil
}
