package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr           = ":8080"
	defaultRateLimitPerMinute = 100
	defaultRequestTimeout     = 30 * time.Second
	defaultAccessTokenTTL     = 24 * time.Hour
	defaultIssuer             = "employee-directory"
	defaultSecretsRegion      = "us-east-1"
	defaultConnectTimeout     = 10 * time.Second
)

// envPattern は ${VAR} 形式のみを対象とします。bcrypt ハッシュ中の $ を展開しないためです。
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Secrets  SecretsConfig  `yaml:"secrets"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig は HTTP / gRPC サーバーに関する設定です。
type ServerConfig struct {
	HTTPAddr           string        `yaml:"http_addr"`
	GRPCAddr           string        `yaml:"grpc_addr"`
	CORSOrigins        []string      `yaml:"cors_origins"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	RequestTimeout     time.Duration `yaml:"-"`
	RequestTimeoutRaw  string        `yaml:"request_timeout"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
// URL が設定されている場合は個別の接続項目より優先されます。
type DatabaseConfig struct {
	URL                 string        `yaml:"url"`
	Host                string        `yaml:"host"`
	Port                int           `yaml:"port"`
	User                string        `yaml:"user"`
	Password            string        `yaml:"password"`
	Name                string        `yaml:"name"`
	SSLMode             string        `yaml:"ssl_mode"`
	MaxOpenConns        int           `yaml:"max_open_conns"`
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	ConnMaxLifetime     time.Duration `yaml:"-"`
	ConnMaxIdleTime     time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw  string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw  string        `yaml:"conn_max_idle_time"`
	ConnectTimeout      time.Duration `yaml:"-"`
	StatementTimeout    time.Duration `yaml:"-"`
	ConnectTimeoutRaw   string        `yaml:"connect_timeout"`
	StatementTimeoutRaw string        `yaml:"statement_timeout"`
}

// AuthConfig はトークン発行と管理者認証に関する設定です。
type AuthConfig struct {
	JWTSecret         string           `yaml:"jwt_secret"`
	Issuer            string           `yaml:"issuer"`
	AccessTokenTTL    time.Duration    `yaml:"-"`
	AccessTokenTTLRaw string           `yaml:"access_token_ttl"`
	Users             []UserCredential `yaml:"users"`
}

// UserCredential は管理者ユーザーの認証情報です。PasswordHash は bcrypt ハッシュです。
type UserCredential struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// SecretsConfig は AWS Secrets Manager からの取得設定です。
type SecretsConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Region             string `yaml:"region"`
	DatabaseSecretName string `yaml:"database_secret_name"`
	JWTSecretName      string `yaml:"jwt_secret_name"`
}

// LogConfig はロガーの設定です。
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
// .env が存在すれば先に環境変数へ取り込み、YAML 内の ${VAR} を展開します。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	return Parse(b)
}

// Parse は YAML バイト列から設定を構築します。
func Parse(b []byte) (*Config, error) {
	expanded := envPattern.ReplaceAllFunc(b, func(m []byte) []byte {
		name := envPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if err := c.Server.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Database.validateAndNormalize(c.Secrets.suppliesDatabase()); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	c.Secrets.normalize()
	c.Log.normalize()
	return nil
}

func (s *ServerConfig) validateAndNormalize() error {
	if s.HTTPAddr == "" {
		s.HTTPAddr = defaultHTTPAddr
	}
	if s.RateLimitPerMinute < 0 {
		return fmt.Errorf("config: server.rate_limit_per_minute must not be negative")
	}
	if s.RateLimitPerMinute == 0 {
		s.RateLimitPerMinute = defaultRateLimitPerMinute
	}

	origins := make([]string, 0, len(s.CORSOrigins))
	for _, o := range s.CORSOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.CORSOrigins = origins

	timeout, err := parseDurationAllowEmpty(s.RequestTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: server.request_timeout: %w", err)
	}
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	s.RequestTimeout = timeout
	return nil
}

// validateAndNormalize は接続設定を検証します。fromSecrets が true の場合、パスワードは Secrets Manager から補われるため省略できます。
func (d *DatabaseConfig) validateAndNormalize(fromSecrets bool) error {
	if d.URL == "" {
		if d.Host == "" {
			return fmt.Errorf("config: database.host must be set")
		}
		if d.Port == 0 {
			return fmt.Errorf("config: database.port must be set")
		}
		if d.User == "" {
			return fmt.Errorf("config: database.user must be set")
		}
		if d.Password == "" && !fromSecrets {
			return fmt.Errorf("config: database.password must be set")
		}
		if d.Name == "" {
			return fmt.Errorf("config: database.name must be set")
		}
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	connectTimeout, err := parseDurationAllowEmpty(d.ConnectTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: database.connect_timeout: %w", err)
	}
	if connectTimeout == 0 {
		connectTimeout = defaultConnectTimeout
	}
	d.ConnectTimeout = connectTimeout

	statementTimeout, err := parseDurationAllowEmpty(d.StatementTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: database.statement_timeout: %w", err)
	}
	d.StatementTimeout = statementTimeout

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.Issuer == "" {
		a.Issuer = defaultIssuer
	}

	ttl, err := parseDurationAllowEmpty(a.AccessTokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.access_token_ttl: %w", err)
	}
	if ttl == 0 {
		ttl = defaultAccessTokenTTL
	}
	a.AccessTokenTTL = ttl

	for i, u := range a.Users {
		if strings.TrimSpace(u.Username) == "" {
			return fmt.Errorf("config: auth.users[%d].username must be set", i)
		}
		if u.PasswordHash == "" {
			return fmt.Errorf("config: auth.users[%d].password_hash must be set", i)
		}
	}
	return nil
}

func (s SecretsConfig) suppliesDatabase() bool {
	return s.Enabled && s.DatabaseSecretName != ""
}

func (s *SecretsConfig) normalize() {
	if s.Region == "" {
		s.Region = defaultSecretsRegion
	}
}

func (l *LogConfig) normalize() {
	if l.Level == "" {
		l.Level = "info"
	}
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
