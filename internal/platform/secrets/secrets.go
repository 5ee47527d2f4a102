package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/ogurasousui/employee-directory/internal/platform/config"
)

const (
	defaultDatabasePort = 5432
	defaultDatabaseName = "employee_directory"
)

// Provider は名前を指定してシークレットを取得します。値は JSON オブジェクトのキーごとの文字列です。
type Provider interface {
	Get(ctx context.Context, name string) (map[string]string, error)
}

// secretsManagerAPI は secretsmanager.Client のうち利用するメソッドです。
type secretsManagerAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider は AWS Secrets Manager を利用した Provider です。
type AWSProvider struct {
	client secretsManagerAPI
}

// NewAWSProvider は既定の認証情報チェーンで Secrets Manager クライアントを構築します。
func NewAWSProvider(ctx context.Context, region string) (*AWSProvider, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("secrets: load aws config: %w", err)
	}
	return &AWSProvider{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// Get はシークレット文字列を JSON として解釈して返します。
func (p *AWSProvider) Get(ctx context.Context, name string) (map[string]string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(name)})
	if err != nil {
		return nil, fmt.Errorf("secrets: get %s: %w", name, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secrets: %s has no string value", name)
	}
	return decode(name, *out.SecretString)
}

func decode(name, raw string) (map[string]string, error) {
	var values map[string]any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("secrets: decode %s: %w", name, err)
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
		default:
			return nil, fmt.Errorf("secrets: %s.%s must be a scalar", name, k)
		}
	}
	return out, nil
}

// Apply は有効化されている場合にデータベース接続情報と JWT 署名鍵をシークレットで上書きします。
// 取得に失敗した項目は警告を出力し、設定ファイルの値をそのまま使います。
func Apply(ctx context.Context, p Provider, cfg *config.Config, logger *zap.Logger) {
	if !cfg.Secrets.Enabled || p == nil {
		return
	}

	if name := cfg.Secrets.DatabaseSecretName; name != "" {
		values, err := p.Get(ctx, name)
		if err == nil {
			err = applyDatabase(&cfg.Database, values)
		}
		if err != nil {
			logger.Warn("could not load database credentials from secrets manager, using configured values",
				zap.String("secret", name), zap.Error(err))
		} else {
			logger.Info("database configuration loaded from secrets manager", zap.String("secret", name))
		}
	}

	if name := cfg.Secrets.JWTSecretName; name != "" {
		values, err := p.Get(ctx, name)
		if err == nil {
			err = applyJWT(&cfg.Auth, values)
		}
		if err != nil {
			logger.Warn("could not load jwt secret from secrets manager, using configured value",
				zap.String("secret", name), zap.Error(err))
		} else {
			logger.Info("jwt secret loaded from secrets manager", zap.String("secret", name))
		}
	}
}

func applyDatabase(db *config.DatabaseConfig, values map[string]string) error {
	if u := values["database_url"]; u != "" {
		db.URL = u
		return nil
	}

	for _, key := range []string{"username", "password", "host"} {
		if values[key] == "" {
			return fmt.Errorf("secrets: database secret is missing %q", key)
		}
	}

	port := defaultDatabasePort
	if raw := values["port"]; raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("secrets: database secret has invalid port %q", raw)
		}
		port = p
	}
	name := values["dbname"]
	if name == "" {
		name = defaultDatabaseName
	}

	db.URL = ""
	db.User = values["username"]
	db.Password = values["password"]
	db.Host = values["host"]
	db.Port = port
	db.Name = name
	return nil
}

func applyJWT(auth *config.AuthConfig, values map[string]string) error {
	key := values["jwt_secret_key"]
	if key == "" {
		return errors.New("secrets: jwt secret is missing \"jwt_secret_key\"")
	}
	auth.JWTSecret = key
	return nil
}
