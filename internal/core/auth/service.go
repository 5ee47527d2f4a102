package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

var (
	// ErrInvalidInput はユーザー名・パスワードが未入力または短すぎる場合に返却されます。
	ErrInvalidInput = errors.New("auth: username and password are required")
	// ErrInvalidCredentials は認証情報が一致しない場合に返却されます。
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken はトークンの検証に失敗した場合に返却されます。
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired はトークンの有効期限切れの場合に返却されます。
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Credential は管理者ユーザーの認証情報です。
type Credential struct {
	Username     string
	PasswordHash string
}

// Config はトークン発行の設定です。
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Token は発行済みのアクセストークンです。
type Token struct {
	AccessToken string
	Username    string
	ExpiresIn   time.Duration
	ExpiresAt   time.Time
}

// Claims はアクセストークンに含める情報です。subject が呼び出し元の識別子になります。
type Claims struct {
	jwt.RegisteredClaims
}

// Service はログインとトークン検証を提供します。
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	users  map[string]string
	clock  Clock
}

// NewService は Service を生成します。
func NewService(cfg Config, users []Credential, clock Clock) (*Service, error) {
	if cfg.Secret == "" {
		return nil, errors.New("auth: signing secret must be set")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("auth: token ttl must be positive")
	}
	if clock == nil {
		clock = realClock{}
	}

	byName := make(map[string]string, len(users))
	for _, u := range users {
		byName[strings.TrimSpace(u.Username)] = u.PasswordHash
	}

	return &Service{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		users:  byName,
		clock:  clock,
	}, nil
}

// Login は認証情報を検証し、アクセストークンを発行します。
func (s *Service) Login(_ context.Context, username, password string) (*Token, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if utf8.RuneCountInString(username) < minUsernameLength || utf8.RuneCountInString(password) < minPasswordLength {
		return nil, ErrInvalidCredentials
	}

	hash, ok := s.users[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(username)
}

func (s *Service) issue(username string) (*Token, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("auth: sign token: %w", err)
	}

	return &Token{
		AccessToken: signed,
		Username:    username,
		ExpiresIn:   s.ttl,
		ExpiresAt:   expiresAt,
	}, nil
}

// Verify はトークンを検証し、subject (ユーザー名) を返します。
func (s *Service) Verify(_ context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// HashPassword は設定ファイルに記載する bcrypt ハッシュを生成します。
func HashPassword(password string) (string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(password)) < minPasswordLength {
		return "", ErrInvalidCredentials
	}
	b, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(b), nil
}
