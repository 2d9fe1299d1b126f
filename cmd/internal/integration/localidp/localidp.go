// Package localidp is a self-contained identity provider for development and
// tests. It stores bcrypt password hashes next to the application data,
// issues HS256 JWTs and reports failures with the same exception codes as
// Cognito, so callers handle both providers alike.
package localidp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	cognitoclient "estatehub/cmd/internal/integration/aws/cognito"
	"github.com/aws/smithy-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	issuer        = "estatehub"
	codeLifetime  = 24 * time.Hour
	tokenUseClaim = "access"
)

type Credential struct {
	Email         string `gorm:"primaryKey;size:255"`
	Sub           string `gorm:"size:64;uniqueIndex;not null"`
	PasswordHash  string `gorm:"not null"`
	Confirmed     bool   `gorm:"not null"`
	Code          string `gorm:"size:6"`
	CodeExpiresAt int64
}

func (Credential) TableName() string {
	return "local_credentials"
}

type claims struct {
	Email    string `json:"email,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

type Provider struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

var _ cognitoclient.CognitoInterface = (*Provider)(nil)

func New(db *gorm.DB, secret string, ttl time.Duration) (*Provider, error) {
	if err := db.AutoMigrate(&Credential{}); err != nil {
		return nil, fmt.Errorf("localidp: migrate: %w", err)
	}
	return &Provider{db: db, secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func apiError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message, Fault: smithy.FaultClient}
}

func (p *Provider) find(ctx context.Context, email string) (*Credential, error) {
	var cred Credential
	err := p.db.WithContext(ctx).First(&cred, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apiError("UserNotFoundException", "user does not exist")
	}
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (p *Provider) SignUp(ctx context.Context, user *cognitoclient.User) (string, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&Credential{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", apiError("UsernameExistsException", "an account with the given email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", apiError("InvalidPasswordException", "password is too long")
		}
		return "", err
	}

	code, err := confirmationCode()
	if err != nil {
		return "", err
	}

	cred := &Credential{
		Email:         user.Email,
		Sub:           uuid.NewString(),
		PasswordHash:  string(hash),
		Code:          code,
		CodeExpiresAt: p.now().Add(codeLifetime).UnixMilli(),
	}
	if err := p.db.WithContext(ctx).Create(cred).Error; err != nil {
		return "", err
	}

	// There is no mail delivery in local mode.
	log.Infof("confirmation code for %s: %s", user.Email, code)
	return cred.Sub, nil
}

func (p *Provider) ConfirmAccount(ctx context.Context, confirmation *cognitoclient.UserConfirmation) error {
	cred, err := p.find(ctx, confirmation.Email)
	if err != nil {
		return err
	}
	if cred.Code == "" || cred.Code != confirmation.Code {
		return apiError("CodeMismatchException", "invalid verification code")
	}
	if p.now().UnixMilli() > cred.CodeExpiresAt {
		return apiError("ExpiredCodeException", "verification code expired")
	}

	return p.db.WithContext(ctx).Model(cred).Updates(map[string]any{
		"confirmed": true,
		"code":      "",
	}).Error
}

func (p *Provider) SignIn(ctx context.Context, login *cognitoclient.UserLogin) (*cognitoclient.AuthCreate, error) {
	cred, err := p.find(ctx, login.Email)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(login.Password)) != nil {
		return nil, apiError("NotAuthorizedException", "incorrect username or password")
	}
	if !cred.Confirmed {
		return nil, apiError("UserNotConfirmedException", "user is not confirmed")
	}

	access, err := p.sign(cred, tokenUseClaim)
	if err != nil {
		return nil, err
	}
	id, err := p.sign(cred, "id")
	if err != nil {
		return nil, err
	}
	return &cognitoclient.AuthCreate{AccessToken: access, IDToken: id, ExpiresIn: int32(p.ttl.Seconds())}, nil
}

func (p *Provider) AdminDeleteUser(ctx context.Context, email string) error {
	return p.db.WithContext(ctx).Where("email = ?", email).Delete(&Credential{}).Error
}

func (p *Provider) VerifyToken(_ context.Context, accessToken string) (string, error) {
	var c claims
	_, err := jwt.ParseWithClaims(accessToken, &c, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || c.TokenUse != tokenUseClaim || c.Subject == "" {
		return "", cognitoclient.ErrInvalidToken
	}
	return c.Subject, nil
}

func (p *Provider) sign(cred *Credential, use string) (string, error) {
	now := p.now()
	c := claims{
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   cred.Sub,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	if use == "id" {
		c.Email = cred.Email
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
}

func confirmationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
