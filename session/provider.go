// Package session is the local auth provider: accounts, tokens, password
// recovery and the session change notifications clients navigate on.
package session

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hpmalinova/monifly/contract"
	"github.com/hpmalinova/monifly/events"
	"github.com/hpmalinova/monifly/model"
)

const (
	AccessTTL   = 30 * time.Minute
	RefreshTTL  = 7 * 24 * time.Hour
	RecoveryTTL = time.Hour

	minPasswordLen = 6
	roleUser       = "authenticated"
)

type Provider struct {
	users    contract.UserRepo
	profiles contract.ProfileRepo
	tokens   contract.TokenRepo
	bus      *events.Bus
	mailer   Mailer
	validate *validator.Validate
	key      []byte
	issuer   string
	cost     int
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Provider)

func WithMailer(m Mailer) Option { return func(p *Provider) { p.mailer = m } }

func WithClock(now func() time.Time) Option { return func(p *Provider) { p.now = now } }

// WithHashCost sets the bcrypt cost, tests use bcrypt.MinCost.
func WithHashCost(cost int) Option { return func(p *Provider) { p.cost = cost } }

func WithLogger(log *zap.Logger) Option { return func(p *Provider) { p.log = log } }

// NewProvider signs tokens with key. The issuer is derived from storeURL the
// way the hosted platform names its auth endpoint.
func NewProvider(users contract.UserRepo, profiles contract.ProfileRepo, tokens contract.TokenRepo,
	bus *events.Bus, key, storeURL string, opts ...Option) *Provider {
	p := &Provider{
		users:    users,
		profiles: profiles,
		tokens:   tokens,
		bus:      bus,
		validate: validator.New(),
		key:      []byte(key),
		issuer:   Issuer(storeURL),
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.mailer == nil {
		p.mailer = LogMailer{Log: p.log}
	}
	return p
}

func Issuer(storeURL string) string {
	return strings.TrimRight(storeURL, "/") + "/auth/v1"
}

func (p *Provider) checkEmail(email string) error {
	if err := p.validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

// DisplayName picks the profile name for a new account.
func DisplayName(meta model.UserMetadata, email string) string {
	if name := strings.TrimSpace(meta.FullName); name != "" {
		return name
	}
	if local := strings.SplitN(email, "@", 2)[0]; local != "" {
		return local
	}
	return model.DefaultFullName
}

// SignUp creates the account together with its default profile. It does not
// start a session.
func (p *Provider) SignUp(ctx context.Context, email, password string, meta model.UserMetadata) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := p.checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	// Hash the password with bcrypt
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, contract.Wrap(contract.Internal, err, "password encryption failed")
	}

	user, err := p.users.Create(ctx, &model.User{
		Email:       email,
		Password:    string(hash),
		FullName:    meta.FullName,
		CountryCode: meta.CountryCode,
	})
	if err != nil {
		if contract.KindOf(err) == contract.Conflict {
			return nil, ErrUserExists
		}
		return nil, err
	}

	country := meta.CountryCode
	if country == "" {
		country = model.DefaultCountryCode
	}
	if err := p.profiles.Create(ctx, &model.Profile{
		ID:          user.ID,
		FullName:    DisplayName(meta, email),
		CountryCode: strings.ToUpper(country),
	}); err != nil {
		// drop the account so the same email can sign up again
		if delErr := p.users.Delete(ctx, user.ID); delErr != nil {
			p.log.Error("orphaned account after failed profile write",
				zap.String("user", user.ID), zap.Error(delErr))
		}
		return nil, err
	}

	user.Password = ""
	return user, nil
}

func (p *Provider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	user, err := p.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if contract.KindOf(err) == contract.NotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	s, err := p.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, user.ID, events.SignedIn, ViewLogin)
	return s, nil
}

// Refresh trades a refresh token for a new session. Refresh tokens are
// single use.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	if refreshToken == "" {
		return nil, ErrSessionMissing
	}
	t, err := p.tokens.Consume(ctx, refreshToken, model.TokenRefresh, p.now())
	if err != nil {
		if contract.KindOf(err) == contract.NotFound {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	user, err := p.users.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	s, err := p.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, user.ID, events.TokenRefreshed, "")
	return s, nil
}

func (p *Provider) SignOut(ctx context.Context, userID string) error {
	if err := p.tokens.RevokeAll(ctx, userID, model.TokenRefresh); err != nil {
		return err
	}
	p.publish(ctx, userID, events.SignedOut, "")
	return nil
}

// ResetPasswordForEmail mails a recovery link to redirectURL. Unknown
// addresses succeed silently.
func (p *Provider) ResetPasswordForEmail(ctx context.Context, email, redirectURL string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := p.checkEmail(email); err != nil {
		return err
	}
	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		if contract.KindOf(err) == contract.NotFound {
			p.log.Debug("recovery requested for unknown email")
			return nil
		}
		return err
	}

	code := newSecret()
	if err := p.tokens.Save(ctx, &model.Token{
		Value:     code,
		UserID:    user.ID,
		Purpose:   model.TokenRecovery,
		ExpiresAt: p.now().Add(RecoveryTTL),
	}); err != nil {
		return err
	}

	link, err := recoveryLink(redirectURL, code)
	if err != nil {
		return contract.Wrap(contract.Validation, err, "invalid redirect url")
	}
	return p.mailer.Send(ctx, user.Email, "Reset your password", link)
}

func recoveryLink(redirectURL, code string) (string, error) {
	u, err := url.Parse(redirectURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("code", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ExchangeCode turns a recovery code into a session.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*model.Session, error) {
	if code == "" {
		return nil, ErrInvalidCode
	}
	t, err := p.tokens.Consume(ctx, code, model.TokenRecovery, p.now())
	if err != nil {
		if contract.KindOf(err) == contract.NotFound {
			return nil, ErrInvalidCode
		}
		return nil, err
	}
	user, err := p.users.FindByID(ctx, t.UserID)
	if err != nil {
		return nil, err
	}
	s, err := p.issue(ctx, user)
	if err != nil {
		return nil, err
	}
	p.publish(ctx, user.ID, events.PasswordRecovery, ViewUpdatePassword)
	return s, nil
}

func (p *Provider) UpdatePassword(ctx context.Context, userID, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return contract.Wrap(contract.Internal, err, "password encryption failed")
	}
	if err := p.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	p.publish(ctx, userID, events.UserUpdated, "")
	return nil
}

// Verify checks an access token and returns its claims.
func (p *Provider) Verify(token string) (*model.UserToken, error) {
	if token == "" {
		return nil, ErrSessionMissing
	}
	claims := &model.UserToken{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.key, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrSessionExpired
		}
		return nil, contract.Wrap(contract.SessionMissing, err, "invalid auth token")
	}
	if !claims.VerifyIssuer(p.issuer, true) {
		return nil, contract.E(contract.SessionMissing, "invalid auth token issuer")
	}
	return claims, nil
}

func (p *Provider) issue(ctx context.Context, user *model.User) (*model.Session, error) {
	now := p.now()
	expiresAt := now.Add(AccessTTL)

	claims := &model.UserToken{
		Email: user.Email,
		Role:  roleUser,
		UserMetadata: model.UserMetadata{
			FullName:    user.FullName,
			CountryCode: user.CountryCode,
		},
		StandardClaims: jwt.StandardClaims{
			Subject:   user.ID,
			Issuer:    p.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(p.key)
	if err != nil {
		return nil, contract.Wrap(contract.Internal, err, "sign access token")
	}

	refresh := newSecret()
	if err := p.tokens.Save(ctx, &model.Token{
		Value:     refresh,
		UserID:    user.ID,
		Purpose:   model.TokenRefresh,
		ExpiresAt: now.Add(RefreshTTL),
	}); err != nil {
		return nil, err
	}

	// remove user password
	u := *user
	u.Password = ""
	return &model.Session{AccessToken: tokenString, RefreshToken: refresh, ExpiresAt: expiresAt, User: u}, nil
}

func (p *Provider) publish(ctx context.Context, userID, kind, view string) {
	p.bus.Publish(ctx, events.SessionChanged{UserID: userID, Kind: kind, View: Navigate(kind, view)})
}

func newSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
