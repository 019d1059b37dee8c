package model

import (
	"time"

	"github.com/dgrijalva/jwt-go"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email" validate:"required,email,max=254"`
	Password    string    `json:"password,omitempty"`
	FullName    string    `json:"fullName" validate:"max=64"`
	CountryCode string    `json:"countryCode" validate:"omitempty,len=2,alpha"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserToken carries the claims of an access token. Sub mirrors the user id
// the way hosted auth platforms do.
type UserToken struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.StandardClaims
}

func (t *UserToken) UserID() string {
	return t.Subject
}

type UserMetadata struct {
	FullName    string `json:"full_name,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}

type UserLogin struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	FormStartedAt int64  `json:"formStartedAt"` // unix ms of first focus
	Website       string `json:"website"`       // honeypot
}

type UserRegister struct {
	Name      string `json:"name" validate:"required,min=1,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72,pwdmix"`
	Country   string `json:"country" validate:"omitempty,len=2,alpha"`
	Website   string `json:"website"`   // honeypot
	FormToken string `json:"formToken"` // checked when present
}

type PasswordUpdate struct {
	Password        string `json:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type CodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// Session is what a successful sign in or code exchange hands to the caller.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         User      `json:"user"`
}

// Token is a stored one-shot secret: refresh tokens and recovery codes.
type Token struct {
	Value     string
	UserID    string
	Purpose   string
	ExpiresAt time.Time
	Used      bool
}

const (
	TokenRefresh  = "refresh"
	TokenRecovery = "recovery"
)
