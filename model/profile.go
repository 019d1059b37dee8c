package model

import "time"

const (
	DefaultFullName    = "User"
	DefaultCountryCode = "CO"
)

type Profile struct {
	ID               string     `json:"id"`
	FullName         string     `json:"fullName" validate:"required,max=64"`
	CountryCode      string     `json:"countryCode" validate:"required,len=2,alpha"`
	CurrentStreak    int        `json:"currentStreak"`
	MaxStreak        int        `json:"maxStreak"`
	LastActivityDate *time.Time `json:"lastActivityDate,omitempty"`
	HasSeenWelcome   bool       `json:"hasSeenWelcome"`
	WelcomeSeenAt    *time.Time `json:"welcomeSeenAt,omitempty"`
}

type ProfileUpdate struct {
	FullName    string `json:"fullName" validate:"required,max=64"`
	CountryCode string `json:"countryCode" validate:"required,len=2,alpha"`
}

type Theme struct {
	DarkMode bool `json:"darkMode"`
}
