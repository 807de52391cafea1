package auth

import "time"

// Config drives access token verification.
type Config struct {
	// Secret is the HS256 signing secret of the Supabase project.
	Secret   string
	Audience string
	Issuer   string
}

// Claims are extracted from a verified access token.
type Claims struct {
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}
