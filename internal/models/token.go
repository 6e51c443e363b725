package models

import (
	"time"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenIssuer and AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
