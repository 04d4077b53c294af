package jwt

import "github.com/golang-jwt/jwt"

// Payload is the claim set carried by access tokens.
type Payload struct {
	jwt.StandardClaims `json:"standard_claims"`

	// ID is the account id the token was issued to.
	ID string `json:"id"`

	// Username is informational; authorization decisions use ID.
	Username string `json:"username"`
}
