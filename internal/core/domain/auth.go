package domain

// TokenClaims is the tenant identity carried by an API token. Every
// authenticated request is scoped to the token's company.
type TokenClaims struct {
	CompanyID string `json:"company_id"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
