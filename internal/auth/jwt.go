// Package auth verifies bearer credentials and derives the building
// binding from their claims.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/minhdn/towerdesk/internal/config"
	"github.com/minhdn/towerdesk/internal/logging"
)

// ErrCredentialInvalid marks a malformed, expired or unverifiable token.
// Callers degrade to an anonymous context; this never surfaces to the client.
var ErrCredentialInvalid = errors.New("credential invalid")

// Claims is a verified token payload.
type Claims map[string]any

// Verifier checks bearer tokens and extracts the building id.
type Verifier struct {
	publicKey       *rsa.PublicKey
	allowUnverified bool
	extractors      []ClaimExtractor
	log             *logging.Logger
}

// NewVerifier builds a Verifier from config. With a public key configured,
// tokens must carry a valid RS256 signature. Without one, AllowUnverified
// must be set explicitly; tokens are then decoded without signature checks
// (development only) but expiry is still enforced.
func NewVerifier(cfg config.AuthConfig, log *logging.Logger) (*Verifier, error) {
	v := &Verifier{
		allowUnverified: cfg.AllowUnverified,
		extractors:      defaultExtractors(),
		log:             log.Sub("auth"),
	}

	if cfg.PublicKey != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKey))
		if err != nil {
			return nil, fmt.Errorf("parsing auth public key: %w", err)
		}
		v.publicKey = key
	} else if !cfg.AllowUnverified {
		return nil, errors.New("auth: no public key configured and allowUnverified is off")
	}

	return v, nil
}

// Verify checks the raw token and returns its claims.
func (v *Verifier) Verify(raw string) (Claims, error) {
	if v.publicKey != nil {
		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return v.publicKey, nil
		}, jwt.WithValidMethods([]string{"RS256"}))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCredentialInvalid, err)
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected claims type", ErrCredentialInvalid)
		}
		return Claims(claims), nil
	}

	// Unverified mode: decode without a signature check but keep the
	// expiry gate so stale tokens cannot linger in local setups.
	tok, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialInvalid, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrCredentialInvalid)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCredentialInvalid, err)
	}
	if exp != nil && exp.Before(time.Now()) {
		return nil, fmt.Errorf("%w: token expired", ErrCredentialInvalid)
	}
	return Claims(claims), nil
}

// BuildingID resolves the building id from verified claims, or "" when
// the claims carry none (ambiguous-claims condition, logged as a warning
// by the caller).
func (v *Verifier) BuildingID(claims Claims) string {
	for _, extract := range v.extractors {
		if id := extract(claims); id != "" {
			return id
		}
	}
	return ""
}

// ClaimExtractor derives a building id from a claim set, returning ""
// when its source is absent.
type ClaimExtractor func(Claims) string

// SetExtractors replaces the claim precedence chain. The default chain is
// deliberately preserved from the identity-provider integration: direct
// claim, then nested custom claims, then a role-name heuristic.
func (v *Verifier) SetExtractors(chain []ClaimExtractor) {
	v.extractors = chain
}

func defaultExtractors() []ClaimExtractor {
	return []ClaimExtractor{
		extractDirect,
		extractCustomClaims,
		extractRealmRole,
	}
}

// extractDirect reads the top-level building_id claim.
func extractDirect(c Claims) string {
	if id, ok := c["building_id"].(string); ok {
		return id
	}
	return ""
}

// extractCustomClaims reads custom_claims.building_id.
func extractCustomClaims(c Claims) string {
	custom, ok := c["custom_claims"].(map[string]any)
	if !ok {
		return ""
	}
	if id, ok := custom["building_id"].(string); ok {
		return id
	}
	return ""
}

// extractRealmRole takes the first realm_access role whose name contains
// "building". Fragile, but matches what the realm actually issues.
func extractRealmRole(c Claims) string {
	realm, ok := c["realm_access"].(map[string]any)
	if !ok {
		return ""
	}
	roles, ok := realm["roles"].([]any)
	if !ok {
		return ""
	}
	for _, r := range roles {
		role, ok := r.(string)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(role), "building") {
			return role
		}
	}
	return ""
}
