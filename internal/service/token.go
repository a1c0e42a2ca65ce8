package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/util"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Outcome is the result tag of a verification. Only Expired is recoverable.
type Outcome int

const (
	Verified Outcome = iota
	Expired
	Malformed
	SignatureInvalid
)

func (o Outcome) String() string {
	switch o {
	case Verified:
		return "verified"
	case Expired:
		return "expired"
	case Malformed:
		return "malformed"
	case SignatureInvalid:
		return "signature_invalid"
	default:
		return "unknown"
	}
}

var (
	ErrWrongTokenType = errors.New("unexpected token type")
	ErrMissingSubject = errors.New("token has no subject")
)

// Claims is the fixed identity payload of every credential. Role is nil when
// the token carries none.
type Claims struct {
	UserID    string
	Role      *models.Role
	Type      TokenType
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Verification is the tagged result of Verify. Claims is set for Verified and
// for Expired (signature was valid); Err carries the reason for logging.
type Verification struct {
	Outcome Outcome
	Claims  *Claims
	Err     error
}

func (v Verification) OK() bool { return v.Outcome == Verified }

type jwtClaims struct {
	Role *models.Role `json:"role,omitempty"`
	Type TokenType    `json:"typ"`
	jwt.RegisteredClaims
}

type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(cfg *util.TokenConfig) *TokenService {
	return &TokenService{
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for issuing and verifying.
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	ts.now = now
	return ts
}

func (ts *TokenService) AccessTTL() time.Duration { return ts.accessTTL }

func (ts *TokenService) RefreshTTL() time.Duration { return ts.refreshTTL }

// Issue signs claims with secret. IssuedAt and ExpiresAt are always set from
// the service clock; a random ID makes every token unique.
func (ts *TokenService) Issue(claims Claims, secret []byte, ttl time.Duration) (string, Claims, error) {
	now := ts.now().Truncate(time.Second)
	claims.IssuedAt = now
	claims.ExpiresAt = now.Add(ttl)
	claims.ID = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtClaims{
		Role: claims.Role,
		Type: claims.Type,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("signed string: %w", err)
	}
	return signed, claims, nil
}

// Verify checks the signature first and the time claims second, so a forged
// token is never reported as Expired. A token at exactly its expiry instant is
// expired.
func (ts *TokenService) Verify(token string, secret []byte, expected TokenType) Verification {
	parsed, err := jwt.ParseWithClaims(
		token,
		&jwtClaims{},
		func(*jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Verification{Outcome: Malformed, Err: err}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return Verification{Outcome: SignatureInvalid, Err: err}
		default:
			return Verification{Outcome: Malformed, Err: err}
		}
	}

	jc, ok := parsed.Claims.(*jwtClaims)
	if !ok || jc.Subject == "" {
		return Verification{Outcome: Malformed, Err: ErrMissingSubject}
	}
	if jc.Type != expected {
		return Verification{Outcome: Malformed, Err: fmt.Errorf("%w: got %q", ErrWrongTokenType, jc.Type)}
	}

	validator := jwt.NewValidator(
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	)
	if err := validator.Validate(jc); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Verification{Outcome: Expired, Claims: jc.toClaims(), Err: err}
		}
		return Verification{Outcome: Malformed, Err: err}
	}

	return Verification{Outcome: Verified, Claims: jc.toClaims()}
}

func (ts *TokenService) IssueAccess(userID string, role models.Role) (string, Claims, error) {
	return ts.Issue(Claims{UserID: userID, Role: &role, Type: AccessToken}, ts.accessSecret, ts.accessTTL)
}

// IssueRefresh carries no role; the current role is re-read on every refresh.
func (ts *TokenService) IssueRefresh(userID string) (string, Claims, error) {
	return ts.Issue(Claims{UserID: userID, Type: RefreshToken}, ts.refreshSecret, ts.refreshTTL)
}

func (ts *TokenService) VerifyAccess(token string) Verification {
	return ts.Verify(token, ts.accessSecret, AccessToken)
}

func (ts *TokenService) VerifyRefresh(token string) Verification {
	return ts.Verify(token, ts.refreshSecret, RefreshToken)
}

func (c *jwtClaims) toClaims() *Claims {
	claims := &Claims{
		UserID: c.Subject,
		Role:   c.Role,
		Type:   c.Type,
		ID:     c.ID,
	}
	if c.IssuedAt != nil {
		claims.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		claims.ExpiresAt = c.ExpiresAt.Time
	}
	return claims
}
