package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

// Claims are the claims of a caller token issued by the daemon.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.StandardClaims
}

// Issuer signs HS256 caller tokens carrying a role claim.
type Issuer struct {
	secret []byte
}

func NewIssuer(secret []byte) (*Issuer, error) {
	if len(secret) <= 0 {
		return nil, fmt.Errorf("missing token secret")
	}
	return &Issuer{append([]byte{}, secret...)}, nil
}

// Issue returns a token for subject with the given role, valid for ttl. A
// zero ttl issues a token without expiry.
func (i *Issuer) Issue(
	subject string, role domain.Role, ttl time.Duration,
) (string, error) {
	if !role.IsValid() {
		return "", domain.ErrInvalidRole
	}
	now := time.Now()
	claims := Claims{
		Role: role,
		StandardClaims: jwt.StandardClaims{
			Subject:  subject,
			IssuedAt: now.Unix(),
		},
	}
	if ttl != 0 {
		claims.ExpiresAt = now.Add(ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Authority resolves the role claim of tokens signed by the issuer.
func (i *Issuer) Authority() ports.RoleAuthority {
	return &jwtAuthority{i.secret}
}

type jwtAuthority struct {
	secret []byte
}

func (a *jwtAuthority) RoleOf(_ context.Context, caller string) domain.Role {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		caller, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return a.secret, nil
		},
	)
	if err != nil || !token.Valid {
		log.WithError(err).Debug("rejected caller token")
		return domain.RoleNone
	}
	return claims.Role
}

type chain []ports.RoleAuthority

// Chain returns a RoleAuthority asking each authority in turn and returning
// the first valid role.
func Chain(authorities ...ports.RoleAuthority) ports.RoleAuthority {
	return chain(authorities)
}

func (c chain) RoleOf(ctx context.Context, caller string) domain.Role {
	for _, a := range c {
		if role := a.RoleOf(ctx, caller); role.IsValid() {
			return role
		}
	}
	return domain.RoleNone
}
