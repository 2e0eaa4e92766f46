package roles

import (
	"context"
	"fmt"
	"strings"

	"github.com/b3pay/b3walletd/internal/core/domain"
	"github.com/b3pay/b3walletd/internal/core/ports"
)

// static maps caller tokens to roles with a table fixed at startup.
type static struct {
	roles map[string]domain.Role
}

// NewStatic returns a RoleAuthority granting RoleAdmin to admins and
// RoleSigner to signers. A token listed in both lists is an admin.
func NewStatic(admins, signers []string) (ports.RoleAuthority, error) {
	roles := make(map[string]domain.Role)
	for _, token := range signers {
		token = strings.TrimSpace(token)
		if len(token) <= 0 {
			return nil, fmt.Errorf("signer token must not be empty")
		}
		roles[token] = domain.RoleSigner
	}
	for _, token := range admins {
		token = strings.TrimSpace(token)
		if len(token) <= 0 {
			return nil, fmt.Errorf("admin token must not be empty")
		}
		roles[token] = domain.RoleAdmin
	}
	return &static{roles}, nil
}

func (s *static) RoleOf(_ context.Context, caller string) domain.Role {
	return s.roles[caller]
}
