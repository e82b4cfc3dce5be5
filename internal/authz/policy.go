// Package authz answers whether a platform role holds a capability.
//
// Roles inherit downwards: superadmin has every admin capability and admin
// has every user capability. Group-local roles (owner, moderator, ...) are
// not handled here; they belong to the group membership rules.
package authz

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/sirupsen/logrus"
)

type Capability string

const (
	AccessAdmin       Capability = "admin:access"
	ManageUsers       Capability = "users:manage"
	AssignSuperadmin  Capability = "users:assign-superadmin"
	OverrideGroups    Capability = "groups:override"
	OverrideSessions  Capability = "sessions:override"
	ModerateResources Capability = "resources:moderate"
	ModerateChat      Capability = "chat:moderate"
	ModerateRequests  Capability = "requests:moderate"
	ReviewReports     Capability = "reports:review"
)

const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

const rbacModel = `
[request_definition]
r = sub, obj

[policy_definition]
p = sub, obj

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj
`

var adminCapabilities = []Capability{
	AccessAdmin,
	ManageUsers,
	OverrideGroups,
	OverrideSessions,
	ModerateResources,
	ModerateChat,
	ModerateRequests,
	ReviewReports,
}

// Policy wraps a casbin enforcer loaded with the platform role table.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create enforcer: %w", err)
	}

	for _, c := range adminCapabilities {
		if _, err := e.AddPolicy(RoleAdmin, string(c)); err != nil {
			return nil, fmt.Errorf("failed to add policy %s: %w", c, err)
		}
	}
	if _, err := e.AddPolicy(RoleSuperadmin, string(AssignSuperadmin)); err != nil {
		return nil, fmt.Errorf("failed to add policy %s: %w", AssignSuperadmin, err)
	}
	if _, err := e.AddGroupingPolicy(RoleSuperadmin, RoleAdmin); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance: %w", err)
	}
	if _, err := e.AddGroupingPolicy(RoleAdmin, RoleUser); err != nil {
		return nil, fmt.Errorf("failed to add role inheritance: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

func (p *Policy) Can(role string, c Capability) bool {
	if role == "" {
		return false
	}
	ok, err := p.enforcer.Enforce(role, string(c))
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"role": role, "capability": c}).Error("Authorization check failed")
		return false
	}
	return ok
}

var (
	defaultOnce   sync.Once
	defaultPolicy *Policy
)

func policy() *Policy {
	defaultOnce.Do(func() {
		p, err := NewPolicy()
		if err != nil {
			panic(err)
		}
		defaultPolicy = p
	})
	return defaultPolicy
}

// Can reports whether the platform role holds the capability.
func Can(role string, c Capability) bool {
	return policy().Can(role, c)
}

// IsAdmin reports whether role is admin or superadmin.
func IsAdmin(role string) bool {
	return Can(role, AccessAdmin)
}

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}
