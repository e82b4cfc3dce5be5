package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCan_RoleInheritance(t *testing.T) {
	assert.True(t, Can(RoleAdmin, ModerateResources))
	assert.True(t, Can(RoleSuperadmin, ModerateResources))
	assert.False(t, Can(RoleUser, ModerateResources))
	assert.False(t, Can("", AccessAdmin))
	assert.False(t, Can("guest", AccessAdmin))
}

func TestCan_SuperadminOnly(t *testing.T) {
	assert.True(t, Can(RoleSuperadmin, AssignSuperadmin))
	assert.False(t, Can(RoleAdmin, AssignSuperadmin))
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, IsAdmin("admin"))
	assert.True(t, IsAdmin("superadmin"))
	assert.False(t, IsAdmin("user"))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole("superadmin"))
	assert.False(t, ValidRole("owner"))
}
