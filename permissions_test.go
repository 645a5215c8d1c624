package permkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParsePermission tests parsing of requested permission tokens
func TestParsePermission(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Permission
		wantErr  bool
	}{
		{name: "action and resource", raw: "view:users", expected: Permission{Action: "view", Resource: "users"}},
		{name: "with scope", raw: "approve:locations:organization", expected: Permission{Action: "approve", Resource: "locations", Scope: "organization"}},
		{name: "hyphenated resource", raw: "view:time-sheets", expected: Permission{Action: "view", Resource: "time-sheets"}},
		{name: "no separator", raw: "not-a-permission", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "uppercase", raw: "View:users", wantErr: true},
		{name: "wildcard resource", raw: "manage:*", wantErr: true},
		{name: "wildcard action", raw: "*:users", wantErr: true},
		{name: "too many parts", raw: "view:users:organization:extra", wantErr: true},
		{name: "trailing colon", raw: "view:users:", wantErr: true},
		{name: "whitespace", raw: " view:users", wantErr: true},
		{name: "digits", raw: "view:users2", wantErr: true},
		{name: "hyphen in scope", raw: "view:users:my-org", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePermission(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsInvalidPermission(err))
				assert.Equal(t, Permission{}, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
			assert.Equal(t, tt.raw, p.String())
		})
	}
}

// TestPermissionKey tests scope stripping and scope detection
func TestPermissionKey(t *testing.T) {
	p := MustPermission("approve:locations:organization")
	assert.Equal(t, "approve:locations", p.Key())
	assert.True(t, p.IsScoped())

	p = MustPermission("view:users")
	assert.Equal(t, "view:users", p.Key())
	assert.False(t, p.IsScoped())
}

// TestMustPermissionPanics tests that malformed constants panic
func TestMustPermissionPanics(t *testing.T) {
	assert.Panics(t, func() { MustPermission("bad") })
	assert.NotPanics(t, func() { MustPermission("view:kits") })
}

// TestSplitPattern tests grant pattern parsing
func TestSplitPattern(t *testing.T) {
	tests := []struct {
		pattern  string
		action   string
		resource string
		wantErr  bool
	}{
		{pattern: "view:users", action: "view", resource: "users"},
		{pattern: "manage:*", action: "manage", resource: "*"},
		{pattern: "*:kits", action: "*", resource: "kits"},
		{pattern: "*:*", action: "*", resource: "*"},
		{pattern: "view:users:organization", wantErr: true},
		{pattern: "view", wantErr: true},
		{pattern: "**:users", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			action, resource, err := splitPattern(tt.pattern)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.resource, resource)
		})
	}
}

// TestUniverse tests the resource/action universe
func TestUniverse(t *testing.T) {
	u := DefaultUniverse()

	assert.True(t, u.HasResource(ResourceUsers))
	assert.True(t, u.HasResource(ResourceOrganizations))
	assert.False(t, u.HasResource("spaceships"))
	assert.True(t, u.HasAction(ActionManage))
	assert.False(t, u.HasAction("launch"))

	assert.True(t, u.Contains(MustPermission("view:users")))
	assert.False(t, u.Contains(MustPermission("view:spaceships")))
	assert.False(t, u.Contains(MustPermission("launch:users")))

	assert.Equal(t, ResourceUsers, u.Resources()[0])
	assert.Equal(t, ActionView, u.Actions()[0])

	// Returned slices are copies
	res := u.Resources()
	res[0] = "mutated"
	assert.Equal(t, ResourceUsers, u.Resources()[0])
}
