package permkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveContextFromPath tests context extraction from request paths
func TestResolveContextFromPath(t *testing.T) {
	owner := "550e8400-e29b-41d4-a716-446655440000"

	tests := []struct {
		name     string
		path     string
		expected PermissionContext
	}{
		{name: "organization", path: "/organizations/42/users", expected: PermissionContext{OrganizationID: int64Ptr(42)}},
		{name: "singular organization", path: "/organization/7", expected: PermissionContext{OrganizationID: int64Ptr(7)}},
		{name: "orgs with query", path: "/orgs/17/roles?x=1", expected: PermissionContext{OrganizationID: int64Ptr(17)}},
		{name: "org singular", path: "/api/org/3/kits", expected: PermissionContext{OrganizationID: int64Ptr(3)}},
		{name: "case insensitive", path: "/Organizations/9", expected: PermissionContext{OrganizationID: int64Ptr(9)}},
		{name: "first organization wins", path: "/orgs/1/orgs/2", expected: PermissionContext{OrganizationID: int64Ptr(1)}},
		{name: "regions", path: "/regions/3,7,9", expected: PermissionContext{RegionIDs: []int64{3, 7, 9}}},
		{name: "single region", path: "/region/4/staff", expected: PermissionContext{RegionIDs: []int64{4}}},
		{name: "region list with gaps", path: "/regions/3,,9,", expected: PermissionContext{RegionIDs: []int64{3, 9}}},
		{name: "owner", path: "/users/" + owner, expected: PermissionContext{ResourceOwnerID: owner}},
		{name: "owner with suffix", path: "/user/" + owner + "/bookings", expected: PermissionContext{ResourceOwnerID: owner}},
		{name: "owner uppercase normalized", path: "/users/550E8400-E29B-41D4-A716-446655440000", expected: PermissionContext{ResourceOwnerID: owner}},
		{name: "owner not a uuid", path: "/users/42", expected: PermissionContext{}},
		{name: "owner uuid prefix only", path: "/users/" + owner + "abc", expected: PermissionContext{}},
		{
			name: "everything",
			path: "/organizations/5/regions/1,2/users/" + owner,
			expected: PermissionContext{
				OrganizationID:  int64Ptr(5),
				RegionIDs:       []int64{1, 2},
				ResourceOwnerID: owner,
			},
		},
		{name: "no match", path: "/dashboard", expected: PermissionContext{}},
		{name: "empty", path: "", expected: PermissionContext{}},
		{name: "organization without id", path: "/organizations/new", expected: PermissionContext{}},
		{name: "organization id overflow", path: "/organizations/99999999999999999999", expected: PermissionContext{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveContextFromPath(tt.path))
		})
	}
}

// TestMergeContext tests that path fields take precedence over session fields
func TestMergeContext(t *testing.T) {
	tests := []struct {
		name     string
		user     PermissionContext
		path     PermissionContext
		expected PermissionContext
	}{
		{
			name:     "path organization wins",
			user:     PermissionContext{OrganizationID: int64Ptr(1)},
			path:     PermissionContext{OrganizationID: int64Ptr(2)},
			expected: PermissionContext{OrganizationID: int64Ptr(2)},
		},
		{
			name:     "session fills gaps",
			user:     PermissionContext{OrganizationID: int64Ptr(1), RegionIDs: []int64{4}},
			path:     PermissionContext{ResourceOwnerID: "abc"},
			expected: PermissionContext{OrganizationID: int64Ptr(1), RegionIDs: []int64{4}, ResourceOwnerID: "abc"},
		},
		{
			name:     "path regions replace session regions",
			user:     PermissionContext{RegionIDs: []int64{4, 5}},
			path:     PermissionContext{RegionIDs: []int64{9}},
			expected: PermissionContext{RegionIDs: []int64{9}},
		},
		{
			name:     "both empty",
			expected: PermissionContext{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MergeContext(tt.user, tt.path))
		})
	}
}

// TestMergeContextDoesNotAlias tests that merged contexts share no memory with inputs
func TestMergeContextDoesNotAlias(t *testing.T) {
	user := PermissionContext{OrganizationID: int64Ptr(1), RegionIDs: []int64{4}}
	merged := MergeContext(user, PermissionContext{})

	*merged.OrganizationID = 99
	merged.RegionIDs[0] = 99
	assert.Equal(t, int64(1), *user.OrganizationID)
	assert.Equal(t, int64(4), user.RegionIDs[0])
}

// TestContextFromUser tests deriving the session context
func TestContextFromUser(t *testing.T) {
	pc := ContextFromUser(CurrentUser{ID: "u1", Role: "client_user", OrganizationID: int64Ptr(8), RegionIDs: []int64{2}})
	assert.Equal(t, PermissionContext{OrganizationID: int64Ptr(8), RegionIDs: []int64{2}}, pc)

	assert.True(t, ContextFromUser(CurrentUser{ID: "u1", Role: "client_user"}).IsEmpty())
}

// TestPermissionContextWith tests the copy-returning setters
func TestPermissionContextWith(t *testing.T) {
	base := PermissionContext{}
	withOrg := base.WithOrganization(3)
	withRegions := withOrg.WithRegions(1, 2)
	withOwner := withRegions.WithResourceOwner("owner-1")

	assert.True(t, base.IsEmpty())
	assert.Nil(t, withOrg.RegionIDs)
	assert.Equal(t, "", withRegions.ResourceOwnerID)
	require.NotNil(t, withOwner.OrganizationID)
	assert.Equal(t, int64(3), *withOwner.OrganizationID)
	assert.Equal(t, []int64{1, 2}, withOwner.RegionIDs)
	assert.Equal(t, "owner-1", withOwner.ResourceOwnerID)
}

// TestPermissionContextJSON tests the wire shape of a context
func TestPermissionContextJSON(t *testing.T) {
	data, err := json.Marshal(PermissionContext{OrganizationID: int64Ptr(5), RegionIDs: []int64{1}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"organizationId":5,"regionIds":[1]}`, string(data))

	data, err = json.Marshal(PermissionContext{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}
