package permkit

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// PermissionContext is request-scoped data used to narrow a permission check.
// Unset fields are nil (or empty for ResourceOwnerID). Values are never mutated
// once constructed; the With* helpers return copies.
type PermissionContext struct {
	OrganizationID  *int64  `json:"organizationId,omitempty"`
	RegionIDs       []int64 `json:"regionIds,omitempty"`
	ResourceOwnerID string  `json:"resourceOwnerId,omitempty"`
}

var (
	orgPathPattern    = regexp.MustCompile(`(?i)/(?:organizations?|orgs?)/(\d+)`)
	regionPathPattern = regexp.MustCompile(`(?i)/regions?/([0-9,]+)`)
	ownerPathPattern  = regexp.MustCompile(`(?i)/users?/([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})(?:[/?#]|$)`)
)

// ResolveContextFromPath derives a PermissionContext from a request path.
//
//   - organization: first "/organization(s)/<n>" or "/org(s)/<n>" segment
//   - regions: "/region(s)/<n>[,<n>...]"
//   - resource owner: a UUID following "/user(s)/"
//
// Fields without a match (or with an unparseable value) stay unset.
//
// Example:
//
//	ctx := permkit.ResolveContextFromPath("/orgs/17/roles?x=1")
//	// *ctx.OrganizationID == 17
func ResolveContextFromPath(path string) PermissionContext {
	var pc PermissionContext

	if m := orgPathPattern.FindStringSubmatch(path); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			pc.OrganizationID = &id
		}
	}

	if m := regionPathPattern.FindStringSubmatch(path); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			if part == "" {
				continue
			}
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				pc.RegionIDs = append(pc.RegionIDs, id)
			}
		}
	}

	if m := ownerPathPattern.FindStringSubmatch(path); m != nil {
		if id, err := uuid.Parse(m[1]); err == nil {
			pc.ResourceOwnerID = id.String()
		}
	}

	return pc
}

// MergeContext combines a session-derived context with a path-derived one.
// Path fields win when present, since the path is specific to the current action.
func MergeContext(user, path PermissionContext) PermissionContext {
	merged := user.clone()
	if path.OrganizationID != nil {
		id := *path.OrganizationID
		merged.OrganizationID = &id
	}
	if len(path.RegionIDs) > 0 {
		merged.RegionIDs = append([]int64(nil), path.RegionIDs...)
	}
	if path.ResourceOwnerID != "" {
		merged.ResourceOwnerID = path.ResourceOwnerID
	}
	return merged
}

// ContextFromUser derives the session part of a PermissionContext.
func ContextFromUser(u CurrentUser) PermissionContext {
	var pc PermissionContext
	if u.OrganizationID != nil {
		id := *u.OrganizationID
		pc.OrganizationID = &id
	}
	if len(u.RegionIDs) > 0 {
		pc.RegionIDs = append([]int64(nil), u.RegionIDs...)
	}
	return pc
}

// WithOrganization returns a copy with the organization set.
func (pc PermissionContext) WithOrganization(id int64) PermissionContext {
	c := pc.clone()
	c.OrganizationID = &id
	return c
}

// WithRegions returns a copy with the region ids set.
func (pc PermissionContext) WithRegions(ids ...int64) PermissionContext {
	c := pc.clone()
	c.RegionIDs = append([]int64(nil), ids...)
	return c
}

// WithResourceOwner returns a copy with the resource owner set.
func (pc PermissionContext) WithResourceOwner(id string) PermissionContext {
	c := pc.clone()
	c.ResourceOwnerID = id
	return c
}

// IsEmpty reports whether no field is set.
func (pc PermissionContext) IsEmpty() bool {
	return pc.OrganizationID == nil && len(pc.RegionIDs) == 0 && pc.ResourceOwnerID == ""
}

func (pc PermissionContext) clone() PermissionContext {
	c := PermissionContext{ResourceOwnerID: pc.ResourceOwnerID}
	if pc.OrganizationID != nil {
		id := *pc.OrganizationID
		c.OrganizationID = &id
	}
	if pc.RegionIDs != nil {
		c.RegionIDs = append([]int64(nil), pc.RegionIDs...)
	}
	return c
}
