package permkit

import (
	"errors"
	"fmt"
	"sort"
)

// matchKind describes how a capability matched a requested permission.
type matchKind int

const (
	matchNone matchKind = iota
	matchDirect
	matchWildcard
)

// CapabilitySet is the resolved mapping of resources to the actions a role may perform.
// It is immutable once built; only the builders in this file construct it.
type CapabilitySet struct {
	universe    Universe
	resources   []string                       // resources in grant order
	actions     map[string][]string            // resource -> ordered actions, may contain "*"
	actionSet   map[string]map[string]struct{} // resource -> action lookup
	anyResource []string                       // actions granted on every resource ("view:*")
	anySet      map[string]struct{}
	governed    map[string]struct{} // org-governed grant patterns ("approve:locations")
}

// capabilityBuilder accumulates grants and definition errors.
// Invalid grants are recorded in errs and never reach the set.
type capabilityBuilder struct {
	set  *CapabilitySet
	errs []error
}

func newCapabilityBuilder(u Universe) *capabilityBuilder {
	return &capabilityBuilder{
		set: &CapabilitySet{
			universe:  u,
			actions:   make(map[string][]string),
			actionSet: make(map[string]map[string]struct{}),
			anySet:    make(map[string]struct{}),
			governed:  make(map[string]struct{}),
		},
	}
}

func (b *capabilityBuilder) validate(action, resource string) error {
	if action != Wildcard && !b.set.universe.HasAction(action) {
		return NewError(ErrUnknownAction, fmt.Sprintf("action %q is not defined", action)).
			WithPermission(action + ":" + resource)
	}
	if resource != Wildcard && !b.set.universe.HasResource(resource) {
		return NewError(ErrUnknownResource, fmt.Sprintf("resource %q is not defined", resource)).
			WithPermission(action + ":" + resource)
	}
	return nil
}

func (b *capabilityBuilder) grant(action, resource string) {
	if err := b.validate(action, resource); err != nil {
		b.errs = append(b.errs, err)
		return
	}
	s := b.set
	if resource == Wildcard {
		if _, ok := s.anySet[action]; !ok {
			s.anySet[action] = struct{}{}
			s.anyResource = append(s.anyResource, action)
		}
		return
	}
	set, ok := s.actionSet[resource]
	if !ok {
		set = make(map[string]struct{})
		s.actionSet[resource] = set
		s.resources = append(s.resources, resource)
	}
	if _, ok := set[action]; ok {
		return
	}
	set[action] = struct{}{}
	s.actions[resource] = append(s.actions[resource], action)
}

func (b *capabilityBuilder) grantPattern(pattern string) {
	action, resource, err := splitPattern(pattern)
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	b.grant(action, resource)
}

func (b *capabilityBuilder) govern(pattern string) {
	action, resource, err := splitPattern(pattern)
	if err != nil {
		b.errs = append(b.errs, err)
		return
	}
	if err := b.validate(action, resource); err != nil {
		b.errs = append(b.errs, err)
		return
	}
	b.set.governed[action+":"+resource] = struct{}{}
}

func (b *capabilityBuilder) err() error {
	return errors.Join(b.errs...)
}

// FromResourceActionMap builds a CapabilitySet from a resource -> actions map.
// The key "*" grants the listed actions on every resource; the action "*" grants
// every action on that resource. Resources are recorded in sorted order.
//
// Example:
//
//	caps, err := permkit.FromResourceActionMap(permkit.DefaultUniverse(), map[string][]string{
//	    "bookings":  {"view", "create", "edit"},
//	    "schedules": {"*"},
//	})
func FromResourceActionMap(u Universe, grants map[string][]string) (*CapabilitySet, error) {
	b := newCapabilityBuilder(u)
	addResourceActionMap(b, grants)
	if err := b.err(); err != nil {
		return nil, err
	}
	return b.set, nil
}

func addResourceActionMap(b *capabilityBuilder, grants map[string][]string) {
	resources := make([]string, 0, len(grants))
	for r := range grants {
		resources = append(resources, r)
	}
	sort.Strings(resources)
	for _, r := range resources {
		for _, a := range grants[r] {
			b.grant(a, r)
		}
	}
}

// FromFlatList builds a CapabilitySet from flat "action:resource" grant patterns.
// Supports "action:*" (action on every resource), "*:resource" and "*:*".
//
// Example:
//
//	caps, err := permkit.FromFlatList(permkit.DefaultUniverse(), []string{
//	    "view:bookings", "create:bookings", "view:*",
//	})
func FromFlatList(u Universe, patterns []string) (*CapabilitySet, error) {
	b := newCapabilityBuilder(u)
	for _, p := range patterns {
		b.grantPattern(p)
	}
	if err := b.err(); err != nil {
		return nil, err
	}
	return b.set, nil
}

// emptyCapabilities returns a set that grants nothing.
func emptyCapabilities(u Universe) *CapabilitySet {
	return newCapabilityBuilder(u).set
}

// match reports how (action, resource) is granted. Pairs outside the universe never match.
func (c *CapabilitySet) match(action, resource string) matchKind {
	if c == nil || !c.universe.HasAction(action) || !c.universe.HasResource(resource) {
		return matchNone
	}
	if set, ok := c.actionSet[resource]; ok {
		if _, ok := set[action]; ok {
			return matchDirect
		}
		if _, ok := set[Wildcard]; ok {
			return matchWildcard
		}
	}
	if _, ok := c.anySet[action]; ok {
		return matchWildcard
	}
	if _, ok := c.anySet[Wildcard]; ok {
		return matchWildcard
	}
	return matchNone
}

// Allows reports whether the set grants action on resource, directly or via wildcard.
func (c *CapabilitySet) Allows(action, resource string) bool {
	return c.match(action, resource) != matchNone
}

// Governed reports whether the grant for p is subject to organization settings.
func (c *CapabilitySet) Governed(p Permission) bool {
	if c == nil || len(c.governed) == 0 {
		return false
	}
	for _, key := range []string{
		p.Action + ":" + p.Resource,
		p.Action + ":" + Wildcard,
		Wildcard + ":" + p.Resource,
		Wildcard + ":" + Wildcard,
	} {
		if _, ok := c.governed[key]; ok {
			return true
		}
	}
	return false
}

// Resources returns the resources with explicit grants, in grant order.
// Action-wide grants ("view:*") are reported by WildcardActions.
func (c *CapabilitySet) Resources() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.resources...)
}

// Actions returns the ordered actions explicitly granted on resource.
func (c *CapabilitySet) Actions(resource string) []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.actions[resource]...)
}

// WildcardActions returns the actions granted on every resource.
func (c *CapabilitySet) WildcardActions() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.anyResource...)
}

// IsEmpty reports whether the set grants nothing.
func (c *CapabilitySet) IsEmpty() bool {
	return c == nil || (len(c.resources) == 0 && len(c.anyResource) == 0)
}

// Permissions expands the set into every concrete "action:resource" it grants,
// ordered by the universe's resource then action order.
func (c *CapabilitySet) Permissions() []string {
	if c == nil {
		return nil
	}
	var out []string
	for _, r := range c.universe.resources {
		for _, a := range c.universe.actions {
			if c.match(a, r) != matchNone {
				out = append(out, a+":"+r)
			}
		}
	}
	return out
}
