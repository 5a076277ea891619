// Package access decides what an authenticated caller may do.
//
// Every service call receives an explicit Identity. Nothing is read from
// ambient request state.
package access

import (
	"strings"

	"tunex/core/apperr"
	"tunex/model"
)

// Role is one of the three fixed account roles.
type Role string

const (
	RoleAdmin   Role = model.RoleNameAdmin
	RoleCreator Role = model.RoleNameCreator
	RoleUser    Role = model.RoleNameUser
)

// AllRoles lists every role in seeding order.
var AllRoles = []Role{RoleAdmin, RoleCreator, RoleUser}

// ParseRole maps a role name (case-insensitive) to a Role.
func ParseRole(name string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(name))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleCreator:
		return RoleCreator, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// Identity is the authenticated caller.
type Identity struct {
	UserID   int64
	Username string
	Roles    []Role
}

// Anonymous is the zero identity.
var Anonymous = Identity{}

// NewIdentity builds an Identity from role names, dropping unknown ones.
func NewIdentity(userID int64, username string, roleNames []string) Identity {
	id := Identity{UserID: userID, Username: username}
	for _, n := range roleNames {
		if r, ok := ParseRole(n); ok && !id.Has(r) {
			id.Roles = append(id.Roles, r)
		}
	}
	return id
}

// Authenticated reports whether the identity names a user.
func (i Identity) Authenticated() bool {
	return i.UserID > 0
}

// Has reports whether the identity holds role r.
func (i Identity) Has(r Role) bool {
	for _, held := range i.Roles {
		if held == r {
			return true
		}
	}
	return false
}

// HasAny reports whether the identity holds at least one of roles.
func (i Identity) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if i.Has(r) {
			return true
		}
	}
	return false
}

// RoleNames returns the held roles as strings.
func (i Identity) RoleNames() []string {
	out := make([]string, len(i.Roles))
	for k, r := range i.Roles {
		out[k] = string(r)
	}
	return out
}

// Capability names an action guarded by role membership.
type Capability int

const (
	ManagePlaylists Capability = iota
	RecordPlay
	UploadSong
	ManageOwnSongs
	Moderate
	ViewListenerDashboard
	ViewCreatorDashboard
	ViewAdminDashboard
)

var capabilityRoles = map[Capability][]Role{
	ManagePlaylists:       {RoleUser, RoleCreator},
	RecordPlay:            {RoleUser, RoleCreator},
	UploadSong:            {RoleCreator},
	ManageOwnSongs:        {RoleCreator},
	Moderate:              {RoleAdmin},
	ViewListenerDashboard: {RoleUser, RoleCreator},
	ViewCreatorDashboard:  {RoleCreator},
	ViewAdminDashboard:    {RoleAdmin},
}

func (c Capability) String() string {
	switch c {
	case ManagePlaylists:
		return "manage playlists"
	case RecordPlay:
		return "record play"
	case UploadSong:
		return "upload song"
	case ManageOwnSongs:
		return "manage own songs"
	case Moderate:
		return "moderate"
	case ViewListenerDashboard:
		return "view listener dashboard"
	case ViewCreatorDashboard:
		return "view creator dashboard"
	case ViewAdminDashboard:
		return "view admin dashboard"
	}
	return "unknown"
}

// Decision is the outcome of a capability check.
type Decision struct {
	Allowed    bool
	Capability Capability
	Reason     string
	anonymous  bool
}

// Err converts a denied decision into ErrUnauthorized (no caller) or
// ErrForbidden (caller lacks the role). Allowed decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	if d.anonymous {
		return apperr.Unauthorized("%s: %s", d.Capability, d.Reason)
	}
	return apperr.Forbidden("%s: %s", d.Capability, d.Reason)
}

// Check decides whether id may exercise capability c.
func Check(id Identity, c Capability) Decision {
	if !id.Authenticated() {
		return Decision{Capability: c, Reason: "not logged in", anonymous: true}
	}
	roles, ok := capabilityRoles[c]
	if !ok {
		return Decision{Capability: c, Reason: "unknown capability"}
	}
	if !id.HasAny(roles...) {
		return Decision{Capability: c, Reason: "role not permitted"}
	}
	return Decision{Allowed: true, Capability: c}
}

// Require is Check followed by Decision.Err.
func Require(id Identity, c Capability) error {
	return Check(id, c).Err()
}
