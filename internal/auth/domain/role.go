package domain

import (
	"errors"
	"strings"
)

// Role is a granted authority. Values carry the ROLE_ prefix the mobile
// clients already check for.
type Role string

const (
	RoleMember Role = "ROLE_MEMBER" // the cared-for person
	RoleNOK    Role = "ROLE_NOK"    // next of kin / caregiver

	// RoleGuest rides on temp tokens only and is never stored on an
	// account or accepted by ParseRole.
	RoleGuest Role = "ROLE_GUEST"
)

var ErrUnknownRole = errors.New("domain: unknown role")

// ParseRole accepts either the short form used in join requests ("MEMBER",
// "NOK") or the full authority name.
func ParseRole(s string) (Role, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch Role(s) {
	case RoleMember, RoleNOK:
		return Role(s), nil
	}
	switch Role("ROLE_" + s) {
	case RoleMember, RoleNOK:
		return Role("ROLE_" + s), nil
	}
	return "", ErrUnknownRole
}

// AllRoles lists every role a route may be guarded by.
func AllRoles() []string {
	return []string{string(RoleMember), string(RoleNOK)}
}
