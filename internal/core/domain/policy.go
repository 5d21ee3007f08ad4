package domain

// Access policy decisions are pure functions over the caller and the target
// resource; they perform no I/O and are evaluated before any store call.

// IsAdmin reports whether the caller holds the Administrator role.
func IsAdmin(caller Caller) bool {
	return caller.Role == RoleAdministrator
}

// IsSelfOrAdmin reports whether the caller owns the resource or is an
// Administrator.
func IsSelfOrAdmin(caller Caller, resourceOwnerID string) bool {
	return (caller.ID != "" && caller.ID == resourceOwnerID) || IsAdmin(caller)
}
