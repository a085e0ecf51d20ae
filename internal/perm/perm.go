// Package perm names the permission catalog. The strings are stable
// identifiers seeded at startup and referenced by the HTTP gates.
package perm

const (
	UserView   = "USER_VIEW"
	UserCreate = "USER_CREATE"
	UserUpdate = "USER_UPDATE"
	UserDelete = "USER_DELETE"

	RoleView   = "ROLE_VIEW"
	RoleCreate = "ROLE_CREATE"
	RoleUpdate = "ROLE_UPDATE"
	RoleDelete = "ROLE_DELETE"
	RoleAssign = "ROLE_ASSIGN"
	PermView   = "PERMISSION_VIEW"

	DeviceView = "DEVICE_VIEW"
	DeviceKick = "DEVICE_KICK"

	SysConfigView = "SYS_CONFIG_VIEW"
	SysConfigEdit = "SYS_CONFIG_EDIT"
)
