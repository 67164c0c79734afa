package auth

import "strings"

// Role 内置角色, 与用户的 role 字段一致
type Role string

const (
	RoleOwner       Role = "owner"
	RoleAdmin       Role = "admin"
	RolePM          Role = "pm"
	RoleContributor Role = "contributor"
	RoleViewer      Role = "viewer"
)

// Permission 内置权限, 格式 资源:动作
type Permission string

const (
	PermTeamView   Permission = "team:view"
	PermTeamCreate Permission = "team:create"
	PermTeamUpdate Permission = "team:update"
	PermTeamDelete Permission = "team:delete"

	PermUserView   Permission = "user:view"
	PermUserCreate Permission = "user:create"
	PermUserUpdate Permission = "user:update"
	PermUserDelete Permission = "user:delete"

	PermProjectView   Permission = "project:view"
	PermProjectCreate Permission = "project:create"
	PermProjectUpdate Permission = "project:update"
	PermProjectDelete Permission = "project:delete"

	PermSprintView   Permission = "sprint:view"
	PermSprintCreate Permission = "sprint:create"
	PermSprintUpdate Permission = "sprint:update"
	PermSprintDelete Permission = "sprint:delete"

	PermTaskView   Permission = "task:view"
	PermTaskCreate Permission = "task:create"
	PermTaskUpdate Permission = "task:update"
	PermTaskDelete Permission = "task:delete"

	PermAutomationView   Permission = "automation:view"
	PermAutomationCreate Permission = "automation:create"
	PermAutomationUpdate Permission = "automation:update"
	PermAutomationDelete Permission = "automation:delete"
	PermAutomationTest   Permission = "automation:test"

	PermAIGenerate Permission = "ai:generate"
)

// RolePermissions 每个角色拥有的权限集合
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		"*",
	},
	RoleAdmin: {
		"*",
	},
	RolePM: {
		"project:*",
		"sprint:*",
		"task:*",
		"automation:*",
		"ai:*",
		"user:view",
		"team:view",
	},
	RoleContributor: {
		"task:*",
		"ai:*",
		"*:view",
	},
	RoleViewer: {
		"*:view",
	},
}

// Allow 判断一组角色是否包含所需权限，支持通配符
func Allow(roles []string, need Permission) bool {
	permissions := collectPermissions(roles)

	return len(permissions) > 0 && allow(permissions, need)
}

// IsValidRole 是否为内置角色
func IsValidRole(role string) bool {
	_, ok := RolePermissions[Role(role)]
	return ok
}

func collectPermissions(roles []string) []Permission {
	perms := make([]Permission, 0)
	for _, r := range roles {
		if ps, ok := RolePermissions[Role(r)]; ok {
			perms = append(perms, ps...)
		}
	}
	return perms
}

func allow(have []Permission, need Permission) bool {
	reqParts := strings.Split(string(need), ":")
	for _, p := range have {
		if match(strings.Split(string(p), ":"), reqParts) {
			return true
		}
	}
	return false
}

// match 逐段匹配; 中间的 * 匹配单段, 末尾的 * 匹配剩余所有段
func match(allowed, required []string) bool {
	for i, part := range allowed {
		last := i == len(allowed)-1
		if part == "*" && last {
			return len(required) >= i+1
		}
		if i >= len(required) {
			return false
		}
		if part != "*" && part != required[i] {
			return false
		}
	}
	return len(allowed) == len(required)
}
