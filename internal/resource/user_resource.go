package resource

import (
	"blog-api/internal/model"
	"blog-api/internal/query"
	"github.com/gin-gonic/gin"
)

type userField struct {
	name    string
	value   func(*model.User, query.Spec) any
	visible func(*model.User, query.Spec) bool
}

func userAlways(*model.User, query.Spec) bool { return true }

var userFields = []userField{
	{name: "id", value: func(u *model.User, _ query.Spec) any { return u.ID }, visible: userAlways},
	{name: "name", value: func(u *model.User, _ query.Spec) any { return u.Name }, visible: userAlways},
	{name: "email", value: func(u *model.User, _ query.Spec) any { return u.Email }, visible: userAlways},
	{name: "email_verified_at", value: func(u *model.User, _ query.Spec) any { return u.EmailVerifiedAt }, visible: userAlways},
	{name: "created_at", value: func(u *model.User, _ query.Spec) any { return u.CreatedAt }, visible: userAlways},
	{name: "updated_at", value: func(u *model.User, _ query.Spec) any { return u.UpdatedAt }, visible: userAlways},
	{
		name:    "roles",
		value:   rolesValue,
		visible: func(_ *model.User, spec query.Spec) bool { return spec.HasInclude("roles") },
	},
	{
		name:    "permissions",
		value:   permissionsValue,
		visible: func(_ *model.User, spec query.Spec) bool { return spec.HasInclude("permissions") },
	},
}

func rolesValue(u *model.User, spec query.Spec) any {
	roles := make([]gin.H, 0, len(u.Roles))
	for _, role := range u.Roles {
		entry := gin.H{
			"id":         role.ID,
			"name":       role.Name,
			"guard_name": role.GuardName,
		}
		// Nested permission detail only when the full dotted path was
		// requested and allowed.
		if spec.HasInclude("roles.permissions") {
			entry["permissions"] = permissionList(role.Permissions)
		}
		roles = append(roles, entry)
	}
	return roles
}

func permissionsValue(u *model.User, _ query.Spec) any {
	return permissionList(u.Permissions)
}

func permissionList(perms []model.Permission) []gin.H {
	out := make([]gin.H, 0, len(perms))
	for _, p := range perms {
		out = append(out, gin.H{
			"id":         p.ID,
			"name":       p.Name,
			"guard_name": p.GuardName,
		})
	}
	return out
}

// User renders one user. The spec's include set drives relation visibility;
// a relation that was not loaded is absent from the output entirely.
func User(u *model.User, spec query.Spec) gin.H {
	out := gin.H{}
	for _, f := range userFields {
		if f.visible(u, spec) {
			out[f.name] = f.value(u, spec)
		}
	}
	return out
}

// Users renders a page of users.
func Users(page *query.Page[model.User], spec query.Spec) gin.H {
	items := make([]gin.H, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, User(&page.Items[i], spec))
	}
	return gin.H{"items": items, "meta": page.Meta}
}
