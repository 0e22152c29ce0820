package middleware

import (
	"github.com/Jomkit/Omakase/config"
	"github.com/Jomkit/Omakase/models"
	"github.com/gin-gonic/gin"
)

const currentUserContextKey = "current_user"

// Actions gated by the authorization policy.
const (
	ActionViewDashboard   = "view_dashboard"
	ActionManageMenu      = "manage_menu"
	ActionManageEmployees = "manage_employees"
	ActionEditRestaurant  = "edit_restaurant"
)

// actionPolicy maps each action to the group and/or role it requires.
type actionPolicy struct {
	group string
	role  string
}

var policies = map[string]actionPolicy{
	ActionViewDashboard:   {group: models.GroupEmployee},
	ActionManageMenu:      {group: models.GroupEmployee},
	ActionManageEmployees: {group: models.GroupEmployee, role: models.RoleManager},
	ActionEditRestaurant:  {group: models.GroupEmployee, role: models.RoleManager},
}

// Allowed is the single authorization decision point: it reports whether
// the actor may perform the action. Admins satisfy every role requirement.
func Allowed(actor *models.User, action string) bool {
	if actor == nil {
		return false
	}
	policy, ok := policies[action]
	if !ok {
		return false
	}
	if policy.group != "" && !actor.InGroup(policy.group) {
		return false
	}
	if policy.role != "" && !actor.HasRole(policy.role) && !actor.HasRole(models.RoleAdmin) {
		return false
	}
	return true
}

// CurrentUser returns the logged-in user for this request, loading it from
// the session on first use. Returns nil when nobody is logged in.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(currentUserContextKey); exists {
		return v.(*models.User)
	}

	session := GetSession(c)
	userID, ok := session.GetUint(SessionKeyUserID)
	if !ok {
		return nil
	}

	user, err := models.GetUser(config.GetDB(), userID)
	if err != nil {
		// Stale session pointing at a deleted user
		session.Pop(SessionKeyUserID)
		return nil
	}

	c.Set(currentUserContextKey, user)
	return user
}

// RequireLogin rejects requests without a logged-in user.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			abortUnauthenticated(c, "Login required")
			return
		}
		c.Next()
	}
}

// RequirePermission rejects requests whose actor may not perform the action.
func RequirePermission(action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			abortUnauthenticated(c, "Login required")
			return
		}
		if !Allowed(user, action) {
			abortUnauthenticated(c, "You do not have permission to do that")
			return
		}
		c.Next()
	}
}
