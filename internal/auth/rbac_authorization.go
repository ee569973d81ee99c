package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/attendance-management/internal"
	coreuser "github.com/frahmantamala/attendance-management/internal/core/user"
	"github.com/frahmantamala/attendance-management/internal/transport"
)

// RoleAuthorization gates routes on the actor's role. Finer rules, such as
// who may decide a given request, live in the domain services.
type RoleAuthorization struct {
	*transport.BaseHandler
}

func NewRoleAuthorization(logger *slog.Logger) *RoleAuthorization {
	return &RoleAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RoleAuthorization) Require(roles ...coreuser.Role) func(http.Handler) http.Handler {
	allowed := make(map[coreuser.Role]struct{}, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
		names = append(names, string(r))
	}
	message := "requires role " + strings.Join(names, " or ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ra.Actor(w, r)
			if !ok {
				return
			}

			if _, ok := allowed[actor.Role]; !ok {
				ra.Logger.WarnContext(r.Context(), "access denied: role not allowed",
					"user_id", actor.ID,
					"role", actor.Role,
					"required_roles", names)
				ra.WriteAppError(w, internal.NewForbiddenError(message, internal.ErrCodeRoleNotAllowed))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RoleAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.Require(coreuser.RoleAdmin)
}

// RequireManager admits managers and admins.
func (ra *RoleAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.Require(coreuser.RoleManager, coreuser.RoleAdmin)
}
