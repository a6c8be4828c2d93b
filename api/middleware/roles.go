package middleware

import (
	"net/http"

	"github.com/brewbar/bubbletea-backend/api/responses"
	"github.com/brewbar/bubbletea-backend/pkg/enums"
	pkgerrors "github.com/brewbar/bubbletea-backend/pkg/errors"
	"github.com/brewbar/bubbletea-backend/pkg/logger"
)

// RequireAdmin gates the store management surface. Guest sessions never pass,
// whatever role their token carries.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := RoleFromContext(ctx)
			guest := AnonymousFromContext(ctx)
			if guest || enums.UserRole(role) != enums.UserRoleAdmin {
				err := pkgerrors.New(pkgerrors.CodeForbidden, "admin access required").
					WithDetails(map[string]any{"role": role, "anonymous": guest})
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
