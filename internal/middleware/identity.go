package middleware

import (
	"net/http"

	"storefront-be/internal/apperror"
	"storefront-be/internal/auth"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// RequireIdentity rejects requests without a valid credential and stores the
// resolved identity on the request context.
func RequireIdentity(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.ResolveIdentity(auth.ExtractCredential(r))
			if err != nil {
				logger.FromCtx(r.Context()).Debug("identity rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				apperror.WriteJSON(w, err)
				return
			}

			ctx := auth.WithIdentity(r.Context(), id)
			ctx = logger.WithUserID(ctx, id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalIdentity attaches an identity when a valid credential is present
// and lets anonymous requests through untouched.
func OptionalIdentity(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred := auth.ExtractCredential(r)
			if cred == "" {
				next.ServeHTTP(w, r)
				return
			}

			if id, err := resolver.ResolveIdentity(cred); err == nil {
				ctx := auth.WithIdentity(r.Context(), id)
				r = r.WithContext(logger.WithUserID(ctx, id.UserID))
			}
			next.ServeHTTP(w, r)
		})
	}
}
