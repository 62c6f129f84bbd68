package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/jcmexdev/storefront-orders/internal/gatekeeper"
	"github.com/jcmexdev/storefront-orders/internal/order"
)

type contextKey string

// actorKey is where the verified actor identity lives in the request
// context. Handlers downstream of RequireRole may assume it is present.
const actorKey contextKey = "actor"

// RequireRole verifies the bearer token via the gatekeeper and gates the
// route on the actor's role. The ledger trusts whatever identity is
// attached here and performs no credential parsing itself.
func RequireRole(gk *gatekeeper.Gatekeeper, roles ...order.Role) func(http.Handler) http.Handler {
	allowed := make(map[order.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			actor, err := gk.Verify(r.Context(), token)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				writeError(w, http.StatusForbidden, "forbidden", "role not allowed on this route")
				return
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// actorFrom extracts the verified actor attached by RequireRole.
func actorFrom(ctx context.Context) order.Actor {
	actor, _ := ctx.Value(actorKey).(order.Actor)
	return actor
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
