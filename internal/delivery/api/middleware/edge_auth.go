package middleware

import (
	"bazaar/internal/delivery/api/response"
	"bazaar/internal/delivery/edge"

	"github.com/labstack/echo/v4"
)

const edgeIdentityKey = "edge_identity"

// EdgeAuth guards handlers that may be served from a host outside the cookie domain.
type EdgeAuth struct {
	verifier *edge.Verifier
}

func NewEdgeAuth(verifier *edge.Verifier) *EdgeAuth {
	return &EdgeAuth{verifier: verifier}
}

func (m *EdgeAuth) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		identity, rejection := m.verifier.Verify(c.Request())
		if rejection != nil {
			return response.Unauthorized(c, rejection.Err.ErrorCode(), rejection.Err.Message())
		}

		c.Set(edgeIdentityKey, identity)

		return next(c)
	}
}

// GetEdgeIdentity returns the identity stored by Authenticate.
func GetEdgeIdentity(c echo.Context) (*edge.Identity, bool) {
	identity, ok := c.Get(edgeIdentityKey).(*edge.Identity)

	return identity, ok && identity != nil
}
