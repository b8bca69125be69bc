package middleware

// identity.go provides the identity extraction helpers shared by the rate
// limiter and the response cache when building context-scoped keys. They
// read the values JWTAuth stored in context; unauthenticated requests key
// as "anon".

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// currentUserID returns the authenticated user's id from context as a
// string, or "anon" when the request carries no identity.
func currentUserID(c echo.Context) string {
	return contextIdentity(c, "user_id")
}

// currentCompanyID returns the authenticated user's company claim from
// context as a string, or "anon" for unauthenticated requests.
func currentCompanyID(c echo.Context) string {
	return contextIdentity(c, "company_id")
}

func contextIdentity(c echo.Context, key string) string {
	v := c.Get(key)
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t != "" {
			return t
		}
	case float64:
		// JWT numeric claims decode as float64.
		return fmt.Sprintf("%.0f", t)
	case uint64:
		return fmt.Sprintf("%d", t)
	}
	return "anon"
}
