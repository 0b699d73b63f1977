package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/httpcontext"
)

// HeaderUserID is the header key for the reviewing user's ID
const HeaderUserID = "X-User-ID"

func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			// get request id from header
			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			// get user id from header
			userID := req.Header.Get(HeaderUserID)

			ctx := req.Context()
			ctx = httpcontext.SetRequestID(ctx, requestID)
			ctx = httpcontext.SetMethod(ctx, req.Method)
			ctx = httpcontext.SetRoute(ctx, req.URL.Path)
			ctx = httpcontext.SetRemoteIP(ctx, c.RealIP())
			ctx = httpcontext.SetUserID(ctx, userID)

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
