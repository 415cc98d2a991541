package guard

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/smart-resolve/internal/auth"
	apperrors "github.com/spec-kit/smart-resolve/pkg/util"
)

// RetryAfterSeconds is advertised while identity is still resolving.
const RetryAfterSeconds = 1

// Require guards an API route the same way Evaluate guards a page. It must run
// after auth.AuthMiddleware.
func Require(adminOnly bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := auth.SessionFromContext(c)
		switch Evaluate(StateOf(sess, adminOnly)) {
		case Loading:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
			return apperrors.NewUnavailable("SESSION_LOADING", "session is still loading")
		case ProfileLoading:
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(RetryAfterSeconds))
			return apperrors.NewUnavailable("PROFILE_LOADING", "profile is still loading")
		case RedirectLogin:
			return apperrors.NewUnauthorized("authentication required")
		case RedirectHome:
			return apperrors.NewForbidden("admin access required")
		}
		return c.Next()
	}
}

// RequireCapability rejects a resolved caller whose role lacks capability.
// Use it after Require.
func RequireCapability(capability auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !auth.ProfileAllows(auth.SessionFromContext(c).Profile, capability) {
			return apperrors.NewForbidden("insufficient permissions")
		}
		return c.Next()
	}
}
