package api

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/controller"
	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/service"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

const unauthorizedMsg = "Unauthorized"

var errSubjectMismatch = errors.New("refresh token belongs to another user")

// SessionManager is what the authorization middleware needs from the session layer.
type SessionManager interface {
	VerifyAccess(token string) service.Verification
	Refresh(ctx context.Context, refreshToken string, meta models.SessionMeta) (*service.RefreshResult, error)
}

// AuthMiddleware admits requests that carry a valid access token. An expired
// access token is renewed from the refresh token when possible; in that case
// the response also carries the new access token (cookie and/or
// X-Access-Token header) before the handler runs.
func AuthMiddleware(sessions SessionManager, creds *controller.CredentialTransport, log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := creds.AccessToken(c)
			if token == "" {
				return util.NewUnauthorized(unauthorizedMsg)
			}

			var id models.Identity
			v := sessions.VerifyAccess(token)
			switch v.Outcome {
			case service.Verified:
				id = identityFromClaims(v.Claims)
			case service.Expired:
				// Every renewal failure, store faults included, is a 401 here.
				renewed, err := renew(c, sessions, creds, v.Claims)
				if err != nil {
					log.Infow("Access token renewal failed", "userID", v.Claims.UserID, "error", err)
					return util.WrapUnauthorized(unauthorizedMsg, err)
				}
				log.Debugw("Access token renewed", "userID", renewed.UserID)
				id = renewed
			default:
				log.Debugw("Access token rejected", "outcome", v.Outcome, "error", v.Err)
				return util.WrapUnauthorized(unauthorizedMsg, v.Err)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(service.WithIdentity(req.Context(), id)))
			c.Set(models.MwUserIDKey, id.UserID)
			c.Set(models.MwRoleKey, id.Role)

			return next(c)
		}
	}
}

func renew(c echo.Context, sessions SessionManager, creds *controller.CredentialTransport, expired *service.Claims) (models.Identity, error) {
	refresh := creds.RefreshToken(c)
	if refresh == "" {
		return models.Identity{}, errors.New("no refresh token")
	}

	res, err := sessions.Refresh(c.Request().Context(), refresh, models.SessionMeta{
		UserAgent: c.Request().UserAgent(),
		IPAddress: c.RealIP(),
	})
	if err != nil {
		return models.Identity{}, err
	}
	if res.Identity.UserID != expired.UserID {
		return models.Identity{}, errSubjectMismatch
	}

	creds.SetAccess(c, res.AccessToken)
	return res.Identity, nil
}

func identityFromClaims(claims *service.Claims) models.Identity {
	id := models.Identity{UserID: claims.UserID}
	if claims.Role != nil {
		id.Role = *claims.Role
	}
	return id
}

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := service.IdentityFromContext(c.Request().Context())
			if !ok {
				return util.NewUnauthorized(unauthorizedMsg)
			}
			if !id.HasRole(roles...) {
				return util.NewForbidden("Forbidden")
			}
			return next(c)
		}
	}
}

// RateLimitMiddleware limits requests per client IP. Limiter faults let the
// request through.
func RateLimitMiddleware(limiter storage.RateLimiter, log *zap.SugaredLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ok, retry, err := limiter.Allow(c.Request().Context(), c.RealIP())
			if err != nil {
				log.Errorw("Rate limiter failed", "error", err)
				return next(c)
			}
			if !ok {
				seconds := int(math.Ceil(retry.Seconds()))
				c.Response().Header().Set(echo.HeaderRetryAfter, strconv.Itoa(seconds))
				return util.NewTooManyRequests("Too many requests from this IP, please try again later")
			}
			return next(c)
		}
	}
}

// openAPIErrorHandler turns request validation failures into taxonomy errors.
func openAPIErrorHandler(_ echo.Context, he *echo.HTTPError) error {
	if he.Code == 404 || he.Code == 405 {
		return util.NewNotFound("Route not found")
	}

	var schemaErr *openapi3.SchemaError
	if errors.As(he.Internal, &schemaErr) {
		field := strings.Join(schemaErr.JSONPointer(), ".")
		if field == "" {
			field = "body"
		}
		return util.NewValidationError(util.FieldError{Field: field, Message: schemaErr.Reason})
	}

	var reqErr *openapi3filter.RequestError
	if errors.As(he.Internal, &reqErr) && reqErr.Parameter != nil {
		msg := reqErr.Reason
		if msg == "" {
			msg = "Invalid value"
		}
		return util.NewValidationError(util.FieldError{Field: reqErr.Parameter.Name, Message: msg})
	}

	msg, _ := he.Message.(string)
	if msg == "" {
		msg = "Invalid request"
	}
	return util.NewBadRequest("%s", msg)
}

// skipMultipart leaves file uploads to the handler's own checks.
func skipMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

func GetLoggerMiddlewareConfig(log *zap.SugaredLogger) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		HandleError:  true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				log.Errorw("Request", fields...)
			} else {
				log.Infow("Request", fields...)
			}
			return nil
		},
	}
}
