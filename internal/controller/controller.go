package controller

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/service"
	"github.com/rryowa/newsapp/internal/util"
)

var _ ServerInterface = (*Controller)(nil)

type Services struct {
	Auth       *service.AuthService
	Sessions   *service.SessionService
	Users      *service.UserService
	Categories *service.CategoryService
	Posts      *service.PostService
}

type Controller struct {
	zapLogger *zap.SugaredLogger
	services  Services
	creds     *CredentialTransport
	swagger   *openapi3.T
}

func NewController(logger *zap.SugaredLogger, services Services, creds *CredentialTransport, swagger *openapi3.T) *Controller {
	return &Controller{
		zapLogger: logger,
		services:  services,
		creds:     creds,
		swagger:   swagger,
	}
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// (GET /api/openapi.json).
func (c *Controller) GetOpenAPI(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.swagger)
}

func bindAndValidate(ctx echo.Context, req interface{}) error {
	if err := ctx.Bind(req); err != nil {
		return util.NewBadRequest("Invalid request body")
	}
	return ctx.Validate(req)
}

// identity returns the caller attached by the authorization middleware.
func identity(ctx echo.Context) (models.Identity, error) {
	id, ok := service.IdentityFromContext(ctx.Request().Context())
	if !ok {
		return models.Identity{}, util.NewUnauthorized("Unauthorized")
	}
	return id, nil
}

func sessionMeta(ctx echo.Context) models.SessionMeta {
	return models.SessionMeta{
		UserAgent: ctx.Request().UserAgent(),
		IPAddress: ctx.RealIP(),
	}
}
