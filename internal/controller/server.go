package controller

import (
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"github.com/rryowa/newsapp/internal/models"
	"github.com/rryowa/newsapp/internal/util"
)

// ServerInterface lists the operations of openapi/openapi.yaml.
type ServerInterface interface {
	// (GET /api/ping)
	CheckServer(ctx echo.Context) error
	// (GET /api/openapi.json)
	GetOpenAPI(ctx echo.Context) error
	// (POST /api/auth/signup)
	SignUp(ctx echo.Context) error
	// (POST /api/auth/signin)
	SignIn(ctx echo.Context) error
	// (POST /api/auth/refresh)
	RefreshToken(ctx echo.Context) error
	// (POST /api/auth/signout)
	SignOut(ctx echo.Context) error
	// (GET /api/auth/me)
	GetMe(ctx echo.Context) error
	// (PATCH /api/users/{id}/role)
	ChangeUserRole(ctx echo.Context, id string) error
	// (GET /api/categories)
	ListCategories(ctx echo.Context) error
	// (POST /api/categories)
	CreateCategory(ctx echo.Context) error
	// (PATCH /api/categories/{id})
	UpdateCategory(ctx echo.Context, id string) error
	// (DELETE /api/categories/{id})
	DeleteCategory(ctx echo.Context, id string) error
	// (GET /api/posts)
	ListPosts(ctx echo.Context, params ListPostsParams) error
	// (POST /api/posts)
	CreatePost(ctx echo.Context) error
	// (GET /api/posts/{id})
	GetPost(ctx echo.Context, id string) error
	// (PATCH /api/posts/{id})
	UpdatePost(ctx echo.Context, id string) error
	// (DELETE /api/posts/{id})
	DeletePost(ctx echo.Context, id string) error
}

type ListPostsParams struct {
	Limit    *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Offset   *int    `form:"offset,omitempty" json:"offset,omitempty"`
	Category *string `form:"category,omitempty" json:"category,omitempty"`
}

// RouteMiddleware carries the guards attached to individual routes.
type RouteMiddleware struct {
	Authenticated echo.MiddlewareFunc
	RequireRole   func(roles ...models.Role) echo.MiddlewareFunc
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) CheckServer(ctx echo.Context) error {
	return w.Handler.CheckServer(ctx)
}

func (w *ServerInterfaceWrapper) GetOpenAPI(ctx echo.Context) error {
	return w.Handler.GetOpenAPI(ctx)
}

func (w *ServerInterfaceWrapper) SignUp(ctx echo.Context) error {
	return w.Handler.SignUp(ctx)
}

func (w *ServerInterfaceWrapper) SignIn(ctx echo.Context) error {
	return w.Handler.SignIn(ctx)
}

func (w *ServerInterfaceWrapper) RefreshToken(ctx echo.Context) error {
	return w.Handler.RefreshToken(ctx)
}

func (w *ServerInterfaceWrapper) SignOut(ctx echo.Context) error {
	return w.Handler.SignOut(ctx)
}

func (w *ServerInterfaceWrapper) GetMe(ctx echo.Context) error {
	return w.Handler.GetMe(ctx)
}

func (w *ServerInterfaceWrapper) ChangeUserRole(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ChangeUserRole(ctx, id)
}

func (w *ServerInterfaceWrapper) ListCategories(ctx echo.Context) error {
	return w.Handler.ListCategories(ctx)
}

func (w *ServerInterfaceWrapper) CreateCategory(ctx echo.Context) error {
	return w.Handler.CreateCategory(ctx)
}

func (w *ServerInterfaceWrapper) UpdateCategory(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateCategory(ctx, id)
}

func (w *ServerInterfaceWrapper) DeleteCategory(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteCategory(ctx, id)
}

func (w *ServerInterfaceWrapper) ListPosts(ctx echo.Context) error {
	var params ListPostsParams

	if err := runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit); err != nil {
		return util.NewBadRequest("Invalid format for parameter limit")
	}
	if err := runtime.BindQueryParameter("form", true, false, "offset", ctx.QueryParams(), &params.Offset); err != nil {
		return util.NewBadRequest("Invalid format for parameter offset")
	}
	if err := runtime.BindQueryParameter("form", true, false, "category", ctx.QueryParams(), &params.Category); err != nil {
		return util.NewBadRequest("Invalid format for parameter category")
	}

	return w.Handler.ListPosts(ctx, params)
}

func (w *ServerInterfaceWrapper) CreatePost(ctx echo.Context) error {
	return w.Handler.CreatePost(ctx)
}

func (w *ServerInterfaceWrapper) GetPost(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetPost(ctx, id)
}

func (w *ServerInterfaceWrapper) UpdatePost(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdatePost(ctx, id)
}

func (w *ServerInterfaceWrapper) DeletePost(ctx echo.Context) error {
	id, err := bindID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeletePost(ctx, id)
}

func bindID(ctx echo.Context) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", util.NewBadRequest("Invalid format for parameter id")
	}
	return id, nil
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string, mw RouteMiddleware) {
	w := &ServerInterfaceWrapper{Handler: si}

	auth := mw.Authenticated
	editors := mw.RequireRole(models.RoleEditor, models.RoleAdmin)
	admins := mw.RequireRole(models.RoleAdmin)

	router.GET(baseURL+"/ping", w.CheckServer)
	router.GET(baseURL+"/openapi.json", w.GetOpenAPI)

	router.POST(baseURL+"/auth/signup", w.SignUp)
	router.POST(baseURL+"/auth/signin", w.SignIn)
	router.POST(baseURL+"/auth/refresh", w.RefreshToken)
	router.POST(baseURL+"/auth/signout", w.SignOut, auth)
	router.GET(baseURL+"/auth/me", w.GetMe, auth)

	router.PATCH(baseURL+"/users/:id/role", w.ChangeUserRole, auth, admins)

	router.GET(baseURL+"/categories", w.ListCategories)
	router.POST(baseURL+"/categories", w.CreateCategory, auth, editors)
	router.PATCH(baseURL+"/categories/:id", w.UpdateCategory, auth, editors)
	router.DELETE(baseURL+"/categories/:id", w.DeleteCategory, auth, admins)

	router.GET(baseURL+"/posts", w.ListPosts)
	router.POST(baseURL+"/posts", w.CreatePost, auth)
	router.GET(baseURL+"/posts/:id", w.GetPost)
	router.PATCH(baseURL+"/posts/:id", w.UpdatePost, auth)
	router.DELETE(baseURL+"/posts/:id", w.DeletePost, auth)
}
