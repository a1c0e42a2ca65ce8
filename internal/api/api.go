package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	middleware "github.com/oapi-codegen/echo-middleware"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/controller"
	"github.com/rryowa/newsapp/internal/storage"
	"github.com/rryowa/newsapp/internal/util"
)

const (
	shutdownTimeout = 5 * time.Second
	baseURL         = "/api"
)

type API struct {
	server          *echo.Echo
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
}

type Deps struct {
	Controller *controller.Controller
	Swagger    *openapi3.T
	Sessions   SessionManager
	Creds      *controller.CredentialTransport
	Limiter    storage.RateLimiter
}

// NewAPI builds the echo server with the full middleware chain:
// recover, request id, body limit, request log, rate limit, OpenAPI
// validation, then per-route authorization.
func NewAPI(d Deps, l *zap.SugaredLogger, sc *util.ServerConfig) *API {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.IPExtractor = ipExtractor(sc.TrustedProxies)
	e.HTTPErrorHandler = ErrorHandler(l)
	e.Validator = controller.NewRequestValidator()

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomiddleware.BodyLimit(sc.BodyLimit))
	e.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(l)))

	swagger := d.Swagger
	swagger.Servers = nil

	g := e.Group(baseURL)
	if d.Limiter != nil {
		g.Use(RateLimitMiddleware(d.Limiter, l))
	}
	g.Use(middleware.OapiRequestValidatorWithOptions(swagger, &middleware.Options{
		ErrorHandler: openAPIErrorHandler,
		Skipper:      skipMultipart,
		Options: openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
	}))

	controller.RegisterHandlersWithBaseURL(g, d.Controller, "", controller.RouteMiddleware{
		Authenticated: AuthMiddleware(d.Sessions, d.Creds, l),
		RequireRole:   RequireRole,
	})

	return &API{
		server:          e,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
	}
}

// ipExtractor uses the socket address unless trusted proxies are configured.
// Only the listed ranges may then supply X-Forwarded-For hops.
func ipExtractor(trusted []*net.IPNet) echo.IPExtractor {
	if len(trusted) == 0 {
		return echo.ExtractIPDirect()
	}

	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, ipNet := range trusted {
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// Handler exposes the router, mainly for tests.
func (a *API) Handler() http.Handler {
	return a.server
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	longShutdown := make(chan struct{}, 1)

	go func() {
		time.Sleep(a.gracefulTimeout)
		longShutdown <- struct{}{}
	}()

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("server shutdown completed")
		} else {
			a.log.Errorf("server shutdown: %v", ctx.Err())
		}
	case <-longShutdown:
		a.log.Infof("finished")
	}
}
