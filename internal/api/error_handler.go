package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rryowa/newsapp/internal/util"
)

// ErrorHandler is the single place failures become responses. Known kinds
// are sent as they are; anything else is logged and answered with an opaque 500.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		re := classify(err)
		if re == nil {
			log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
			writeJSON(log, c, http.StatusInternalServerError, util.InternalErrorBody)
			return
		}

		switch {
		case re.Kind == util.KindStorage:
			log.Errorw("storage error", "error", re.Err, "uri", c.Request().RequestURI)
		case re.Err != nil:
			log.Debugw("request failed", "code", re.Kind.Code(), "cause", re.Err, "uri", c.Request().RequestURI)
		}

		writeJSON(log, c, re.Status(), re.Body())
	}
}

// classify maps err onto the taxonomy. It returns nil for unrecognized errors.
func classify(err error) *util.ResponseError {
	if re, ok := util.AsResponseError(err); ok {
		return re
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return nil
	}

	switch {
	case he.Code == http.StatusNotFound, he.Code == http.StatusMethodNotAllowed:
		return &util.ResponseError{Kind: util.KindNotFound, Msg: "Route not found", Err: err}
	case he.Code == http.StatusUnauthorized:
		return &util.ResponseError{Kind: util.KindUnauthorized, Msg: "Unauthorized", Err: err}
	case he.Code == http.StatusTooManyRequests:
		return &util.ResponseError{Kind: util.KindTooManyRequests, Msg: "Too many requests", Err: err}
	case he.Code >= http.StatusBadRequest && he.Code < http.StatusInternalServerError:
		msg, ok := he.Message.(string)
		if !ok || msg == "" {
			msg = http.StatusText(he.Code)
		}
		return &util.ResponseError{Kind: util.KindBadRequest, Msg: msg, Err: err}
	default:
		return nil
	}
}

func writeJSON(log *zap.SugaredLogger, c echo.Context, status int, body util.ErrorBody) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}
