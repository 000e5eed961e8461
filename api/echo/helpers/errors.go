package helpers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/enroll"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	ErrHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	ErrHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTokenSigningFailed = errors.New("failed to sign token")
)

// NewAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func NewAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		appHTTPErrorHandler(err, c, logger, signalShutdown)
	}
}

func appHTTPErrorHandler(err error, c echo.Context, logger core.Logger, signalShutdown func()) {
	var code int
	var message interface{}

	switch err := err.(type) {
	case *echo.HTTPError:
		if err == middleware.ErrJWTMissing {
			code = http.StatusUnauthorized
			message = err.Message
			break
		}
		if err.Internal != nil {
			if herr, ok := err.Internal.(*echo.HTTPError); ok {
				err = herr
			}
		}
		code = err.Code
		message = err.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string)
		for _, vErr := range err {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		code = http.StatusBadRequest
		message = fldErrs
	case *core.ValidationError:
		if err.Fields != nil {
			fldErrs := make(map[string]string)
			for _, fErr := range err.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = err.Error()
		}
		code = http.StatusBadRequest
	case *class.PlanError:
		code = http.StatusBadRequest
		message = echo.Map{"session": err.Session, "rule": err.Rule, "detail": err.Detail}
	default:
		code, message = domainErrorResponse(err)
		if code == http.StatusInternalServerError {
			if logger != nil {
				msg, _ := message.(string)
				logger.Error(msg, err)
			}
			// shutting down...
			if core.IsShutdown(err) && signalShutdown != nil {
				signalShutdown()
			}
		}
	}

	if c.Echo().Debug {
		message = err.Error()
	} else if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	// Send response
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead { // Issue #608
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, message)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}

// domainErrorResponse maps sentinel service errors, wrapped or not, to HTTP
// statuses. Anything unrecognized is a server error.
func domainErrorResponse(err error) (int, interface{}) {
	switch {
	case errors.Is(err, class.ErrNotFound),
		errors.Is(err, class.ErrSessionNotFound),
		errors.Is(err, enroll.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, class.ErrReplaceConflict):
		return http.StatusConflict, class.ErrReplaceConflict.Error()
	case errors.Is(err, enroll.ErrAlreadyEnrolled):
		return http.StatusConflict, enroll.ErrAlreadyEnrolled.Error()
	case errors.Is(err, class.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, class.ErrPartialReplace):
		return http.StatusInternalServerError, "the schedule update could not be applied, please try again"
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}
