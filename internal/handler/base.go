package handler

import (
	"net/http"
	"time"

	"github.com/deppfellow/listings-api/internal/errs"
	"github.com/deppfellow/listings-api/internal/middleware"
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/deppfellow/listings-api/internal/server"
	"github.com/deppfellow/listings-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Handler holds the dependencies shared by every handler. Concrete handlers
// embed it.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Payload is satisfied by *Req when Req is a validatable request type.
type Payload[Req any] interface {
	*Req
	validation.Validatable
}

// HandlerFunc is a typed endpoint: it receives a bound and validated request.
type HandlerFunc[PReq validation.Validatable, Res any] func(c echo.Context, req PReq) (Res, error)

// HandlerFuncNoContent is a typed endpoint without response body.
type HandlerFuncNoContent[PReq validation.Validatable] func(c echo.Context, req PReq) error

// ResponseHandler writes a successful result.
type ResponseHandler interface {
	Handle(c echo.Context, result any) error

	// GetOperation names the handler kind in logs.
	GetOperation() string

	// AddAttributes describes the result on the New Relic transaction.
	AddAttributes(txn *newrelic.Transaction, result any)
}

type JSONResponseHandler struct {
	status int
}

func (h JSONResponseHandler) Handle(c echo.Context, result any) error {
	return c.JSON(h.status, result)
}

func (h JSONResponseHandler) GetOperation() string {
	return "handler"
}

func (h JSONResponseHandler) AddAttributes(txn *newrelic.Transaction, result any) {
	switch r := result.(type) {
	case repository.Document:
		txn.AddAttribute("listing.id", r.ID())
	case *repository.ListingPage:
		txn.AddAttribute("listings.returned", len(r.Items))
		txn.AddAttribute("listings.total", r.Total)
	}
}

type NoContentResponseHandler struct {
	status int
}

func (h NoContentResponseHandler) Handle(c echo.Context, _ any) error {
	return c.NoContent(h.status)
}

func (h NoContentResponseHandler) GetOperation() string {
	return "handler_no_content"
}

func (h NoContentResponseHandler) AddAttributes(*newrelic.Transaction, any) {}

// handleRequest binds and validates req, runs handler and writes its result.
// Returned errors go to the global error handler; they are logged here with
// the phase they came from.
func handleRequest[PReq validation.Validatable](
	c echo.Context,
	req PReq,
	handler func(c echo.Context, req PReq) (any, error),
	responseHandler ResponseHandler,
) error {
	start := time.Now()

	txn := newrelic.FromContext(c.Request().Context())
	if txn != nil {
		txn.AddAttribute("handler.name", c.Path())
	}

	logger := middleware.GetLogger(c).With().
		Str("operation", responseHandler.GetOperation()).
		Str("route", c.Path()).
		Logger()

	if err := validation.BindAndValidate(c, req); err != nil {
		logFailure(&logger, err, "validation", time.Since(start))
		if txn != nil {
			txn.AddAttribute("validation.status", "failed")
		}
		return err
	}
	validated := time.Now()

	result, err := handler(c, req)
	if err != nil {
		logFailure(&logger, err, "handler", time.Since(start))
		if txn != nil {
			txn.AddAttribute("handler.status", "error")
		}
		return err
	}

	if txn != nil {
		txn.AddAttribute("handler.status", "success")
		txn.AddAttribute("handler.duration_ms", time.Since(validated).Milliseconds())
		responseHandler.AddAttributes(txn, result)
	}

	logger.Debug().
		Dur("validation_duration", validated.Sub(start)).
		Dur("total_duration", time.Since(start)).
		Msg("request completed")

	return responseHandler.Handle(c, result)
}

// logFailure logs client errors at warn and everything else at error.
func logFailure(logger *zerolog.Logger, err error, phase string, elapsed time.Duration) {
	event := logger.Error()
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) && httpErr.Status < http.StatusInternalServerError {
		event = logger.Warn()
	}
	event.Err(err).
		Str("phase", phase).
		Dur("total_duration", elapsed).
		Msg("request failed")
}

// Handle adapts a typed handler to echo and writes its result as JSON with
// status. A new Req is allocated per request.
//
//	listings.POST("", handler.Handle[validation.CreateListingRequest](h.Listing.CreateListing, http.StatusCreated))
func Handle[Req any, PReq Payload[Req], Res any](
	handler HandlerFunc[PReq, Res],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, PReq(new(Req)), func(c echo.Context, req PReq) (any, error) {
			return handler(c, req)
		}, JSONResponseHandler{status: status})
	}
}

// HandleNoContent is Handle for endpoints that answer with status only.
func HandleNoContent[Req any, PReq Payload[Req]](
	handler HandlerFuncNoContent[PReq],
	status int,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		return handleRequest(c, PReq(new(Req)), func(c echo.Context, req PReq) (any, error) {
			return nil, handler(c, req)
		}, NoContentResponseHandler{status: status})
	}
}
