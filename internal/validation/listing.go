package validation

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/deppfellow/listings-api/internal/errs"
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MsgInvalidPagination is returned for any missing or malformed page/perPage.
const MsgInvalidPagination = "page and perPage are required and must be numbers"

// CreateListingRequest carries the posted listing document.
type CreateListingRequest struct {
	Document repository.Document
}

func (r *CreateListingRequest) Bind(c echo.Context) error {
	doc, err := decodeDocument(c)
	if err != nil {
		return err
	}
	r.Document = doc
	return nil
}

func (r *CreateListingRequest) Validate() error {
	return nil
}

// ListListingsRequest is the query of GET /api/listings. page and perPage are
// kept as raw strings so that absent and malformed values can be told apart
// from zero by Validate.
type ListListingsRequest struct {
	Page    string
	PerPage string
	Name    string

	page    int
	perPage int
}

func (r *ListListingsRequest) Bind(c echo.Context) error {
	return echo.QueryParamsBinder(c).
		String("page", &r.Page).
		String("perPage", &r.PerPage).
		String("name", &r.Name).
		BindError()
}

func (r *ListListingsRequest) Validate() error {
	page, ok := parsePositiveInt(r.Page)
	if !ok {
		return errs.NewBadRequestError(MsgInvalidPagination, nil, nil)
	}
	perPage, ok := parsePositiveInt(r.PerPage)
	if !ok {
		return errs.NewBadRequestError(MsgInvalidPagination, nil, nil)
	}
	r.page, r.perPage = page, perPage
	return nil
}

// Query returns the validated list query. Only meaningful after Validate.
func (r *ListListingsRequest) Query() repository.ListQuery {
	return repository.ListQuery{Page: r.page, PerPage: r.perPage, Name: r.Name}
}

// ListingIDRequest addresses a single listing by its path id.
type ListingIDRequest struct {
	ID string `validate:"required"`
}

func (r *ListingIDRequest) Bind(c echo.Context) error {
	r.ID = c.Param("id")
	return nil
}

func (r *ListingIDRequest) Validate() error {
	return validate.Struct(r)
}

// UpdateListingRequest carries the fields to merge into a listing.
type UpdateListingRequest struct {
	ID     string `validate:"required"`
	Fields repository.Document
}

func (r *UpdateListingRequest) Bind(c echo.Context) error {
	r.ID = c.Param("id")
	doc, err := decodeDocument(c)
	if err != nil {
		return err
	}
	r.Fields = doc
	return nil
}

func (r *UpdateListingRequest) Validate() error {
	return validate.Struct(r)
}

// parsePositiveInt accepts decimal integers >= 1 only.
func parsePositiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// decodeDocument reads a single JSON object from the request body. An empty
// body is an empty document.
func decodeDocument(c echo.Context) (repository.Document, error) {
	body := c.Request().Body
	if body == nil {
		return repository.Document{}, nil
	}

	dec := json.NewDecoder(body)

	var raw any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return repository.Document{}, nil
		}
		// Read errors raised by middleware, e.g. BodyLimit's 413, keep their status.
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			return nil, echoErr
		}
		return nil, errs.NewBadRequestError("Request body must be valid JSON", nil, nil)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errs.NewBadRequestError("Request body must be a JSON object", nil, nil)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errs.NewBadRequestError("Request body must contain a single JSON object", nil, nil)
	}

	return repository.Document(obj), nil
}
