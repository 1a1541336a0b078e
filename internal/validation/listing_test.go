package validation

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/listings-api/internal/errs"
	"github.com/deppfellow/listings-api/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(method, target, body string) echo.Context {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func requireBadRequest(t *testing.T, err error, message string) {
	t.Helper()
	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	if message != "" {
		assert.Equal(t, message, httpErr.Message)
	}
}

func TestListListingsRequest(t *testing.T) {
	valid := []struct {
		target string
		want   repository.ListQuery
	}{
		{"/api/listings?page=1&perPage=10", repository.ListQuery{Page: 1, PerPage: 10}},
		{"/api/listings?page=3&perPage=2&name=cabin", repository.ListQuery{Page: 3, PerPage: 2, Name: "cabin"}},
	}
	for _, tc := range valid {
		t.Run(tc.target, func(t *testing.T) {
			var req ListListingsRequest
			require.NoError(t, BindAndValidate(newContext(http.MethodGet, tc.target, ""), &req))
			assert.Equal(t, tc.want, req.Query())
		})
	}

	invalid := []string{
		"/api/listings",
		"/api/listings?page=1",
		"/api/listings?perPage=10",
		"/api/listings?page=&perPage=10",
		"/api/listings?page=abc&perPage=10",
		"/api/listings?page=1&perPage=ten",
		"/api/listings?page=0&perPage=10",
		"/api/listings?page=1&perPage=-5",
		"/api/listings?page=1.5&perPage=10",
		"/api/listings?page=1&perPage=99999999999999999999999",
	}
	for _, target := range invalid {
		t.Run(target, func(t *testing.T) {
			var req ListListingsRequest
			err := BindAndValidate(newContext(http.MethodGet, target, ""), &req)
			requireBadRequest(t, err, MsgInvalidPagination)
		})
	}
}

func TestCreateListingRequest(t *testing.T) {
	t.Run("object body", func(t *testing.T) {
		var req CreateListingRequest
		err := BindAndValidate(newContext(http.MethodPost, "/api/listings", `{"name":"Lakeview Cabin","beds":2}`), &req)
		require.NoError(t, err)
		assert.Equal(t, "Lakeview Cabin", req.Document.Name())
		assert.Equal(t, 2.0, req.Document["beds"])
	})

	t.Run("empty body is an empty document", func(t *testing.T) {
		var req CreateListingRequest
		require.NoError(t, BindAndValidate(newContext(http.MethodPost, "/api/listings", ""), &req))
		assert.NotNil(t, req.Document)
		assert.Empty(t, req.Document)
	})

	for name, body := range map[string]string{
		"malformed":      `{"name":`,
		"array":          `[1,2]`,
		"scalar":         `"cabin"`,
		"null":           `null`,
		"trailing value": `{"a":1}{"b":2}`,
	} {
		t.Run(name, func(t *testing.T) {
			var req CreateListingRequest
			err := BindAndValidate(newContext(http.MethodPost, "/api/listings", body), &req)
			requireBadRequest(t, err, "")
		})
	}
}

func TestUpdateListingRequest(t *testing.T) {
	c := newContext(http.MethodPut, "/api/listings/abc", `{"price":120}`)
	c.SetParamNames("id")
	c.SetParamValues("abc")

	var req UpdateListingRequest
	require.NoError(t, BindAndValidate(c, &req))
	assert.Equal(t, "abc", req.ID)
	assert.Equal(t, 120.0, req.Fields["price"])
}

func TestListingIDRequestRequiresID(t *testing.T) {
	c := newContext(http.MethodGet, "/api/listings/", "")
	c.SetParamNames("id")
	c.SetParamValues("")

	var req ListingIDRequest
	err := BindAndValidate(c, &req)
	requireBadRequest(t, err, "Validation failed")

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "id", httpErr.Errors[0].Field)
	assert.Equal(t, "is required", httpErr.Errors[0].Error)
}

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestDecodeDocumentKeepsBodyLimitStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/listings", failingReader{err: echo.ErrStatusRequestEntityTooLarge})
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := echo.New().NewContext(req, httptest.NewRecorder())

	var create CreateListingRequest
	err := BindAndValidate(c, &create)

	var echoErr *echo.HTTPError
	require.ErrorAs(t, err, &echoErr)
	assert.Equal(t, http.StatusRequestEntityTooLarge, echoErr.Code)
}

func TestDecodeDocumentReadFailureIsBadRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/listings", failingReader{err: io.ErrUnexpectedEOF})
	c := echo.New().NewContext(req, httptest.NewRecorder())

	var create CreateListingRequest
	requireBadRequest(t, BindAndValidate(c, &create), "Request body must be valid JSON")
}
