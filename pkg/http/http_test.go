package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowRequest struct {
	Symbol string `query:"symbol" validate:"required,max=8"`
	Hours  int    `query:"hours" default:"24" validate:"min=1,max=48"`
}

func bindQuery(t *testing.T, query string, req interface{}) interface{} {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?"+query, nil), httptest.NewRecorder())
	return ReadAndValidateRequest(c, req)
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	req := &windowRequest{}
	require.Nil(t, bindQuery(t, "symbol=TCS", req))
	assert.Equal(t, "TCS", req.Symbol)
	assert.Equal(t, 24, req.Hours)
}

func TestReadAndValidateRequestReportsQueryNames(t *testing.T) {
	verr := bindQuery(t, "hours=100", &windowRequest{})
	errs, ok := verr.([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 2)

	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "symbol", errs[0].Field)
	assert.Equal(t, "symbol is required", errs[0].Message)

	assert.Equal(t, "ERR_MAX", errs[1].Code)
	assert.Equal(t, "hours must be at most 48", errs[1].Message)
	assert.Equal(t, "48", errs[1].Params["max"])
}

func TestReadAndValidateRequestBindFailure(t *testing.T) {
	errs, ok := bindQuery(t, "symbol=TCS&hours=abc", &windowRequest{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	cause := errors.New("insufficient data")
	require.NoError(t, AppErrorResponse(c, UnprocessableError("ERR_INSUFFICIENT_DATA", "too few bars").WithError(cause)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 422, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_INSUFFICIENT_DATA", body.Data[0].Code)
	assert.NotContains(t, rec.Body.String(), "insufficient data")

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, errors.New("db password leaked")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, AppErrorResponse(c, TooManyRequestsError("slow down", 3)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3", rec.Header().Get("Retry-After"))
}
