package response

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestErrorEnvelopeKeepsHTTP200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Error(c, 40001, "bad input")

	// failures ride HTTP 200; the application code travels in the body
	require.Equal(t, 200, rec.Code)
	require.Contains(t, rec.Body.String(), "40001")
	require.Contains(t, rec.Body.String(), "bad input")
}

func TestAPIErrCarriesCodeAndMessage(t *testing.T) {
	e := apiErr{code: 50000, msg: "internal error"}
	require.EqualValues(t, 50000, e.Code())
	require.Equal(t, "internal error", e.Error())
}
