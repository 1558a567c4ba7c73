// Package response renders the service's HTTP envelope. Every reply,
// success or failure, goes out with HTTP 200 and an application-level
// code; clients switch on the code, not the transport status.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// apiErr pairs an errcode value with a client-facing message so the
// envelope writer can pick up the code through its Code method.
type apiErr struct {
	code uint32
	msg  string
}

func (e apiErr) Error() string {
	return e.msg
}

func (e apiErr) Code() uint32 {
	return e.code
}

// Success writes data inside the standard success envelope.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes a failure envelope carrying an errcode value and message.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, apiErr{code: uint32(code), msg: message})
}
