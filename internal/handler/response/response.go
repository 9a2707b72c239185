// Package response renders the API's JSON envelope. Every endpoint answers
// HTTP 200; the outcome lives in the body's code field, decoded from errno.
package response

import (
	"net/http"

	"deposit-core/pkg/errno"

	"github.com/gin-gonic/gin"
)

// Body wraps every payload. Code 0 is success, anything else is a stable
// errno business code clients can switch on.
type Body struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success writes the payload under code 0. A nil payload becomes an empty
// object so clients never see a null data field.
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	render(c, errno.OK.Code, errno.OK.Message, data)
}

// Error maps err through errno.Decode and writes the resulting code/message
// with an empty data object.
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	render(c, code, msg, gin.H{})
}

func render(c *gin.Context, code int, msg string, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Code:    code,
		Message: msg,
		Data:    data,
	})
}
