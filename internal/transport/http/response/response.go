package response

import "github.com/gin-gonic/gin"

// ErrorBody is the single error shape of the API.
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Error builds a body, falling back to the status text when msg is empty.
func Error(status int, msg string) ErrorBody {
	if msg == "" {
		msg = MsgMap[status]
	}
	return ErrorBody{Error: msg}
}

// Abort writes the error body and stops the handler chain.
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}
