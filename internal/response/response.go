package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "video-summary/pkg/errors"
)

// Response is the envelope of every API reply. Error is 0 on success and an
// apperrors code otherwise.
type Response struct {
	Error  int32  `json:"error"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
	Data   any    `json:"data"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Error: 0,
		Msg:   "成功 Success",
		Data:  data,
	})
}

func Error(c *gin.Context, code int, msg string) {
	c.JSON(http.StatusOK, Response{
		Error: int32(code),
		Msg:   msg,
	})
}

// FromError converts err into an envelope. Errors that are not AppErrors are
// reported as CodeUnknown.
func FromError(err error) Response {
	if err == nil {
		return Response{Msg: "成功 Success"}
	}

	resp := Response{
		Error: int32(apperrors.GetCode(err)),
		Msg:   apperrors.GetMessage(err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Detail = appErr.Detail
	}
	return resp
}

func ErrorResponse(c *gin.Context, err error) {
	c.JSON(http.StatusOK, FromError(err))
}

// Abort replies with an HTTP status other than 200, for file routes where
// clients check the status line.
func Abort(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, FromError(err))
}
