package common

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Code string

const (
	SUCCESS = "SUCCESS"
	FAIL    = "FAIL"
)

var BadRequestErr = fmt.Errorf("bad request")

func Response(ctx *gin.Context, code Code, data interface{}) {
	if code == FAIL {
		if msg, ok := data.(string); ok {
			ctx.JSON(http.StatusOK, gin.H{
				"Code":    code,
				"Message": msg,
				"Data":    nil,
			})
			return
		}
	}
	ctx.JSON(http.StatusOK, gin.H{
		"Code":    code,
		"Message": nil,
		"Data":    data,
	})
}

func ResponseError(ctx *gin.Context, err error) {
	Response(ctx, FAIL, err.Error())
}

func ResponseBadRequestError(ctx *gin.Context) {
	Response(ctx, FAIL, BadRequestErr.Error())
}

func ResponseSuccess(ctx *gin.Context, data interface{}) {
	Response(ctx, SUCCESS, data)
}
