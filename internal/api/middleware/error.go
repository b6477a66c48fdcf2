package middleware

import (
	"fmt"
	"net/http"

	"lec-simulator/internal/api/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorHandler middleware handles panics and errors
func ErrorHandler(log logrus.FieldLogger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"panic": fmt.Sprint(recovered),
		}).Error("request panicked")

		resp := models.ErrorResponse{
			Detail: "An unexpected error occurred",
			Code:   "INTERNAL_ERROR",
			Errors: []string{},
		}
		if msg, ok := recovered.(string); ok {
			resp.Errors = append(resp.Errors, msg)
		} else if err, ok := recovered.(error); ok {
			resp.Errors = append(resp.Errors, err.Error())
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
	})
}
