package server

import (
	"errors"
	"net/http"

	"github.com/cloudunify/cloudunify/pkg/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
)

// ErrorHandlingMiddleware turns errors attached to the context into a JSON
// error body with a matching status code.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidRequest):
			status = http.StatusBadRequest
		case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
			status = http.StatusNotFound
		case db.IsDuplicateKeyErr(err), db.IsForeignKeyErr(err):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
	}
}

func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
