package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "auto-ria-clone/internal/transport/http/response"
)

// ConcurrencyLimit caps the requests in flight to protect the database.
func ConcurrencyLimit(n int64) gin.HandlerFunc {
	sem := semaphore.NewWeighted(n)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeServiceBusy, "server busy"))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
