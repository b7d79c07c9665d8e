package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eduverse/site-backend/internal/store"
)

// StoreContextKey holds the store status observed before the handler ran.
const StoreContextKey = "store_status"

// EnsureStore primes the shared store connection before each request. It never aborts: handlers decide what
// an unavailable store means for them.
func EnsureStore(adapter *store.Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adapter.Configured() {
			c.Set(StoreContextKey, adapter.EnsureConnected(c.Request.Context()))
		} else {
			c.Set(StoreContextKey, store.StatusNotConfigured)
		}
		c.Next()
	}
}
