package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const startedAtKey = "started_at"

// Timing stamps the request start so handlers can report processing time in response meta.
func Timing() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(startedAtKey, time.Now())
		c.Next()
	}
}

// ResponseMeta returns the envelope meta for the current request, merged with extra.
func ResponseMeta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	meta := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		meta[k] = v
	}
	if v, ok := c.Get(startedAtKey); ok {
		if start, ok := v.(time.Time); ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
	return meta
}
