package maintenance

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

const triggerTimeout = 10 * time.Second

// TriggerOnRead runs a maintenance pass before the wrapped read handler,
// at most once per throttle window. Sweep failures never fail the request.
func (r *Runner) TriggerOnRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.due() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), triggerTimeout)
			_, _ = r.RunAll(ctx)
			cancel()
		}
		c.Next()
	}
}
