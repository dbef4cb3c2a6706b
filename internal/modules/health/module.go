package health

import (
	"net/http"
	"webhook_bot/internal/modules/health/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// Routes вешает /livez, /readyz и /healthz на общий listener.
func Routes(r gin.IRoutes, state *service.State) {
	r.GET("/livez", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/readyz", func(c *gin.Context) {
		if !state.Ready() {
			c.String(http.StatusServiceUnavailable, "not ready")
			return
		}
		c.String(http.StatusOK, "ready")
	})

	r.GET("/healthz", func(c *gin.Context) {
		var lastSignal int64
		if t := state.LastSignal(); !t.IsZero() {
			lastSignal = t.Unix()
		}
		c.JSON(http.StatusOK, gin.H{
			"ready":          state.Ready(),
			"catalogSize":    state.CatalogSize(),
			"deferred":       state.Deferred(),
			"uptimeSec":      int64(state.Uptime().Seconds()),
			"lastSignalUnix": lastSignal,
		})
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(service.NewState),
	)
}
