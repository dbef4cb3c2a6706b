package service

import (
	"io"
	"net/http"
	"webhook_bot/internal/modules/health"
	healthsvc "webhook_bot/internal/modules/health/service"
	"webhook_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Enqueuer: очередь обработчика сигналов.
type Enqueuer interface {
	Enqueue(body []byte) error
}

type Options struct {
	Host        string
	IPWhitelist []string
	OpenHealth  bool // /livez, /readyz, /healthz, /metrics без allowlist
	MaxBodySize int64
}

// AllowList пропускает только адреса из списка, listen-хост и loopback.
func AllowList(host string, ips []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(ips)+3)
	for _, ip := range ips {
		allowed[ip] = struct{}{}
	}
	for _, ip := range []string{host, "127.0.0.1", "::1"} {
		if ip != "" {
			allowed[ip] = struct{}{}
		}
	}
	return func(c *gin.Context) {
		if _, ok := allowed[c.ClientIP()]; !ok {
			logger.Warn("[webhook] access denied for %s %s", c.ClientIP(), c.Request.URL.Path)
			c.String(http.StatusForbidden, "Access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}

func NewRouter(opts Options, q Enqueuer, state *healthsvc.State) *gin.Engine {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = 1 << 20
	}

	r := gin.New()
	r.Use(gin.Recovery())
	// ClientIP берём из RemoteAddr, X-Forwarded-For не доверяем
	_ = r.SetTrustedProxies(nil)

	guard := AllowList(opts.Host, opts.IPWhitelist)

	var healthGroup gin.IRoutes = r
	if !opts.OpenHealth {
		healthGroup = r.Group("/", guard)
	}
	health.Routes(healthGroup, state)
	healthGroup.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/", guard)
	api.POST("/webhook", webhookHandler(q, opts.MaxBodySize))
	api.GET("/ping", ping)
	api.POST("/ping", ping)

	return r
}

func ping(c *gin.Context) { c.String(http.StatusOK, "pong") }

func webhookHandler(q Enqueuer, maxBody int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
		if err != nil {
			c.String(http.StatusBadRequest, "bad body")
			return
		}
		if !sonic.Valid(body) {
			logger.Warn("[webhook] non-json body from %s: %q", c.ClientIP(), string(body))
			c.String(http.StatusBadRequest, "bad json")
			return
		}
		if err := q.Enqueue(body); err != nil {
			logger.Error("[webhook] enqueue: %v", err)
			c.String(http.StatusServiceUnavailable, "queue full")
			return
		}
		c.Status(http.StatusOK)
	}
}
