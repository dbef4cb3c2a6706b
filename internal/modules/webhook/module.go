package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
	"webhook_bot/internal/modules/config"
	healthsvc "webhook_bot/internal/modules/health/service"
	"webhook_bot/internal/modules/webhook/service"
	"webhook_bot/internal/runner"
	"webhook_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

func newServer(cfg *config.Config, r *runner.Runner, state *healthsvc.State) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	router := service.NewRouter(service.Options{
		Host:        cfg.Service.Host,
		IPWhitelist: cfg.Service.IPWhitelist,
		OpenHealth:  cfg.Service.OpenHealth,
	}, r, state)

	return &http.Server{
		Addr:              net.JoinHostPort(cfg.Service.Host, strconv.Itoa(cfg.Service.Port)),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// useTLS: сертификат и ключ должны существовать оба.
func useTLS(cfg config.Service) bool {
	if cfg.CertPath == "" || cfg.KeyPath == "" {
		return false
	}
	if _, err := os.Stat(cfg.CertPath); err != nil {
		return false
	}
	_, err := os.Stat(cfg.KeyPath)
	return err == nil
}

// Module: ingress стартует последним и останавливается первым.
func Module() fx.Option {
	return fx.Module("webhook",
		fx.Provide(newServer),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, srv *http.Server) {
			tls := useTLS(cfg.Service)
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					ln, err := net.Listen("tcp", srv.Addr)
					if err != nil {
						return fmt.Errorf("listen %s: %w", srv.Addr, err)
					}
					go func() {
						var err error
						if tls {
							err = srv.ServeTLS(ln, cfg.Service.CertPath, cfg.Service.KeyPath)
						} else {
							logger.Warn("[webhook] cert/key not found, serving plain http")
							err = srv.Serve(ln)
						}
						if err != nil && !errors.Is(err, http.ErrServerClosed) {
							logger.Error("[webhook] server stopped: %v", err)
						}
					}()
					logger.Info("[webhook] listening on %s (tls=%v)", srv.Addr, tls)
					return nil
				},
				OnStop: func(ctx context.Context) error {
					return srv.Shutdown(ctx)
				},
			})
		}),
	)
}
