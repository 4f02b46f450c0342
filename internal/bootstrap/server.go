package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/gearbooking/api"
	"github.com/Domenick1991/gearbooking/config"
	_ "github.com/Domenick1991/gearbooking/docs"
	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/service/booking"
	"github.com/Domenick1991/gearbooking/internal/service/catalog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// StatsSource exposes the executor counters on /debug/queries.
type StatsSource interface {
	Stats() database.Stats
}

type Deps struct {
	Bookings booking.BookingUseCase
	Catalog  catalog.CatalogUseCase
	Stats    StatsSource
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

// Run starts the HTTP server and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewRouter(cfg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Log.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter wires the booking API plus the operational endpoints.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.App.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(deps.Log.Named("http")))

	v1 := router.Group("/api/v1")
	api.NewBookingHandler(deps.Bookings).Register(v1.Group("/bookings"))
	api.NewEquipmentHandler(deps.Catalog, deps.Bookings).Register(v1.Group("/equipment"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if deps.Stats != nil {
		router.GET("/debug/queries", func(c *gin.Context) {
			c.JSON(http.StatusOK, deps.Stats.Stats())
		})
	}
	if cfg.HTTP.SwaggerURL != "" {
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(cfg.HTTP.SwaggerURL))))
	}
	return router
}
