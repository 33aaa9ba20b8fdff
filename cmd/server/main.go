package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/database"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/ledger"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/queue"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/router"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/utils"
	"github.com/iliyamo/cinema-booking/internal/worker"
)

func main() {
	cfg := config.Load()
	config.ConfigureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg)
	stop()
	if err != nil {
		logrus.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	logrus.Info("shutdown complete")
}

// run serves until ctx is cancelled or a component fails.  Resources are
// released before it returns.
func run(ctx context.Context, cfg config.Config) error {
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if cfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	users := repository.NewUserRepo(db)
	if err := ensureAdmin(ctx, users, cfg); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
	}

	qcfg := config.LoadQueueConfig()
	var publisher ledger.Publisher = service.LogPublisher{}
	if qcfg.Enabled {
		qp := service.NewQueuePublisher(qcfg)
		defer qp.Close()
		publisher = qp
	}

	cacheCfg := config.LoadCacheConfig()
	showtimes := repository.NewShowtimeRepo(db)
	purgeShowtimes := purger(rdb, cacheCfg, middleware.ShowtimeCachePrefix(cacheCfg.Prefix))
	seats := ledger.New(repository.NewLedgerStore(db),
		ledger.WithPublisher(publisher),
		ledger.WithSeatsChanged(func(ctx context.Context, _ uint64) { purgeShowtimes(ctx) }),
		ledger.WithLogger(logrus.WithField("component", "ledger")),
	)

	e := newServer(cfg, cacheCfg, rdb, seats, users, showtimes, repository.NewBookingRepo(db),
		repository.NewMovieRepo(db), repository.NewCategoryRepo(db), repository.NewActivityRepo(db), db)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if qcfg.Enabled {
		g.Go(func() error { return queue.NewConsumer(qcfg).Run(gctx) })
	}
	if wcfg := config.LoadWorkerConfig(); wcfg.ReconcileEnabled {
		g.Go(func() error {
			worker.NewReconcileWorker(showtimes, seats, wcfg.ReconcileInterval).Start(gctx)
			return nil
		})
	}

	return g.Wait()
}

func newServer(cfg config.Config, cacheCfg config.CacheConfig, rdb *redis.Client, seats *ledger.Ledger, users *repository.UserRepo,
	showtimes *repository.ShowtimeRepo, bookings *repository.BookingRepo, movies *repository.MovieRepo,
	categories *repository.CategoryRepo, activities *repository.ActivityRepo, db handler.Pinger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())

	cache := middleware.NewRedisCache(cacheCfg, rdb)
	showtimeCfg := cacheCfg
	showtimeCfg.Prefix = middleware.ShowtimeCachePrefix(cacheCfg.Prefix)
	showtimeCache := middleware.NewRedisCache(showtimeCfg, rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	bookingHandler := handler.NewBookingHandler(seats, bookings)
	admin := &handler.AdminHandler{
		Movies:     movies,
		Categories: categories,
		Users:      users,
		Showtimes:  showtimes,
		Activities: activities,
		Ledger:     seats,
		BcryptCost: cfg.BcryptCost,
		Purge:      purger(rdb, cacheCfg, cacheCfg.Prefix),
	}

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb})
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret, limiter)
	router.RegisterPublic(e, handler.NewCatalogHandler(movies, categories, showtimes), bookingHandler, cache, showtimeCache)
	router.RegisterCustomer(e, bookingHandler, cfg.JWTSecret, limiter)
	router.RegisterAdmin(e, admin, bookingHandler, cfg.JWTSecret)
	return e
}

// purger returns a func dropping cached responses under prefix.
func purger(rdb *redis.Client, cacheCfg config.CacheConfig, prefix string) func(context.Context) {
	return func(ctx context.Context) {
		if rdb == nil || !cacheCfg.Enabled {
			return
		}
		if err := middleware.PurgeCache(ctx, rdb, prefix); err != nil {
			logrus.WithError(err).WithField("prefix", prefix).Warn("purge response cache failed")
		}
	}
}

// ensureAdmin creates the configured admin account on first start.
func ensureAdmin(ctx context.Context, users *repository.UserRepo, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPass == "" {
		return nil
	}
	_, err := users.GetByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := utils.HashPassword(cfg.AdminPass, cfg.BcryptCost)
	if err != nil {
		return err
	}
	admin := model.User{Name: "Administrator", Email: cfg.AdminEmail, PasswordHash: hash, Role: model.RoleAdmin}
	if err := users.Create(ctx, &admin); err != nil {
		return err
	}
	logrus.WithField("email", admin.Email).Info("admin account created")
	return nil
}
