package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stake-harbor/stake_harbor/internal/admin"
	"github.com/stake-harbor/stake_harbor/internal/audit"
	"github.com/stake-harbor/stake_harbor/internal/config"
	"github.com/stake-harbor/stake_harbor/internal/middleware"
	"github.com/stake-harbor/stake_harbor/internal/notification"
	"github.com/stake-harbor/stake_harbor/internal/pending"
	"github.com/stake-harbor/stake_harbor/internal/rate"
	"github.com/stake-harbor/stake_harbor/internal/reward"
	"github.com/stake-harbor/stake_harbor/internal/stake"
	"github.com/stake-harbor/stake_harbor/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.Simulated() {
		if d.DB == nil {
			return fmt.Errorf("database is required when PERSISTENCE_MODE=%s", d.Cfg.PersistenceMode)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when PERSISTENCE_MODE=%s", d.Cfg.PersistenceMode)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.RequestLog(d.Logger))

	RegisterHealthRoutes(app, d)

	// Backing stores follow the persistence mode: real mode keeps everything
	// in PostgreSQL, simulated mode runs entirely in memory with the default
	// plan set seeded.
	var (
		ledger      wallet.Ledger
		stakeRepo   stake.Repository
		planRepo    stake.PlanRepository
		requestRepo pending.Repository
		sink        audit.Sink
	)
	if d.Cfg.Simulated() {
		ledger = wallet.NewInMemory()
		stakeRepo = stake.NewMemoryRepository()
		planRepo = stake.NewMemoryPlanRepository(stake.DefaultPlans(d.Cfg.BaseCurrency)...)
		requestRepo = pending.NewMemoryRepository()
		sink = audit.NewMemorySink()
	} else {
		ledger = wallet.NewPostgresLedger(d.DB)
		stakeRepo = stake.NewPostgresRepository(d.DB)
		planRepo = stake.NewPostgresPlanRepository(d.DB)
		requestRepo = pending.NewPostgresRepository(d.DB)
		sink = audit.NewPostgresSink(d.DB)
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	calc := reward.NewCalculator(rate.NewTable(d.Cfg.LockedRates, d.Cfg.FlexibleMonthlyRate))

	walletSvc := wallet.NewService(ledger, notifier)
	stakeMgr := stake.NewManager(stakeRepo, planRepo, ledger, calc, notifier)
	requestSvc := pending.NewService(requestRepo, ledger, notifier)
	adminSvc := admin.NewService(ledger, stakeMgr, requestSvc, sink, d.Cfg.EarlyExitPenalty)

	walletHandler := wallet.NewHandler(walletSvc)
	stakeHandler := stake.NewHandler(stakeMgr)
	requestHandler := pending.NewHandler(requestSvc)
	adminHandler := admin.NewHandler(adminSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	jwtmw := middleware.JWTAuth(d.Cfg.JWTSecret)
	protected := api.Group("", jwtmw)
	if d.Cache != nil {
		// Idempotency runs after auth so keys are scoped per caller.
		protected.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(protected, walletHandler)
	RegisterStakeRoutes(protected, stakeHandler)
	RegisterRequestRoutes(protected, requestHandler)

	adminGroup := app.Group("/admin/v1", middleware.AdminAuth(d.Cfg.JWTSecret, d.Cfg.AdminKeyHash))
	RegisterAdminRoutes(adminGroup, adminHandler)

	return nil
}
