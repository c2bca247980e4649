package router

import (
	"context"
	"errors"
	"net/http"
	"time"

	escrowsvc "estate-backend/internal/application/escrow"
	"estate-backend/internal/application/funds"
	healthsvc "estate-backend/internal/application/health"
	eventsvc "estate-backend/internal/application/ledgerevents"
	mktsvc "estate-backend/internal/application/marketplace"
	paysvc "estate-backend/internal/application/payments"
	propsvc "estate-backend/internal/application/property"
	sharesvc "estate-backend/internal/application/shares"
	"estate-backend/internal/application/txn"
	uploadsvc "estate-backend/internal/application/uploads"
	"estate-backend/internal/auth"
	"estate-backend/internal/config"
	"estate-backend/internal/infrastructure/database"
	"estate-backend/internal/infrastructure/events"
	"estate-backend/internal/infrastructure/lock"
	escrowhandler "estate-backend/internal/interfaces/handlers/escrow"
	healthhandler "estate-backend/internal/interfaces/handlers/health"
	eventhandler "estate-backend/internal/interfaces/handlers/ledgerevents"
	mkthandler "estate-backend/internal/interfaces/handlers/marketplace"
	payhandler "estate-backend/internal/interfaces/handlers/payments"
	prophandler "estate-backend/internal/interfaces/handlers/property"
	sharehandler "estate-backend/internal/interfaces/handlers/shares"
	uploadhandler "estate-backend/internal/interfaces/handlers/uploads"
	wallethandler "estate-backend/internal/interfaces/handlers/wallets"
	"estate-backend/internal/middleware"
	"estate-backend/internal/pkg/breaker"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var errNoDatabase = errors.New("router: no database configured (set DATABASE_URL_DEV, DATABASE_URL_PROD or DATABASE_URL_TEST)")

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// openRedis returns nil when no REDIS_URL is configured.
func openRedis(url string) (redis.UniversalClient, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// newExecutor picks the distributed lock when Redis is available and fans
// committed events out to every configured sink.
func newExecutor(cfg *config.Config, db *gorm.DB, rdb redis.UniversalClient) (*txn.Executor, error) {
	exec := txn.New(db)
	if rdb != nil {
		opts := lock.DefaultOptions()
		opts.Expiry = cfg.LockTTL
		exec.Locker = lock.NewRedisLocker(rdb, opts)
	} else if !database.IsSQLite(cfg.DatabaseURL) {
		log.Warn().Msg("REDIS_URL not set: ledger lock is per process, replicas rely on row locks only")
	}
	sinks, err := events.Sinks(rdb, cfg.AMQPURL, cfg.AMQPExchange)
	if err != nil {
		return nil, err
	}
	if len(sinks) > 0 {
		exec.Publisher = sinks
	}
	return exec, nil
}

// CreateApp wires the ledgers, middleware and routes. The database is required;
// Redis, RabbitMQ, Stripe and Supabase are optional.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, redis.UniversalClient, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errNoDatabase
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if database.IsSQLite(cfg.DatabaseURL) {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}
	rdb, err := openRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	exec, err := newExecutor(cfg, db, rdb)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.MarketplaceAdmin.IsZero() {
		log.Warn().Msg("MARKETPLACE_ADMIN not set: marketplace and share ledger owner operations will be rejected")
	}
	if cfg.StripeWebhookSecret == "" {
		log.Warn().Msg("STRIPE_WEBHOOK_SECRET not set: /api/v1/stripe/webhook will answer 503")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer)
	requireCaller := middleware.RequireCaller(tokens)

	propertyService := propsvc.NewService(db, exec, cfg.CacheTTL)
	marketService := &mktsvc.Service{DB: db, Exec: exec, Admin: cfg.MarketplaceAdmin}
	escrowService := &escrowsvc.Service{DB: db, Exec: exec}
	shareService := &sharesvc.Service{DB: db, Exec: exec, Admin: cfg.SharesOwner}
	fundsService := &funds.Service{DB: db, Exec: exec}
	paymentService := &paysvc.Service{
		DB:       db,
		Exec:     exec,
		Currency: cfg.TopUpCurrency,
		Creator: &paysvc.StripeCreator{
			SecretKey: cfg.StripeSecretKey,
			Breaker:   breaker.New("stripe", breaker.DefaultConfig()),
		},
	}

	// Stripe webhook: raw body + stripe-signature header, no caller.
	payHandlers := &payhandler.Handlers{Service: paymentService, WebhookSecret: cfg.StripeWebhookSecret}
	app.Post("/api/v1/stripe/webhook", payHandlers.HandleWebhook)

	collector := &healthsvc.Collector{Rdb: rdb, DB: db, Pinger: &gormDBPinger{db: db}}
	if cfg.SupabaseURL != "" {
		collector.Probes = append(collector.Probes, healthsvc.HTTPProbe("supabase", cfg.SupabaseURL, 3*time.Second))
	}
	hh := &healthhandler.Handlers{Rdb: rdb, Collector: collector, HealthAdminKey: cfg.HealthAdminKey}
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	api := app.Group("/api/v1")

	ph := &prophandler.Handlers{Service: propertyService}
	uh := &uploadhandler.Handlers{Service: &uploadsvc.Service{
		Client:      &uploadsvc.HTTPClient{BaseURL: cfg.SupabaseURL, SecretKey: cfg.SupabaseSecretKey},
		SupabaseURL: cfg.SupabaseURL,
		Properties:  propertyService,
		Breaker:     breaker.New("supabase", breaker.DefaultConfig()),
	}}
	props := api.Group("/properties")
	props.Get("/get-property/:id", ph.GetProperty)
	props.Post("/add-property", requireCaller, ph.AddProperty)
	props.Put("/update-property", requireCaller, ph.UpdateProperty)
	props.Post("/upload-document", requireCaller, uh.UploadPropertyDocument)

	mh := &mkthandler.Handlers{Service: marketService}
	market := api.Group("/marketplace")
	market.Get("/owner", mh.Owner)
	market.Get("/properties/:id", mh.GetListing)
	market.Get("/listed", mh.ListedProperties)
	market.Post("/add-property", requireCaller, mh.AddProperty)
	market.Post("/list-property", requireCaller, mh.ListProperty)
	market.Post("/unlist-property", requireCaller, mh.UnlistProperty)
	market.Post("/purchase-property", requireCaller, mh.PurchaseProperty)

	eh := &escrowhandler.Handlers{Service: escrowService}
	escrow := api.Group("/escrow")
	escrow.Get("/vaults/:vault_id", eh.GetVault)
	escrow.Post("/create-vault", requireCaller, eh.CreateVault)
	escrow.Post("/vaults/:vault_id/set-buyer", requireCaller, eh.SetBuyer)
	escrow.Post("/vaults/:vault_id/set-seller", requireCaller, eh.SetSeller)
	escrow.Post("/vaults/:vault_id/deposit", requireCaller, eh.Deposit)
	escrow.Post("/vaults/:vault_id/withdraw", requireCaller, eh.Withdraw)

	sh := &sharehandler.Handlers{Service: shareService}
	shares := api.Group("/shares")
	shares.Get("/owner", sh.Owner)
	shares.Get("/baskets/:basket_id", sh.GetBasket)
	shares.Get("/balance/:account", sh.Balance)
	shares.Post("/create-basket", requireCaller, sh.CreateBasket)
	shares.Post("/issue-shares", requireCaller, sh.IssueShares)
	shares.Post("/transfer-shares", requireCaller, sh.TransferShares)

	wh := &wallethandler.Handlers{Service: fundsService}
	wallets := api.Group("/wallets")
	wallets.Get("/balance/:account", wh.Balance)
	wallets.Post("/top-up", requireCaller, payHandlers.TopUp)
	if cfg.FaucetEnabled {
		wallets.Post("/faucet", requireCaller, wh.Faucet)
	}

	evh := &eventhandler.Handlers{Service: &eventsvc.Service{DB: db}}
	api.Get("/events/get-events", evh.GetEvents)

	return app, db, rdb, nil
}

// Ping verifies the database and, when configured, Redis.
func Ping(ctx context.Context, db *gorm.DB, rdb redis.UniversalClient) error {
	if err := (&gormDBPinger{db: db}).Ping(); err != nil {
		return err
	}
	if rdb != nil {
		return rdb.Ping(ctx).Err()
	}
	return nil
}

// Handler returns an http.Handler for serverless deployments.
func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
