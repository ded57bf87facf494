package app

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/api"
	"github.com/lumen-studio/booking-engine/internal/audit"
	"github.com/lumen-studio/booking-engine/internal/auth"
	"github.com/lumen-studio/booking-engine/internal/availability"
	"github.com/lumen-studio/booking-engine/internal/booking"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/checkout"
	"github.com/lumen-studio/booking-engine/internal/config"
	"github.com/lumen-studio/booking-engine/internal/funnel"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/override"
)

// Container holds the initialized components that are needed externally.
type Container struct {
	Router *gin.Engine

	Sweeper *hold.Sweeper
	Expirer *bookingrequest.Expirer
	Auditor *audit.Auditor
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg *config.Config, pool *pgxpool.Pool, logger *zap.Logger) *Container {
	// Init Components
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// Offering Module
	offeringRepo := offering.NewPgxRepository(pool)
	offeringService := offering.NewService(offeringRepo)

	// Override Module
	overrideRepo := override.NewPgxRepository(pool)
	overrideService := override.NewService(overrideRepo)

	// Confirmed Booking Module
	bookingRepo := booking.NewPgxRepository(pool)

	// Slot Hold Module
	holdRepo := hold.NewPgxRepository(pool)
	holdService := hold.NewService(holdRepo, offeringService, overrideService, cfg.HoldTTL, logger)

	// Availability Oracle
	availService := availability.NewService(offeringService, overrideService, holdRepo, bookingRepo)

	// Booking Request Module
	requestRepo := bookingrequest.NewPgxRepository(pool)
	requestService := bookingrequest.NewService(requestRepo, holdService, cfg.OfferTTL, logger)

	// Checkout Module
	stripeClient := checkout.NewStripeClient(cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL)
	checkoutService := checkout.NewService(
		pool,
		requestService,
		requestRepo,
		holdService,
		holdRepo,
		bookingRepo,
		offeringService,
		stripeClient,
		logger,
	)

	// Funnel Orchestrator
	funnelStore := funnel.NewStore()
	funnelService := funnel.NewService(
		funnelStore,
		availService,
		requestService,
		checkoutService,
		cfg.CheckingDelay,
		cfg.ResumeTTL,
		logger,
	)

	// Router
	router := api.NewRouter(api.Config{
		IsProduction:        cfg.IsProduction,
		ProdOrigins:         cfg.ProdOrigins,
		OfferingService:     offeringService,
		AvailabilityService: availService,
		RequestService:      requestService,
		HoldService:         holdService,
		OverrideService:     overrideService,
		FunnelService:       funnelService,
		CheckoutService:     checkoutService,
		StripeWebhookSecret: cfg.StripeWebhookSecret,
		JWTManager:          jwtManager,
		Logger:              logger,
	})

	return &Container{
		Router:  router,
		Sweeper: hold.NewSweeper(holdRepo, cfg.SweepInterval, logger),
		Expirer: bookingrequest.NewExpirer(requestService, cfg.SweepInterval, logger),
		Auditor: audit.New(holdRepo, bookingRepo, offeringService, overrideService, cfg.AuditInterval, logger),
	}
}
