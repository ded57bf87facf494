package api

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/auth"
	"github.com/lumen-studio/booking-engine/internal/availability"
	availHttp "github.com/lumen-studio/booking-engine/internal/availability/http"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	reqHttp "github.com/lumen-studio/booking-engine/internal/bookingrequest/http"
	"github.com/lumen-studio/booking-engine/internal/checkout"
	checkoutHttp "github.com/lumen-studio/booking-engine/internal/checkout/http"
	"github.com/lumen-studio/booking-engine/internal/funnel"
	funnelHttp "github.com/lumen-studio/booking-engine/internal/funnel/http"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
	offeringHttp "github.com/lumen-studio/booking-engine/internal/offering/http"
	"github.com/lumen-studio/booking-engine/internal/override"
	overrideHttp "github.com/lumen-studio/booking-engine/internal/override/http"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction bool
	ProdOrigins  string

	OfferingService     offering.Service
	AvailabilityService availability.Service
	RequestService      bookingrequest.Service
	HoldService         hold.Service
	OverrideService     override.Service
	FunnelService       funnel.Service
	CheckoutService     checkout.Service

	StripeWebhookSecret string
	JWTManager          *auth.JWTManager
	Logger              *zap.Logger
}

// NewRouter initializes the HTTP router engine.
// It is responsible for assembling middleware (CORS, Logger, Auth) and registering routes for various modules.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global Middleware:
	// - Logger: Logs request information to the console.
	// - Recovery: Captures panics to prevent server crashes and returns a 500 error.
	r.Use(gin.Logger(), gin.Recovery())

	// Configure CORS (Cross-Origin Resource Sharing).
	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction && cfg.ProdOrigins != "" {
		corsConfig.AllowOrigins = strings.Split(cfg.ProdOrigins, ",")
	} else {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000", // storefront dev server
		}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Visitor-ID"}
	r.Use(cors.New(corsConfig))

	// actorMiddleware: resolves the caller's identity (JWT or visitor
	// header) without requiring one.
	actorMiddleware := auth.ActorResolver(cfg.JWTManager)
	// staffMiddleware: requires an authenticated user carrying the staff role.
	staffMiddleware := auth.StaffRequired()

	// Initialize HTTP Handlers for each module (injecting Service dependencies).
	offeringHandler := offeringHttp.NewHandler(cfg.OfferingService)
	availHandler := availHttp.NewHandler(cfg.AvailabilityService)
	funnelHandler := funnelHttp.NewHandler(cfg.FunnelService)
	requestHandler := reqHttp.NewHandler(cfg.RequestService, cfg.HoldService, cfg.AvailabilityService)
	overrideHandler := overrideHttp.NewHandler(cfg.OverrideService)
	checkoutHandler := checkoutHttp.NewHandler(cfg.CheckoutService, cfg.StripeWebhookSecret, cfg.Logger)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register API routes under /v1
	v1 := r.Group("/v1")
	{
		offeringHttp.RegisterRoutes(v1, offeringHandler)
		availHttp.RegisterRoutes(v1, availHandler)
		funnelHttp.RegisterRoutes(v1, funnelHandler, actorMiddleware)
		reqHttp.RegisterRoutes(v1, requestHandler, actorMiddleware, staffMiddleware)
		overrideHttp.RegisterRoutes(v1, overrideHandler, actorMiddleware, staffMiddleware)
		checkoutHttp.RegisterRoutes(v1, checkoutHandler)
	}

	return r
}
