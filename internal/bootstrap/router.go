package bootstrap

import (
	"context"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/config"
	httpapi "github.com/verso-press/verso-backend/internal/api/http"
	"github.com/verso-press/verso-backend/internal/api/http/middleware"
	"github.com/verso-press/verso-backend/internal/auth"
	authmw "github.com/verso-press/verso-backend/internal/auth/middleware"
	"github.com/verso-press/verso-backend/internal/authz"
	communityhttp "github.com/verso-press/verso-backend/internal/community/http"
	communityrepo "github.com/verso-press/verso-backend/internal/community/repository"
	communityservice "github.com/verso-press/verso-backend/internal/community/service"
	"github.com/verso-press/verso-backend/internal/live"
	mediahttp "github.com/verso-press/verso-backend/internal/media/http"
	newsletterhttp "github.com/verso-press/verso-backend/internal/newsletters/http"
	newsletterrepo "github.com/verso-press/verso-backend/internal/newsletters/repository"
	newsletterservice "github.com/verso-press/verso-backend/internal/newsletters/service"
	"github.com/verso-press/verso-backend/internal/session"
	sessionhttp "github.com/verso-press/verso-backend/internal/session/http"
	subscriptionhttp "github.com/verso-press/verso-backend/internal/subscriptions/http"
	subscriptionrepo "github.com/verso-press/verso-backend/internal/subscriptions/repository"
	subscriptionservice "github.com/verso-press/verso-backend/internal/subscriptions/service"
	"github.com/verso-press/verso-backend/internal/users"
	usershttp "github.com/verso-press/verso-backend/internal/users/http"
	usersrepo "github.com/verso-press/verso-backend/internal/users/repository"
	usersservice "github.com/verso-press/verso-backend/internal/users/service"
)

type RouterDeps struct {
	Config   *config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Firebase *fbauth.Client
	Media    mediahttp.MediaStore
	Log      zerolog.Logger
}

// Stores holds the repositories shared between the router and the
// background jobs.
type Stores struct {
	Profiles      *usersrepo.ProfileRepository
	Newsletters   *newsletterrepo.NewsletterRepository
	Subscriptions *subscriptionrepo.SubscriptionRepository
	Posts         *communityrepo.PostRepository
}

// NewStores wires every repository onto the shared pool and change bus.
func NewStores(db *pgxpool.Pool, bus *live.Bus, log zerolog.Logger) *Stores {
	return &Stores{
		Profiles:      usersrepo.NewProfileRepository(db, bus, log),
		Newsletters:   newsletterrepo.NewNewsletterRepository(db, bus, log),
		Subscriptions: subscriptionrepo.NewSubscriptionRepository(db, bus, log),
		Posts:         communityrepo.NewPostRepository(db, bus, log),
	}
}

// BuildRouter assembles the full HTTP surface.
func BuildRouter(dep RouterDeps, bus *live.Bus, stores *Stores) (*gin.Engine, *middleware.RateLimiter) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = dep.Config.Server.CORSOrigins
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-Id")
	r.Use(cors.New(corsCfg))

	healthHandler := httpapi.NewHealthHandler("verso-backend", dep.Config.App.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	// Session machinery: one watch per signed-in principal, swapped on
	// every sign-in.
	watcher := users.NewWatcher(stores.Profiles, bus, dep.Log)
	watchOpener := session.WatcherFunc(func(ctx context.Context, uid string) (session.ProfileWatch, error) {
		return watcher.WatchProfile(ctx, uid)
	})
	minter := auth.NewFirebaseCookieMinter(dep.Firebase, dep.Config.Auth.CookieTTL)
	verifier := auth.NewFirebaseVerifier(dep.Firebase)
	resolver := session.NewResolver(watchOpener, minter, dep.Log)
	flow := session.NewSignInFlow(stores.Profiles, dep.Log)

	accessService := usersservice.NewAccessService(stores.Profiles, dep.Log)
	newsletterService := newsletterservice.NewNewsletterService(stores.Newsletters, dep.Log)
	subscriptionService := subscriptionservice.NewSubscriptionService(stores.Subscriptions, stores.Newsletters, dep.Log)
	boardService := communityservice.NewBoardService(stores.Posts, dep.Log)

	sessionHandler := sessionhttp.New(resolver, flow, verifier, sessionhttp.CookieConfig{
		Name:   dep.Config.Auth.CookieName,
		Secure: dep.Config.Auth.Secure,
	}, dep.Log)
	usersHandler := usershttp.New(accessService, bus, dep.Log)
	newsletterHandler := newsletterhttp.New(newsletterService, dep.Log)
	subscriptionHandler := subscriptionhttp.New(subscriptionService, bus, dep.Log)
	communityHandler := communityhttp.New(boardService, bus, dep.Log)

	requireAuth := authmw.FirebaseAuthMiddleware(dep.Firebase, dep.Config.Auth.CookieName)
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig(), dep.Log)

	api := r.Group("/api/v1")

	// Public surface: sign-in, published issues, the open discussion feed.
	// The snapshot read inside is still gated on a verified caller.
	sessionHandler.Register(api.Group("/auth"), requireAuth)
	newsletterHandler.RegisterPublic(api)
	communityHandler.Register(api, requireAuth, rateLimiter.Middleware())

	authed := api.Group("", requireAuth)
	subscriptionHandler.Register(authed.Group("", authz.RequireTier(authz.TierAuthenticated, stores.Profiles, dep.Log)))

	userTier := authed.Group("", authz.RequireTier(authz.TierUser, stores.Profiles, dep.Log))
	usersHandler.RegisterUser(userTier)

	adminTier := authed.Group("", authz.RequireTier(authz.TierAdmin, stores.Profiles, dep.Log))
	newsletterHandler.RegisterAdmin(adminTier)
	if dep.Media != nil {
		mediahttp.New(dep.Media, dep.Log).Register(adminTier)
	}

	superTier := authed.Group("", authz.RequireTier(authz.TierSuperAdmin, stores.Profiles, dep.Log))
	usersHandler.RegisterSuperAdmin(superTier)

	return r, rateLimiter
}
