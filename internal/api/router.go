package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"shortlink/internal/auth"
)

// Dependencies are the services the HTTP layer dispatches to.
type Dependencies struct {
	Shortener Shortener
	Resolver  Resolver
	Links     LinkOwner
	Accounts  AccountDirectory
	Tokens    *auth.Issuer
	Status    StatusReporter

	// AllowedOrigins restricts CORS; empty allows every origin.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// SetupRouter initializes and configures the Gin router.
func SetupRouter(deps Dependencies) *gin.Engine {
	h := NewHandler(deps)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger))

	config := cors.DefaultConfig()
	if len(deps.AllowedOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = deps.AllowedOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.MaxAge = 12 * time.Hour
	r.Use(cors.New(config))

	r.GET("/health", HealthCheckHandler)
	r.GET("/status", h.StatusHandler)

	requireIdentity := deps.Tokens.RequireIdentity(writeError)

	r.POST("/", deps.Tokens.OptionalIdentity(), h.ShortenHandler)
	r.GET("/:short_code", h.RedirectHandler)

	myLinks := r.Group("/my-links", requireIdentity)
	{
		myLinks.GET("/links", h.ListLinksHandler)
		myLinks.PUT("/:id", h.UpdateLinkHandler)
		myLinks.DELETE("/:id", h.DeleteLinkHandler)
	}

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.RegisterHandler)
		authGroup.POST("/login", h.LoginHandler)
	}

	users := r.Group("/users", requireIdentity)
	{
		users.PATCH("", h.UpdateAccountHandler)
		users.DELETE("", h.DeleteAccountHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})

	return r
}
