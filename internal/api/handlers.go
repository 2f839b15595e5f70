package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"shortlink/internal/accounting"
	"shortlink/internal/accounts"
	"shortlink/internal/auth"
	"shortlink/internal/shortener"
)

// Shortener creates short links.
type Shortener interface {
	Shorten(ctx context.Context, originalURL string, owner *string) (*shortener.LinkView, error)
}

// Resolver maps short codes back to destinations.
type Resolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}

// LinkOwner is owner-scoped link management.
type LinkOwner interface {
	List(ctx context.Context, owner string) ([]shortener.LinkView, error)
	Update(ctx context.Context, owner, id, originalURL string) (*shortener.LinkView, error)
	Delete(ctx context.Context, owner, id string) error
}

// AccountDirectory manages accounts.
type AccountDirectory interface {
	Register(ctx context.Context, email, password string) (*accounts.AccountView, error)
	Authenticate(ctx context.Context, email, password string) (*accounts.AccountView, error)
	Update(ctx context.Context, id string, email, password *string) (*accounts.AccountView, error)
	Delete(ctx context.Context, id string) error
}

// StatusReporter exposes background accounting counters.
type StatusReporter interface {
	Stats() accounting.Stats
}

// Handler holds the services behind the HTTP routes.
type Handler struct {
	shortener Shortener
	resolver  Resolver
	links     LinkOwner
	accounts  AccountDirectory
	tokens    *auth.Issuer
	status    StatusReporter
	logger    *slog.Logger
}

// NewHandler builds a Handler from the router dependencies.
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		shortener: deps.Shortener,
		resolver:  deps.Resolver,
		links:     deps.Links,
		accounts:  deps.Accounts,
		tokens:    deps.Tokens,
		status:    deps.Status,
		logger:    deps.Logger,
	}
}

// LinkRequest is the body of POST / and PUT /my-links/:id.
type LinkRequest struct {
	OriginalURL string `json:"original_url" binding:"required"`
}

// LinkListResponse is the body of GET /my-links/links.
type LinkListResponse struct {
	URLs []shortener.LinkView `json:"urls"`
}

// ShortenHandler creates a short link, owned by the caller when a valid
// token is supplied.
func (h *Handler) ShortenHandler(c *gin.Context) {
	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var owner *string
	if identity, ok := auth.IdentityFrom(c); ok {
		owner = &identity.ID
	}

	view, err := h.shortener.Shorten(c.Request.Context(), req.OriginalURL, owner)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// RedirectHandler sends the caller to the destination of a short code.
func (h *Handler) RedirectHandler(c *gin.Context) {
	code := c.Param("short_code")

	destination, err := h.resolver.Resolve(c.Request.Context(), code)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, destination)
}

// ListLinksHandler returns the caller's links.
func (h *Handler) ListLinksHandler(c *gin.Context) {
	identity := mustIdentity(c)

	views, err := h.links.List(c.Request.Context(), identity.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LinkListResponse{URLs: views})
}

// UpdateLinkHandler changes the destination of one of the caller's links.
func (h *Handler) UpdateLinkHandler(c *gin.Context) {
	identity := mustIdentity(c)

	var req LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.links.Update(c.Request.Context(), identity.ID, c.Param("id"), req.OriginalURL)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteLinkHandler soft-deletes one of the caller's links.
func (h *Handler) DeleteLinkHandler(c *gin.Context) {
	identity := mustIdentity(c)

	if err := h.links.Delete(c.Request.Context(), identity.ID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HealthCheckHandler provides a simple health check endpoint.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}

// StatusHandler reports liveness plus click accounting counters.
func (h *Handler) StatusHandler(c *gin.Context) {
	body := gin.H{"status": "UP"}
	if h.status != nil {
		body["click_queue"] = h.status.Stats()
	}
	c.JSON(http.StatusOK, body)
}

// mustIdentity is only called behind RequireIdentity.
func mustIdentity(c *gin.Context) *auth.Identity {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		panic("api: route registered without RequireIdentity")
	}
	return identity
}
