package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CredentialsRequest is the body of /auth/register and /auth/login.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AccountUpdateRequest is the body of PATCH /users. Absent fields are kept.
type AccountUpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// LoginResponse carries the bearer token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// RegisterHandler creates an account.
func (h *Handler) RegisterHandler(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// LoginHandler exchanges credentials for a token.
func (h *Handler) LoginHandler(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Issue(view.ID, view.Email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{AccessToken: token})
}

// UpdateAccountHandler changes the caller's email and/or password.
func (h *Handler) UpdateAccountHandler(c *gin.Context) {
	identity := mustIdentity(c)

	var req AccountUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	view, err := h.accounts.Update(c.Request.Context(), identity.ID, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteAccountHandler soft-deletes the caller's account.
func (h *Handler) DeleteAccountHandler(c *gin.Context) {
	identity := mustIdentity(c)

	if err := h.accounts.Delete(c.Request.Context(), identity.ID); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
