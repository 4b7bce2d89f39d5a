package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/services"
	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string  `json:"email" binding:"required"`
	Password string  `json:"password" binding:"required"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type sessionResponse struct {
	UserID string  `json:"userId"`
	Email  string  `json:"email"`
	Name   *string `json:"name,omitempty"`
	Token  string  `json:"token"`
}

func newSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{
		UserID: s.User.ID,
		Email:  s.User.Email,
		Name:   s.User.DisplayName,
		Token:  s.Token,
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.svc.Users.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			fail(c, http.StatusBadRequest, CodeEmailTaken, "email already registered")
			return
		}
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": newSessionResponse(session)})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, err := h.svc.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	respond(c, http.StatusOK, gin.H{"data": newSessionResponse(session)})
}

func (h *Handler) validate(c *gin.Context) {
	user := currentUser(c)
	respond(c, http.StatusOK, gin.H{"data": gin.H{
		"valid":  true,
		"userId": user.ID,
		"email":  user.Email,
	}})
}
