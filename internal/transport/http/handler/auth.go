package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"datacopilot/internal/app"
	"datacopilot/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type TokenRequest struct {
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.authService.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidCredential):
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue token failed")
		}
		return
	}

	response.OK(c, gin.H{
		"token":      result.Token,
		"expires_in": result.ExpiresIn,
	})
}
