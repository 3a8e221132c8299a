package handler

import (
	"net/http"
	"net/url"

	"blog-api/internal/middleware"
	"blog-api/internal/service"
	"blog-api/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	auth  service.AuthService
	users service.UserService
}

func NewAuthHandler(auth service.AuthService, users service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input service.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, "User registered successfully", gin.H{
		"user":  gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
		"token": token,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input service.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	user, token, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Login successful", gin.H{
		"user":  gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
		"token": token,
	})
}

// Me returns the authenticated caller's own representation.
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		response.Error(c, http.StatusUnauthorized, "Unauthenticated.", nil)
		return
	}

	data, err := h.users.Get(c.Request.Context(), identity.UserID, url.Values{"include": []string{"roles"}})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "User retrieved successfully", data)
}
