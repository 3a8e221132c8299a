package handler

import (
	"net/http"

	"blog-api/internal/service"
	"blog-api/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) Index(c *gin.Context) {
	data, err := h.users.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Users retrieved successfully", data)
}

func (h *UserHandler) Store(c *gin.Context) {
	var input service.CreateUserInput
	if !bindJSON(c, &input) {
		return
	}

	data, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "User created successfully", data)
}

func (h *UserHandler) Show(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	data, err := h.users.Get(c.Request.Context(), id, c.Request.URL.Query())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User retrieved successfully", data)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input service.UpdateUserInput
	if !bindJSON(c, &input) {
		return
	}

	data, err := h.users.Update(c.Request.Context(), id, input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User updated successfully", data)
}

func (h *UserHandler) Destroy(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User deleted successfully", nil)
}

func (h *UserHandler) AssignRoles(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input service.AssignRolesInput
	if !bindJSON(c, &input) {
		return
	}

	data, err := h.users.AssignRoles(c.Request.Context(), id, input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Roles assigned successfully", data)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	data, err := h.users.RemoveRole(c.Request.Context(), id, c.Param("role"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Role removed successfully", data)
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "User not found.", nil)
		return uuid.Nil, false
	}
	return id, true
}
