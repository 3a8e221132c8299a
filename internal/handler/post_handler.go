package handler

import (
	"net/http"

	"blog-api/internal/middleware"
	"blog-api/internal/service"
	"blog-api/pkg/response"
	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts service.PostService
}

func NewPostHandler(posts service.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

func (h *PostHandler) Index(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	data, err := h.posts.List(c.Request.Context(), identity, c.Request.URL.Query())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Posts retrieved successfully", data)
}

// MyPosts lists the caller's own posts.
func (h *PostHandler) MyPosts(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	data, err := h.posts.ListMine(c.Request.Context(), identity, c.Request.URL.Query())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Your posts retrieved successfully", data)
}

// Published lists effectively published posts. Public; identity may be nil.
func (h *PostHandler) Published(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	data, err := h.posts.ListPublished(c.Request.Context(), identity, c.Request.URL.Query())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Published posts retrieved successfully", data)
}

func (h *PostHandler) Store(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	var input service.CreatePostInput
	if !bindJSON(c, &input) {
		return
	}

	data, err := h.posts.Create(c.Request.Context(), identity, input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Created(c, "Post created successfully", data)
}

func (h *PostHandler) Show(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	data, err := h.posts.Get(c.Request.Context(), identity, c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Post retrieved successfully", data)
}

func (h *PostHandler) Update(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	var input service.UpdatePostInput
	if !bindJSON(c, &input) {
		return
	}

	data, err := h.posts.Update(c.Request.Context(), identity, c.Param("slug"), input)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Post updated successfully", data)
}

func (h *PostHandler) Destroy(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	if err := h.posts.Delete(c.Request.Context(), identity, c.Param("slug")); err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Post deleted successfully", nil)
}

func (h *PostHandler) Publish(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	data, err := h.posts.Publish(c.Request.Context(), identity, c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Post published successfully", data)
}

func (h *PostHandler) Archive(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)

	data, err := h.posts.Archive(c.Request.Context(), identity, c.Param("slug"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Post archived successfully", data)
}
