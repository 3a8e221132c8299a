package handler

import (
	"net/http"
	"path/filepath"
	"strings"

	"blog-api/pkg/response"
	"blog-api/pkg/storage"
	"github.com/gin-gonic/gin"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {},
}

type FileHandler struct {
	files  storage.FileStorage
	folder string
}

func NewFileHandler(files storage.FileStorage, folder string) *FileHandler {
	return &FileHandler{files: files, folder: folder}
}

func (h *FileHandler) UploadFile(c *gin.Context) {
	h.upload(c, false)
}

func (h *FileHandler) UploadImage(c *gin.Context) {
	h.upload(c, true)
}

func (h *FileHandler) upload(c *gin.Context, imageOnly bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusUnprocessableEntity, "Validation failed.", gin.H{
			"file": []string{"The file field is required."},
		})
		return
	}

	if imageOnly {
		ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
		if _, ok := imageExtensions[ext]; !ok {
			response.Error(c, http.StatusUnprocessableEntity, "Validation failed.", gin.H{
				"file": []string{"The file must be an image."},
			})
			return
		}
	}

	f, err := fileHeader.Open()
	if err != nil {
		response.FromError(c, err)
		return
	}
	defer f.Close()

	url, err := h.files.Upload(c.Request.Context(), f, h.folder, fileHeader.Filename)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, "File uploaded successfully", gin.H{
		"url":      url,
		"filename": fileHeader.Filename,
	})
}

func (h *FileHandler) DeleteFile(c *gin.Context) {
	fileURL := c.Query("url")
	if fileURL == "" {
		response.Error(c, http.StatusBadRequest, "The url query parameter is required.", nil)
		return
	}

	if err := h.files.Delete(c.Request.Context(), fileURL); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "File deleted successfully", nil)
}
