package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/recordbook/recordbook/internal/photo"
	"github.com/recordbook/recordbook/internal/photo/service"
)

// RegisterPhotoRoutes mounts upload and download. Uploads larger than
// maxUpload bytes are rejected; guard runs before upload only.
func RegisterPhotoRoutes(r gin.IRouter, svc *service.Service, maxUpload int64, guard ...gin.HandlerFunc) {
	g := r.Group("/photo")

	upload := func(c *gin.Context) {
		if maxUpload > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
		}
		fh, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"image\" is required"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		id, err := svc.AddPhoto(c.Request.Context(), fh.Filename, content)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "data access failure"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id})
	}
	g.POST("", append(append([]gin.HandlerFunc{}, guard...), upload)...)

	g.GET("/:id", func(c *gin.Context) {
		p, err := svc.GetPhoto(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, photo.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "data access failure"})
			return
		}
		ct := p.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": p.Title}))
		c.Data(http.StatusOK, ct, p.Image)
	})
}
