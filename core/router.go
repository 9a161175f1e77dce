package core

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// NewRouter constructs the Gin engine with routes wired. The redis client is
// only used for health reporting and may be nil in tests.
func NewRouter(
	cfg Config,
	users UserRepository,
	galleries GalleryRepository,
	photos PhotoRepository,
	blobs ObjectStore,
	queue DeleteQueue,
	limiter *LoginLimiter,
	redisClient *redis.Client,
) *gin.Engine {
	r := gin.Default()

	tokens := NewTokenService(users, []byte(cfg.AppSecret))
	auth := NewAuthService(users, tokens)

	r.GET("/healthz", func(c *gin.Context) {
		payload := gin.H{"status": "ok"}
		if redisClient != nil {
			if workers, err := ListHeartbeats(c.Request.Context(), redisClient); err == nil {
				payload["workers"] = workers
			}
		}
		c.JSON(http.StatusOK, payload)
	})

	api := r.Group("/api")

	api.POST("/register", func(c *gin.Context) {
		var req struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if req.Password == "" || req.Email == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "email and password are required")
			return
		}

		token, err := auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			respondWithError(c, err)
			return
		}
		// The response body is the raw token, not JSON; clients depend on it.
		c.String(http.StatusOK, token)
	})

	api.GET("/login", BasicAuth(), func(c *gin.Context) {
		creds, ok := CredentialsFrom(c)
		if !ok {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "missing credentials in context")
			return
		}

		if limiter != nil {
			if err := limiter.Allow(c.Request.Context(), creds.Username); err != nil {
				respondWithError(c, err)
				return
			}
		}

		token, err := auth.Login(c.Request.Context(), creds)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.String(http.StatusOK, token)
	})

	protected := api.Group("", BearerAuth(tokens))

	protected.POST("/gallery", func(c *gin.Context) {
		user, _ := UserFrom(c)

		var req struct {
			Name        string `json:"galleryName"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Description) == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "galleryName and description are required")
			return
		}

		g, err := galleries.Create(c.Request.Context(), &GalleryRecord{
			UserID:      user.UserID,
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, g)
	})

	protected.GET("/galleries", func(c *gin.Context) {
		user, _ := UserFrom(c)
		items, err := galleries.ListByUser(c.Request.Context(), user.UserID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})

	protected.GET("/gallery/:id", func(c *gin.Context) {
		user, _ := UserFrom(c)
		g, err := galleries.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		if err := Authorize(user.UserID, g.UserID); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	})

	protected.PUT("/gallery/:id", func(c *gin.Context) {
		user, _ := UserFrom(c)
		g, err := galleries.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		if err := Authorize(user.UserID, g.UserID); err != nil {
			respondWithError(c, err)
			return
		}

		var req struct {
			Name        string `json:"galleryName"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid json")
			return
		}
		if strings.TrimSpace(req.Name) != "" {
			g.Name = req.Name
		}
		if strings.TrimSpace(req.Description) != "" {
			g.Description = req.Description
		}
		if err := galleries.Update(c.Request.Context(), g); err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, g)
	})

	protected.DELETE("/gallery/:id", func(c *gin.Context) {
		user, _ := UserFrom(c)
		ctx := c.Request.Context()

		g, err := galleries.FindByID(ctx, c.Param("id"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		if err := Authorize(user.UserID, g.UserID); err != nil {
			respondWithError(c, err)
			return
		}

		// Hand the blobs to the worker before the rows go; the queue retries
		// where an inline S3 call would just fail the request.
		if queue != nil {
			items, err := photos.ListByGallery(ctx, g.ID)
			if err != nil {
				respondWithError(c, err)
				return
			}
			for _, p := range items {
				if err := queue.Enqueue(ctx, PendingDeletesKey, p.ObjectKey); err != nil {
					log.Printf("enqueue blob delete %s: %v", p.ObjectKey, err)
				}
			}
		}

		if err := galleries.Delete(ctx, g.ID); err != nil {
			respondWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	protected.POST("/gallery/:id/photo", func(c *gin.Context) {
		user, _ := UserFrom(c)
		ctx := c.Request.Context()

		g, err := galleries.FindByID(ctx, c.Param("id"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		if err := Authorize(user.UserID, g.UserID); err != nil {
			respondWithError(c, err)
			return
		}

		file, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file not found")
			return
		}

		src, err := file.Open()
		if err != nil {
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to read upload")
			return
		}
		defer src.Close()

		key := NewObjectKey(file.Filename)
		location, err := blobs.Put(ctx, key, file.Header.Get("Content-Type"), src)
		if err != nil {
			log.Printf("blob upload failed: %v", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "failed to store photo")
			return
		}

		p, err := photos.Create(ctx, &PhotoRecord{
			UserID:      user.UserID,
			GalleryID:   g.ID,
			Name:        c.PostForm("photoName"),
			Description: c.PostForm("description"),
			ObjectKey:   key,
			ImageURI:    location,
		})
		if err != nil {
			// The row failed after the blob landed; let the worker clean up.
			if queue != nil {
				_ = queue.Enqueue(ctx, PendingDeletesKey, key)
			}
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	})

	protected.GET("/photos", func(c *gin.Context) {
		user, _ := UserFrom(c)
		items, err := photos.ListByUser(c.Request.Context(), user.UserID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, items)
	})

	protected.DELETE("/gallery/:id/photo/:photoID", func(c *gin.Context) {
		user, _ := UserFrom(c)
		ctx := c.Request.Context()

		p, err := photos.FindByID(ctx, c.Param("photoID"))
		if err != nil {
			respondWithError(c, err)
			return
		}
		if err := Authorize(user.UserID, p.UserID); err != nil {
			respondWithError(c, err)
			return
		}
		if _, err := galleries.FindByID(ctx, c.Param("id")); err != nil {
			respondWithError(c, err)
			return
		}

		if err := photos.Delete(ctx, p.ID); err != nil {
			respondWithError(c, err)
			return
		}
		if queue != nil {
			if err := queue.Enqueue(ctx, PendingDeletesKey, p.ObjectKey); err != nil {
				log.Printf("enqueue blob delete %s: %v", p.ObjectKey, err)
			}
		}
		c.Status(http.StatusNoContent)
	})

	return r
}
