package http

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"social-feed/internal/auth"
	"social-feed/internal/domain"
	"social-feed/internal/realtime"
	"social-feed/internal/repository"
	"social-feed/internal/service"
	"social-feed/internal/storage"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	posts     service.PostService
	hub       *realtime.Hub
	images    storage.Service
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	posts service.PostService,
	hub *realtime.Hub,
	images storage.Service,
	jwtSecret string,
	tokenTTL time.Duration,
	logger logrus.FieldLogger,
) *Handler {
	return &Handler{
		users:     users,
		posts:     posts,
		hub:       hub,
		images:    images,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	authGroup := router.Group("/auth")
	{
		authGroup.PUT("/signup", h.signup)
		authGroup.POST("/login", h.login)
	}

	feed := router.Group("/feed")
	feed.Use(h.requireAuth())
	{
		feed.GET("/posts", h.listPosts)
		feed.POST("/post", h.createPost)
		feed.GET("/post/:id", h.getPost)
		feed.PUT("/post/:id", h.updatePost)
		feed.DELETE("/post/:id", h.deletePost)
		feed.GET("/status", h.getStatus)
		feed.PATCH("/status", h.updateStatus)
		feed.GET("/ws", h.subscribe)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type signupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "validation failed, entered data is incorrect", "data": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "validation failed, entered data is incorrect", "data": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := auth.IssueToken(user.ID, user.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User logged in successfully",
		"userId":  user.ID,
		"token":   token,
	})
}

func (h *Handler) listPosts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	posts, total, err := h.posts.List(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, err)
		return
	}

	creators := map[string]domain.Creator{}
	resp := make([]PostResponse, len(posts))
	for i := range posts {
		creator, ok := creators[posts[i].CreatorID]
		if !ok {
			creator = h.lookupCreator(c, posts[i].CreatorID)
			creators[posts[i].CreatorID] = creator
		}
		resp[i] = postToResponse(posts[i], creator)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Fetched posts successfully",
		"posts":      resp,
		"totalItems": total,
	})
}

func (h *Handler) createPost(c *gin.Context) {
	title := c.PostForm("title")
	content := c.PostForm("content")

	imageURL, err := h.saveUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	callerID := c.GetString(ctxUserID)
	post, err := h.posts.Create(c.Request.Context(), title, content, imageURL, callerID)
	if err != nil {
		h.discardImage(imageURL)
		h.respondError(c, err)
		return
	}

	creator, err := h.users.GetByID(c.Request.Context(), callerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.users.AppendPost(c.Request.Context(), callerID, post.ID); err != nil {
		h.respondError(c, err)
		return
	}

	resp := postToResponse(*post, domain.Creator{ID: creator.ID, Name: creator.Name})
	h.hub.Publish(realtime.Event{Action: realtime.ActionCreate, Post: resp})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Post created successfully",
		"post":    resp,
		"creator": domain.Creator{ID: creator.ID, Name: creator.Name},
	})
}

func (h *Handler) getPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Post fetched",
		"post":    postToResponse(*post, h.lookupCreator(c, post.CreatorID)),
	})
}

func (h *Handler) updatePost(c *gin.Context) {
	title := c.PostForm("title")
	content := c.PostForm("content")

	// a fresh upload replaces the image; otherwise the client echoes the
	// existing reference in the image field
	imageURL := c.PostForm("image")
	uploaded := false
	if _, _, err := c.Request.FormFile("image"); err == nil {
		uploaded = true
		imageURL, err = h.saveUpload(c)
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	callerID := c.GetString(ctxUserID)
	post, err := h.posts.Update(c.Request.Context(), c.Param("id"), callerID, title, content, imageURL)
	if err != nil {
		if uploaded {
			h.discardImage(imageURL)
		}
		h.respondError(c, err)
		return
	}

	resp := postToResponse(*post, h.lookupCreator(c, post.CreatorID))
	h.hub.Publish(realtime.Event{Action: realtime.ActionUpdate, Post: resp})

	c.JSON(http.StatusOK, gin.H{
		"message": "Post updated successfully",
		"post":    resp,
	})
}

func (h *Handler) deletePost(c *gin.Context) {
	callerID := c.GetString(ctxUserID)
	post, err := h.posts.Delete(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.users.RemovePost(c.Request.Context(), callerID, post.ID); err != nil {
		h.respondError(c, err)
		return
	}

	h.hub.Publish(realtime.Event{Action: realtime.ActionDelete, Post: post.ID})

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (h *Handler) getStatus(c *gin.Context) {
	status, err := h.users.GetStatus(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Status fetched",
		"status":  status,
	})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "validation failed, entered data is incorrect", "data": err.Error()})
		return
	}

	userID := c.GetString(ctxUserID)
	if err := h.users.SetStatus(c.Request.Context(), userID, req.Status); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Status updated",
		"status":  req.Status,
	})
}

// allowedImageTypes mirrors the upload filter of the original frontend
// contract: only common raster image types are accepted.
var allowedImageTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpg":  {},
	"image/jpeg": {},
}

func (h *Handler) saveUpload(c *gin.Context) (string, error) {
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		return "", service.ErrNoImage
	}
	defer file.Close()

	if _, ok := allowedImageTypes[header.Header.Get("Content-Type")]; !ok {
		return "", fmt.Errorf("%w: unsupported image type", service.ErrValidation)
	}

	return h.images.Save(c.Request.Context(), fileName(header), file)
}

func fileName(header *multipart.FileHeader) string {
	if header.Filename != "" {
		return header.Filename
	}
	return "upload"
}

// discardImage drops an upload whose post mutation failed after the file
// was already stored.
func (h *Handler) discardImage(ref string) {
	if ref == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.images.Remove(ctx, ref); err != nil {
			h.logger.Warnf("discard image %s: %v", ref, err)
		}
	}()
}

func (h *Handler) lookupCreator(c *gin.Context, userID string) domain.Creator {
	creator := domain.Creator{ID: userID}
	if user, err := h.users.GetByID(c.Request.Context(), userID); err == nil {
		creator.Name = user.Name
	}
	return creator
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrNoImage),
		errors.Is(err, repository.ErrDuplicateEmail):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"message": err.Error(), "data": nil})
}

// PostResponse is the wire shape of a post, including the denormalized
// creator summary.
type PostResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	ImageURL  string         `json:"imageUrl"`
	Creator   domain.Creator `json:"creator"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

func postToResponse(post domain.Post, creator domain.Creator) PostResponse {
	return PostResponse{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Creator:   creator,
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
}
