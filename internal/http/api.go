package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-api/internal/domain"
	"user-api/internal/service"
	"user-api/internal/storage"
)

// Response messages shared with API clients.
const (
	MsgUserCreated = "User created successfully"
	MsgUserUpdated = "User updated successfully"
	MsgUserDeleted = "User deleted successfully"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users     service.UserService
	snapshots service.SnapshotService
	logger    *logrus.Logger
}

func NewHandler(users service.UserService, snapshots service.SnapshotService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:     users,
		snapshots: snapshots,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware(), accessLogMiddleware(h.logger), corsMiddleware())

	users := router.Group("/users")
	{
		users.POST("", h.createUser)
		users.GET("", h.listUsers)
		users.GET("/:id", h.getUser)
		users.PUT("/:id", h.updateUser)
		users.DELETE("/:id", h.deleteUser)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/snapshots", h.createSnapshot)
		admin.GET("/snapshots", h.listSnapshots)
	}

	router.GET("/health", h.health)
}

// NewRouter builds a gin engine with recovery and all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	h.RegisterRoutes(router)
	return router
}

type userRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (r userRequest) input() service.UserInput {
	return service.UserInput{
		Name:     r.Name,
		Email:    r.Email,
		Username: r.Username,
	}
}

// UserResponse is the JSON representation of a user.
type UserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type userEnvelope struct {
	Message string       `json:"message"`
	User    UserResponse `json:"user"`
}

func userToResponse(user domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: domain.FormatTimestamp(user.CreatedAt),
		UpdatedAt: domain.FormatTimestamp(user.UpdatedAt),
	}
}

func (h *Handler) createUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": user.ID, "request_id": requestID(c)}).Info("user created")
	c.JSON(http.StatusCreated, userEnvelope{Message: MsgUserCreated, User: userToResponse(*user)})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	// an unknown id is a 404 whatever the body holds
	if _, err := h.users.Get(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userEnvelope{Message: MsgUserUpdated, User: userToResponse(*user)})
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"user_id": id, "request_id": requestID(c)}).Info("user deleted")
	c.JSON(http.StatusOK, gin.H{"message": MsgUserDeleted})
}

// SnapshotObjectResponse describes one stored snapshot object.
type SnapshotObjectResponse struct {
	Key          string  `json:"key"`
	Size         int64   `json:"size"`
	LastModified *string `json:"last_modified,omitempty"`
}

func objectToResponse(obj storage.ObjectInfo) SnapshotObjectResponse {
	resp := SnapshotObjectResponse{
		Key:  obj.Key,
		Size: obj.Size,
	}
	if obj.LastModified != nil && !obj.LastModified.IsZero() {
		v := obj.LastModified.UTC().Format(time.RFC3339)
		resp.LastModified = &v
	}
	return resp
}

func (h *Handler) createSnapshot(c *gin.Context) {
	snap, err := h.snapshots.Export(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{"location": snap.Location, "users": snap.Users}).Info("snapshot exported")
	c.JSON(http.StatusCreated, gin.H{"location": snap.Location, "users": snap.Users})
}

func (h *Handler) listSnapshots(c *gin.Context) {
	objects, err := h.snapshots.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]SnapshotObjectResponse, len(objects))
	for i := range objects {
		resp[i] = objectToResponse(objects[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) health(c *gin.Context) {
	n, err := h.users.Count(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Warn("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "users": n})
}

// parseID rejects ids that are not integers. Integers outside int64 cannot
// name a stored user and are reported as not found.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return 0, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return 0, false
	}
	return id, true
}

// writeError maps service errors onto status codes. Anything unrecognised is
// logged and reported as a generic 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "User with this email already exists"})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "User with this username already exists"})
	case errors.Is(err, service.ErrSnapshotsDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": requestID(c),
		}).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
