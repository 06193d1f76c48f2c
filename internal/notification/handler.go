package notification

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"studiomarket/internal/pkg/jwt"
	"studiomarket/internal/pkg/logger"
	"studiomarket/internal/pkg/response"
)

type Handler struct {
	store    *Store
	hub      *Hub
	jwt      *jwt.Verifier
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

// NewHandler serves the inbox and the live websocket feed. allowedOrigins
// empty means any origin may open the socket.
func NewHandler(store *Store, hub *Hub, jwtService *jwt.Verifier, log *logrus.Logger, allowedOrigins []string) *Handler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimSpace(o)] = true
	}
	return &Handler{
		store: store,
		hub:   hub,
		jwt:   jwtService,
		log:   logger.OrDiscard(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin]
			},
		},
	}
}

// RegisterRoutes mounts the inbox on the authenticated group.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/notifications", h.List)
	protected.POST("/notifications/:id/read", h.MarkRead)
}

// RegisterSocket mounts the websocket endpoint; it authenticates by ?token=.
func (h *Handler) RegisterSocket(rg *gin.RouterGroup) {
	rg.GET("/ws/notifications", h.Socket)
}

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	unread := c.Query("unread") == "true"

	items, err := h.store.List(c.Request.Context(), c.GetInt64("user_id"), unread, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load notifications")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"notifications": items})
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid notification ID")
		return
	}
	if err := h.store.MarkRead(c.Request.Context(), c.GetInt64("user_id"), id); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update notification")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id})
}

func (h *Handler) Socket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.jwt.Verify(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	userID := claims.UserID

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := h.hub.Register(userID, conn)
	h.log.WithField("user_id", userID).Debug("notification socket connected")
	defer func() {
		h.hub.Unregister(userID, client)
		h.log.WithField("user_id", userID).Debug("notification socket closed")
	}()

	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	done := make(chan struct{})
	defer close(done)
	go pingLoop(client, done)

	// The feed is server-push only; reads just drive pong handling and detect close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.WithField("user_id", userID).WithError(err).Debug("notification socket read error")
			}
			return
		}
	}
}

func pingLoop(c *Client, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
