package websocket

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
)

type WebSocketHandler struct {
	db  *gorm.DB
	hub *Hub
}

func NewWebSocketHandler(db *gorm.DB) *WebSocketHandler {
	hub := NewHub()
	go hub.Run()

	return &WebSocketHandler{
		db:  db,
		hub: hub,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	var staffID uint
	var isAdmin bool

	tokenString := c.Query("token")
	if tokenString != "" {
		jwtSecret := os.Getenv("JWT_SECRET")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}

			return []byte(jwtSecret), nil
		})

		if err == nil && token.Valid {
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if id, ok := claims["id"].(float64); ok {
					staffID = uint(id)
				}
				if admin, ok := claims["isAdmin"].(bool); ok {
					isAdmin = admin
				}
			}
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket connection: %v", err)
		return
	}

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		staffID: staffID,
		isAdmin: isAdmin,
	}

	go client.HandleClientConnection()
}

func (h *WebSocketHandler) NotifySecurityAlert(subjectRef, policyName string, result models.EvalResult, resource string) {
	h.hub.BroadcastSecurityAlert(SecurityAlertEvent{
		SubjectRef: subjectRef,
		PolicyName: policyName,
		Resource:   resource,
		Decision:   decisionString(result.Allowed),
		Reason:     result.Reason,
		Actions:    result.Actions,
		Timestamp:  time.Now().Format(time.RFC3339),
	})
}

func (h *WebSocketHandler) NotifyLockout(subject models.AccessControlUser) {
	lockedUntil := ""
	if subject.AccountLockedUntil != nil {
		lockedUntil = subject.AccountLockedUntil.Format(time.RFC3339)
	}

	h.hub.BroadcastLockout(LockoutEvent{
		SubjectRef:  subject.SubjectRef,
		DisplayName: subject.DisplayName,
		LockedUntil: lockedUntil,
		ThreatLevel: string(subject.ThreatIntelligence.ThreatLevel),
	})
}

func (h *WebSocketHandler) NotifyDeviceEvent(device models.Device) {
	h.hub.BroadcastDeviceEvent(DeviceEvent{
		DeviceUID: device.DeviceUID,
		Name:      device.Name,
		Status:    string(device.Status),
		Battery:   device.BatteryPercent,
		Location:  device.Location,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (h *WebSocketHandler) GetHub() *Hub {
	return h.hub
}

func decisionString(allowed bool) string {
	if allowed {
		return string(models.AccessDecisionGranted)
	}
	return string(models.AccessDecisionDenied)
}
