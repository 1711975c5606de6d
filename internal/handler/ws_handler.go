package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yourusername/quizdash-api/internal/service/quizrun"
	"github.com/yourusername/quizdash-api/pkg/auth"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// WSHandler транслирует события квиз-сессии по WebSocket:
// тики таймера, раскрытие ответа, переход к следующему вопросу, завершение.
// Канал только исходящий; ответы клиент отправляет по REST.
type WSHandler struct {
	jwtService *auth.JWTService
	runner     *quizrun.Runner
	upgrader   websocket.Upgrader
}

// NewWSHandler создает новый WebSocket-обработчик
func NewWSHandler(jwtService *auth.JWTService, runner *quizrun.Runner, allowedOrigins []string) *WSHandler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = struct{}{}
	}

	return &WSHandler{
		jwtService: jwtService,
		runner:     runner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(originSet) == 0 {
					return true
				}
				_, ok := originSet[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Stream открывает поток событий сессии.
// GET /ws?token={access_token}&session_id={id}
// Токен передается в query, потому что браузерный WebSocket API
// не позволяет выставить заголовок Authorization.
func (h *WSHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token query parameter is required", "error_type": "token_missing"})
		return
	}

	claims, err := h.jwtService.ParseToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
		return
	}

	sessionID := c.Query("session_id")
	session, err := h.runner.GetSession(sessionID, claims.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения user_id=%d: %v", claims.UserID, err)
		return
	}

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	// Первым кадром отдаем текущий снимок, чтобы клиент после
	// переподключения сразу восстановил состояние
	if err := h.writeJSON(conn, quizrun.Event{
		Type: "session:snapshot",
		Data: map[string]interface{}{"snapshot": session.Snapshot()},
	}); err != nil {
		conn.Close()
		return
	}

	h.writePump(conn, session, events, claims.UserID)
}

// writePump пишет события в соединение до завершения сессии или обрыва
func (h *WSHandler) writePump(conn *websocket.Conn, session *quizrun.Session, events <-chan quizrun.Event, userID uint) {
	defer conn.Close()

	// Читатель нужен только для обработки close-кадров и pong
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.writeJSON(conn, ev); err != nil {
				log.Printf("[WSHandler] Ошибка записи события user_id=%d: %v", userID, err)
				return
			}
			if ev.Type == quizrun.EventComplete {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session complete"))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-session.Done():
			return
		}
	}
}

func (h *WSHandler) writeJSON(conn *websocket.Conn, ev quizrun.Event) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}
