package websocket

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const (
	EventAttemptStarted   = "attempt_started"
	EventAttemptCompleted = "attempt_completed"
)

// AttemptEvent is broadcast to monitor clients subscribed to an exam.
type AttemptEvent struct {
	Type       string    `json:"type"`
	AttemptID  uuid.UUID `json:"attempt_id"`
	ExamID     uuid.UUID `json:"exam_id"`
	UserID     uuid.UUID `json:"user_id"`
	TotalScore float64   `json:"total_score,omitempty"`
	MaxScore   float64   `json:"max_score,omitempty"`
	Accuracy   float64   `json:"accuracy,omitempty"`
	At         time.Time `json:"at"`
}

// Client is an admin monitor connection watching one exam.
type Client struct {
	ExamID uuid.UUID
	Conn   *websocket.Conn
}

var clients = make(map[*websocket.Conn]uuid.UUID)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Broadcast = make(chan AttemptEvent, 16)

// PublishAttemptEvent hands an event to the hub without blocking the caller;
// monitoring is best-effort and events may be dropped under pressure.
func PublishAttemptEvent(event AttemptEvent) {
	select {
	case Broadcast <- event:
	default:
		log.Printf("Monitor hub busy, dropping %s event for exam %s", event.Type, event.ExamID)
	}
}

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Monitor client registered for exam %s", client.ExamID)
			clientsMu.Lock()
			clients[client.Conn] = client.ExamID
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Monitor client unregistered for exam %s", client.ExamID)
			clientsMu.Lock()
			delete(clients, client.Conn)
			clientsMu.Unlock()
		case event := <-Broadcast:
			clientsMu.RLock()
			var stale []*websocket.Conn
			for conn, examID := range clients {
				if examID != event.ExamID {
					continue
				}
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending %s event for exam %s: %v", event.Type, event.ExamID, err)
					conn.Close()
					stale = append(stale, conn)
				}
			}
			clientsMu.RUnlock()
			if len(stale) > 0 {
				clientsMu.Lock()
				for _, conn := range stale {
					delete(clients, conn)
				}
				clientsMu.Unlock()
			}
		}
	}
}
