package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	broadcastBuffer = 64
	writeWait       = 10 * time.Second
	defaultPongWait = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub рассылает события об анализах всем подключенным зрителям
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *logrus.Logger

	// pongWait сколько ждать ответа на ping; ping уходит каждые 9/10 этого срока
	pongWait time.Duration
}

// NewHub создает хаб; рассылка начинается после вызова Run
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
		pongWait:   defaultPongWait,
	}
}

// Run обрабатывает подключения и рассылку до отмены контекста
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	pingTicker := time.NewTicker(h.pongWait * 9 / 10)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Infof("Зритель подключен. Всего: %d", total)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			total := len(h.clients)
			h.mutex.Unlock()
			h.logger.Infof("Зритель отключен. Всего: %d", total)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Errorf("Ошибка отправки сообщения: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-pingTicker.C:
			h.mutex.Lock()
			for client := range h.clients {
				deadline := time.Now().Add(writeWait)
				if err := client.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					h.logger.Warnf("Зритель не отвечает на ping: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish сериализует событие в JSON и ставит его в очередь рассылки.
// Если очередь заполнена, событие отбрасывается.
func (h *Hub) Publish(event any) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("Ошибка сериализации события: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Очередь рассылки переполнена, событие пропущено")
	}
}

// ClientCount количество подключенных зрителей
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// ServeWS переводит соединение в websocket и подписывает его на события
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	connection, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("Ошибка upgrade websocket: %v", err)
		return
	}

	connection.SetReadLimit(512)
	_ = connection.SetReadDeadline(time.Now().Add(h.pongWait))
	connection.SetPongHandler(func(string) error {
		return connection.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	select {
	case h.register <- connection:
	case <-h.done:
		connection.Close()
		return
	}
	defer func() {
		select {
		case h.unregister <- connection:
		case <-h.done:
		}
	}()

	// Зрители ничего не присылают, читаем только чтобы заметить отключение
	for {
		if _, _, err := connection.ReadMessage(); err != nil {
			return
		}
	}
}
