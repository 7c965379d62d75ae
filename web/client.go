package web

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Константы WebSocket-соединения
const (
	// Время ожидания записи сообщения клиенту
	writeWait = 10 * time.Second

	// Время ожидания сообщения от клиента
	pongWait = 60 * time.Second

	// Период отправки пинг-сообщений
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 512
)

// Client представляет одного подписчика трансляции прогресса
type Client struct {
	ID     string
	Socket *websocket.Conn
	Send   chan []byte

	logger *utils.PipelineLogger
}

// NewClient создает нового подписчика
func NewClient(id string, socket *websocket.Conn, logger *utils.PipelineLogger) *Client {
	return &Client{
		ID:     id,
		Socket: socket,
		Send:   make(chan []byte, 16),
		logger: logger,
	}
}

// writePump отвечает за отправку сообщений подписчику
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		// Обработка паники при закрытии канала
		if r := recover(); r != nil {
			c.logger.Error("Паника при отправке сообщений подписчику %s: %v", c.ID, r)
		}

		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Канал закрыт
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Каждое событие отправляется отдельным сообщением,
			// чтобы подписчик разбирал JSON без разделителей
			if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.Send)
			for i := 0; i < n; i++ {
				message := <-c.Send
				if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump поддерживает соединение и отслеживает отключение подписчика.
// Входящие сообщения трансляции не нужны и отбрасываются
func (c *Client) readPump(hub *Hub) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Паника при чтении сообщений подписчика %s: %v", c.ID, r)
		}

		hub.Unregister <- c
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		c.Socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("Соединение с подписчиком %s прервано: %v", c.ID, err)
			}
			break
		}
	}
}
