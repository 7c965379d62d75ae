// Package web предоставляет административный HTTP-интерфейс конвейера:
// состояние и журнал прогонов, ручной запуск и трансляция прогресса
// выполняющегося прогона по WebSocket
package web

import (
	"encoding/json"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Hub рассылает события прогресса всем подключенным подписчикам
type Hub struct {
	Clients    map[string]*Client
	Broadcast  chan []byte
	Register   chan *Client
	Unregister chan *Client
	logger     *utils.PipelineLogger
}

// NewHub создает новый экземпляр Hub
func NewHub(logger *utils.PipelineLogger) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Broadcast:  make(chan []byte, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run обрабатывает подключения, отключения и рассылку сообщений
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client.ID] = client
			h.logger.Debug("👤 Подписчик %s подключился", client.ID)

		case client := <-h.Unregister:
			if _, ok := h.Clients[client.ID]; ok {
				delete(h.Clients, client.ID)
				close(client.Send)
				h.logger.Debug("👤 Подписчик %s отключился", client.ID)
			}

		case message := <-h.Broadcast:
			h.broadcast(message)
		}
	}
}

// broadcast рассылает сообщение всем подключенным подписчикам
func (h *Hub) broadcast(message []byte) {
	for _, client := range h.Clients {
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.Clients, client.ID)
		}
	}
}

// Publish сериализует событие прогресса и передает его в рассылку.
// События носят информационный характер: при переполнении канала
// событие пропускается, прогон не блокируется
func (h *Hub) Publish(event models.ProgressEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Ошибка сериализации события прогресса: %v", err)
		return
	}

	select {
	case h.Broadcast <- data:
	default:
		h.logger.Debug("Канал рассылки переполнен, событие прогресса пропущено")
	}
}
