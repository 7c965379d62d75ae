package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// Конфигурация WebSocket-соединения
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Разрешаем подключения с любого источника (для разработки)
	},
}

// Server — административный HTTP-сервер конвейера
type Server struct {
	hub     *Hub
	runLog  models.RunLogRepository
	trigger func() error
	logger  *utils.PipelineLogger
	httpSrv *http.Server
}

// NewServer создает новый экземпляр Server.
// trigger запускает новый прогон конвейера и возвращает ErrRunInProgress,
// если прогон уже выполняется
func NewServer(port int, hub *Hub, runLog models.RunLogRepository, trigger func() error, logger *utils.PipelineLogger) *Server {
	s := &Server{
		hub:     hub,
		runLog:  runLog,
		trigger: trigger,
		logger:  logger,
	}

	router := mux.NewRouter()

	// Настраиваем CORS
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	// Регистрируем обработчики
	router.HandleFunc("/api/health", s.handleHealth).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/runs", s.handleRuns).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/run", s.handleTrigger).Methods("POST", "OPTIONS")
	router.HandleFunc("/ws/progress", s.handleProgress)

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start запускает рассылку прогресса и HTTP-сервер в отдельных горутинах
func (s *Server) Start() {
	go s.hub.Run()

	go func() {
		s.logger.Info("✅ Административный сервер запущен на http://localhost%s", s.httpSrv.Addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("❌ Ошибка административного сервера: %v", err)
		}
	}()
}

// Shutdown останавливает HTTP-сервер, дожидаясь активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// healthResponse — ответ проверки состояния конвейера
type healthResponse struct {
	Status string `json:"status"`
	models.RunStateMonitor
}

// handleHealth возвращает состояние конвейера: последний успешный,
// последний неудачный и выполняющийся прогоны
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	lastRun, err := s.runLog.GetLastSuccessfulRun()
	if err != nil {
		s.logger.Error("Ошибка при получении последнего успешного прогона: %v", err)
		http.Error(w, "Ошибка при получении состояния конвейера", http.StatusInternalServerError)
		return
	}

	lastFailed, err := s.runLog.GetLastFailedRun()
	if err != nil {
		s.logger.Error("Ошибка при получении последнего неудачного прогона: %v", err)
		http.Error(w, "Ошибка при получении состояния конвейера", http.StatusInternalServerError)
		return
	}

	current, err := s.runLog.GetCurrentRun()
	if err != nil {
		s.logger.Error("Ошибка при получении выполняющегося прогона: %v", err)
		http.Error(w, "Ошибка при получении состояния конвейера", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, healthResponse{
		Status: "ok",
		RunStateMonitor: models.RunStateMonitor{
			LastSuccessfulRun: lastRun,
			LastFailedRun:     lastFailed,
			CurrentRun:        current,
		},
	})
}

// handleRuns возвращает журнал прогонов за период (параметр days, по умолчанию 7)
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "Неверный формат параметра days", http.StatusBadRequest)
			return
		}
		days = n
	}

	runs, err := s.runLog.GetRunStats(days)
	if err != nil {
		s.logger.Error("Ошибка при получении журнала прогонов: %v", err)
		http.Error(w, "Ошибка при получении журнала прогонов", http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, map[string]interface{}{"runs": runs})
}

// handleTrigger запускает новый прогон конвейера.
// Если прогон уже выполняется, возвращает 409
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if err := s.trigger(); err != nil {
		if errors.Is(err, models.ErrRunInProgress) {
			http.Error(w, "Прогон конвейера уже выполняется", http.StatusConflict)
			return
		}
		s.logger.Error("Ошибка при запуске прогона: %v", err)
		http.Error(w, "Ошибка при запуске прогона", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "started"}); err != nil {
		s.logger.Error("Ошибка сериализации ответа: %v", err)
	}
}

// handleProgress подключает подписчика к трансляции прогресса
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("❌ Ошибка обновления соединения до WebSocket: %v", err)
		return
	}

	client := NewClient(uuid.New().String(), conn, s.logger)
	s.hub.Register <- client

	go client.writePump()
	go client.readPump(s.hub)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Ошибка сериализации ответа: %v", err)
	}
}
