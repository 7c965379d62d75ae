package models

import (
	"time"
)

// ProgressEvent представляет событие прогресса одного этапа прогона.
// События рассылаются подписчикам через WebSocket и носят
// исключительно информационный характер
type ProgressEvent struct {
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressSink принимает события прогресса конвейера
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// NopProgress — заглушка для режимов без подписчиков
type NopProgress struct{}

// Publish ничего не делает
func (NopProgress) Publish(event ProgressEvent) {}
