package service

import (
	"time"

	"road-damage-detector/internal/session"
	"road-damage-detector/pkg/models"
)

// AnalyzeRequest запрос на анализ одного фото
type AnalyzeRequest struct {
	ImageData []byte
	Filename  string
	SessionID string
	Layout    *models.Size // размер области отображения на клиенте, если известен
}

// AnalysisResponse ответ с результатом анализа
type AnalysisResponse struct {
	ID           string                      `json:"id"`
	SessionID    string                      `json:"session_id"`
	OriginalSize models.Size                 `json:"original_size"`
	Result       models.DetectionResult      `json:"result"`
	Summary      []models.DamageSummaryEntry `json:"summary"`
	Layout       *models.Size                `json:"layout,omitempty"`
	Overlay      []models.OverlayBox         `json:"overlay,omitempty"`
	Superseded   bool                        `json:"superseded"`
	ImageURL     string                      `json:"image_url,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
}

// ListAnalysesResponse ответ со списком анализов
type ListAnalysesResponse struct {
	Analyses []AnalysisResponse `json:"analyses"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	Size     int                `json:"size"`
}

// SessionResponse текущее состояние сессии клиента
type SessionResponse struct {
	session.Snapshot
	Summary []models.DamageSummaryEntry `json:"summary"`
}

// AnalysisEvent сообщение для подписчиков живой ленты
type AnalysisEvent struct {
	Type       string                      `json:"type"`
	ID         string                      `json:"id"`
	SessionID  string                      `json:"session_id"`
	HasDamage  bool                        `json:"has_damage"`
	Confidence float64                     `json:"confidence"`
	DamageType string                      `json:"damage_type,omitempty"`
	Warning    string                      `json:"warning,omitempty"`
	Summary    []models.DamageSummaryEntry `json:"summary"`
	Superseded bool                        `json:"superseded"`
	CreatedAt  time.Time                   `json:"created_at"`
}
