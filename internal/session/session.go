// Package session хранит текущий результат анализа для каждой сессии клиента.
//
// Каждый новый анализ или выбор нового изображения увеличивает номер поколения.
// Ответ, пришедший для устаревшего поколения, не перезаписывает более новый
// результат.
package session

import (
	"sync"
	"time"

	"road-damage-detector/pkg/models"
)

// DefaultID сессия по умолчанию, если клиент не передал свой идентификатор
const DefaultID = "default"

// Ticket выдается при старте анализа и предъявляется при сохранении результата
type Ticket struct {
	SessionID  string
	Generation uint64
}

// Snapshot текущее состояние сессии
type Snapshot struct {
	SessionID  string                  `json:"session_id"`
	Generation uint64                  `json:"generation"`
	ImageRef   string                  `json:"image_ref,omitempty"`
	AnalysisID string                  `json:"analysis_id,omitempty"`
	Result     *models.DetectionResult `json:"result,omitempty"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

// Tracker состояние одной сессии
type Tracker struct {
	mu         sync.Mutex
	id         string
	generation uint64
	imageRef   string
	analysisID string
	result     *models.DetectionResult
	updatedAt  time.Time
}

// NewTracker создает трекер для сессии id
func NewTracker(id string) *Tracker {
	return &Tracker{id: id}
}

// SelectImage фиксирует выбор нового изображения и сбрасывает прежний результат
func (t *Tracker) SelectImage(ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.imageRef = ref
	t.analysisID = ""
	t.result = nil
	t.updatedAt = time.Now()
}

// Begin начинает новый анализ. Все ранее выданные билеты становятся устаревшими.
func (t *Tracker) Begin() Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.analysisID = ""
	t.result = nil
	t.updatedAt = time.Now()

	return Ticket{SessionID: t.id, Generation: t.generation}
}

// Commit сохраняет результат, если билет принадлежит последнему поколению.
// Возвращает false для устаревшего билета.
func (t *Tracker) Commit(ticket Ticket, analysisID string, result models.DetectionResult) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ticket.Generation != t.generation {
		return false
	}

	t.analysisID = analysisID
	t.result = &result
	t.updatedAt = time.Now()
	return true
}

// Current возвращает состояние сессии; false, если результата пока нет
func (t *Tracker) Current() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		SessionID:  t.id,
		Generation: t.generation,
		ImageRef:   t.imageRef,
		AnalysisID: t.analysisID,
		UpdatedAt:  t.updatedAt,
	}
	if t.result == nil {
		return snap, false
	}

	result := *t.result
	result.Detections = append([]models.DetectionBox(nil), t.result.Detections...)
	snap.Result = &result
	return snap, true
}

// Registry набор трекеров по идентификатору сессии
type Registry struct {
	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// NewRegistry создает пустой реестр сессий
func NewRegistry() *Registry {
	return &Registry{trackers: make(map[string]*Tracker)}
}

// Get возвращает трекер сессии, создавая его при первом обращении
func (r *Registry) Get(id string) *Tracker {
	if id == "" {
		id = DefaultID
	}

	r.mu.RLock()
	tracker, ok := r.trackers[id]
	r.mu.RUnlock()
	if ok {
		return tracker
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tracker, ok := r.trackers[id]; ok {
		return tracker
	}
	tracker = NewTracker(id)
	r.trackers[id] = tracker
	return tracker
}

// Lookup возвращает трекер, только если сессия уже существует
func (r *Registry) Lookup(id string) (*Tracker, bool) {
	if id == "" {
		id = DefaultID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	tracker, ok := r.trackers[id]
	return tracker, ok
}
