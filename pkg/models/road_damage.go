package models

// NoClassID обозначает детекцию без идентификатора класса
const NoClassID = -1

// Size представляет размер в пикселях или в единицах экрана
type Size struct {
	Width  float64 `json:"width"`  // Ширина
	Height float64 `json:"height"` // Высота
}

// Valid сообщает, что обе стороны строго положительны
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// DetectionBox представляет одну найденную область повреждения.
// Координаты нормализованы в [0,1] относительно размеров исходного изображения.
type DetectionBox struct {
	X         float64 `json:"x"`         // Левый верхний угол по X
	Y         float64 `json:"y"`         // Левый верхний угол по Y
	Width     float64 `json:"width"`     // Ширина
	Height    float64 `json:"height"`    // Высота
	Score     float64 `json:"score"`     // Уверенность модели
	ClassID   int     `json:"classId"`   // ID класса повреждения
	ClassCode string  `json:"classCode"` // Код класса (D00, D10, ...)
	ClassName string  `json:"className"` // Название класса
}

// DetectionResult представляет результат анализа одного изображения
type DetectionResult struct {
	HasDamage  bool           `json:"hasDamage"`            // Есть ли повреждения
	Confidence float64        `json:"confidence"`           // Средняя уверенность по детекциям
	Detections []DetectionBox `json:"detections"`           // Детекции в порядке ответа сервиса
	DamageType string         `json:"damageType,omitempty"` // "<code> - <name>" детекции с наибольшим score
	Warning    string         `json:"warning,omitempty"`    // Предупреждение
}

// DamageSummaryEntry сводка по одному классу повреждений
type DamageSummaryEntry struct {
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	MaxScore float64 `json:"maxScore"`
}

// Rect прямоугольник в координатах экрана
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OverlayBox прямоугольник детекции вместе с подписью
type OverlayBox struct {
	Rect
	Label     string  `json:"label"`     // Код класса
	LabelLeft float64 `json:"labelLeft"` // Позиция подписи по X
	LabelTop  float64 `json:"labelTop"`  // Позиция подписи по Y (над рамкой)
	Score     float64 `json:"score"`     // Уверенность модели
	Detection int     `json:"detection"` // Индекс детекции в результате
}

// BackendDetection одна детекция в ответе сервиса инференса
type BackendDetection struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Score   float64 `json:"score"`
	ClassID int     `json:"classId"`
}

// BackendResponse определяет структуру ответа сервиса инференса на POST /detect
type BackendResponse struct {
	HasDamage  bool               `json:"hasDamage"`
	Confidence float64            `json:"confidence"`
	Detections []BackendDetection `json:"detections"`
	Warning    *string            `json:"warning,omitempty"`
}

// HealthResponse представляет ответ проверки здоровья сервиса
type HealthResponse struct {
	Status  string `json:"status"`            // Статус сервиса (ok/healthy/unhealthy)
	Backend string `json:"backend,omitempty"` // Адрес сервиса инференса
	Version string `json:"version,omitempty"` // Версия
}
