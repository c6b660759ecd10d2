package model

import (
	"time"

	"gorm.io/gorm"
)

// Analysis представляет результат анализа одного фото в базе данных
type Analysis struct {
	ID            string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID     string `gorm:"type:varchar(64);index" json:"session_id"`
	ImageFilename string `gorm:"type:varchar(255)" json:"image_filename"`
	ImagePath     string `gorm:"type:varchar(500)" json:"image_path"`
	ImageWidth    int    `gorm:"not null" json:"image_width"`
	ImageHeight   int    `gorm:"not null" json:"image_height"`

	// Результат детекции
	HasDamage  bool    `gorm:"not null;default:false" json:"has_damage"`
	Confidence float64 `gorm:"not null;default:0" json:"confidence"`
	DamageType string  `gorm:"type:varchar(255)" json:"damage_type"`
	Warning    string  `gorm:"type:text" json:"warning"`
	Superseded bool    `gorm:"not null;default:false" json:"superseded"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Связь с детекциями
	Detections []Detection `gorm:"foreignKey:AnalysisID;constraint:OnDelete:CASCADE" json:"detections"`
}

// Detection представляет одну найденную область повреждения
type Detection struct {
	ID         uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	AnalysisID string  `gorm:"type:varchar(36);not null;index" json:"analysis_id"`
	Position   int     `gorm:"not null" json:"position"` // порядок в ответе сервиса
	X          float64 `gorm:"not null" json:"x"`
	Y          float64 `gorm:"not null" json:"y"`
	Width      float64 `gorm:"not null" json:"width"`
	Height     float64 `gorm:"not null" json:"height"`
	Score      float64 `gorm:"not null" json:"score"`
	ClassID    int     `gorm:"not null" json:"class_id"`
	ClassCode  string  `gorm:"type:varchar(8)" json:"class_code"`
	ClassName  string  `gorm:"type:varchar(255)" json:"class_name"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName указывает имя таблицы для Analysis
func (Analysis) TableName() string {
	return "analyses"
}

// TableName указывает имя таблицы для Detection
func (Detection) TableName() string {
	return "detections"
}
