package repository

import (
	"errors"
	"fmt"

	"road-damage-detector/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound анализ не найден
var ErrNotFound = errors.New("analysis not found")

// AnalysisRepository интерфейс для работы с результатами анализа
type AnalysisRepository interface {
	Create(analysis *model.Analysis) error
	GetByID(id string) (*model.Analysis, error)
	List(page, pageSize int) ([]*model.Analysis, int64, error)
	Delete(id string) error
	MarkSuperseded(id string) error
}

// analysisRepository реализация AnalysisRepository
type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository создает новый instance AnalysisRepository
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{
		db: db,
	}
}

// orderedDetections загружает детекции в порядке ответа сервиса
func orderedDetections(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create сохраняет анализ вместе с детекциями в одной транзакции
func (r *analysisRepository) Create(analysis *model.Analysis) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Детекции создаем отдельно, чтобы проставить позиции
		if err := tx.Omit("Detections").Create(analysis).Error; err != nil {
			return fmt.Errorf("failed to create analysis: %w", err)
		}

		for i := range analysis.Detections {
			analysis.Detections[i].ID = 0 // Обнуляем ID для auto-increment
			analysis.Detections[i].AnalysisID = analysis.ID
			analysis.Detections[i].Position = i

			if err := tx.Create(&analysis.Detections[i]).Error; err != nil {
				return fmt.Errorf("failed to create detection %d: %w", i, err)
			}
		}

		return nil
	})
}

// GetByID получает анализ по ID
func (r *analysisRepository) GetByID(id string) (*model.Analysis, error) {
	var analysis model.Analysis
	err := r.db.Preload("Detections", orderedDetections).Where("id = ?", id).First(&analysis).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

// List получает список анализов с пагинацией, новые первыми
func (r *analysisRepository) List(page, pageSize int) ([]*model.Analysis, int64, error) {
	var analyses []*model.Analysis
	var total int64

	// Подсчитываем общее количество
	if err := r.db.Model(&model.Analysis{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count analyses: %w", err)
	}

	offset := (page - 1) * pageSize
	err := r.db.Preload("Detections", orderedDetections).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Order("id").
		Find(&analyses).Error

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list analyses: %w", err)
	}

	return analyses, total, nil
}

// Delete удаляет анализ по ID
func (r *analysisRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// Сначала удаляем детекции
		if err := tx.Where("analysis_id = ?", id).Delete(&model.Detection{}).Error; err != nil {
			return fmt.Errorf("failed to delete detections: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&model.Analysis{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete analysis: %w", result.Error)
		}

		if result.RowsAffected == 0 {
			return fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
		}

		return nil
	})
}

// MarkSuperseded помечает анализ как устаревший: в сессии его уже заменил более новый
func (r *analysisRepository) MarkSuperseded(id string) error {
	result := r.db.Model(&model.Analysis{}).Where("id = ?", id).Update("superseded", true)
	if result.Error != nil {
		return fmt.Errorf("failed to update analysis: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("analysis with id %s: %w", id, ErrNotFound)
	}
	return nil
}
