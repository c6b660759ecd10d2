package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"

	"road-damage-detector/internal/damage"
	"road-damage-detector/internal/metrics"
	"road-damage-detector/internal/model"
	"road-damage-detector/internal/overlay"
	"road-damage-detector/internal/repository"
	"road-damage-detector/internal/session"
	"road-damage-detector/internal/summary"
	"road-damage-detector/pkg/models"

	"github.com/sirupsen/logrus"
)

// Version версия API
const Version = "1.0.0"

// ErrNotFound анализ не найден
var ErrNotFound = repository.ErrNotFound

// ErrSessionNotFound у сессии еще нет результата
var ErrSessionNotFound = errors.New("session has no analysis result")

// Detector сервис инференса, к которому обращается анализатор
type Detector interface {
	DetectBytes(ctx context.Context, imageData []byte, originalWidth, originalHeight int) models.DetectionResult
	CheckHealth(ctx context.Context) (*models.HealthResponse, error)
}

// Publisher получатель событий о завершенных анализах
type Publisher interface {
	Publish(event any)
}

// AnalysisService сервис анализа фото дорожного покрытия
type AnalysisService struct {
	detector     Detector
	analysisRepo repository.AnalysisRepository
	sessions     *session.Registry
	metrics      *metrics.Metrics
	events       Publisher
	logger       *logrus.Logger
	staticDir    string
}

// NewAnalysisService создает новый сервис анализа. metrics и events могут быть nil.
func NewAnalysisService(
	detector Detector,
	analysisRepo repository.AnalysisRepository,
	sessions *session.Registry,
	m *metrics.Metrics,
	events Publisher,
	logger *logrus.Logger,
	staticDir string,
) *AnalysisService {
	return &AnalysisService{
		detector:     detector,
		analysisRepo: analysisRepo,
		sessions:     sessions,
		metrics:      m,
		events:       events,
		logger:       logger,
		staticDir:    staticDir,
	}
}

// Classes возвращает справочник классов повреждений
func (s *AnalysisService) Classes() []damage.Class {
	return damage.All()
}

// GetAnalysis получает анализ по ID. Если передан layout, добавляет рамки детекций.
func (s *AnalysisService) GetAnalysis(id string, layout *models.Size) (*AnalysisResponse, error) {
	s.logger.Infof("Получаем анализ %s из базы данных", id)

	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		s.logger.Errorf("Ошибка получения анализа: %v", err)
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	response := s.modelToResponse(analysis)
	if layout != nil {
		boxes, err := overlay.ProjectAll(*layout, response.OriginalSize, response.Result.Detections)
		if err != nil {
			return nil, err
		}
		response.Layout = layout
		response.Overlay = boxes
	}

	return response, nil
}

// ListAnalyses получает список анализов с пагинацией
func (s *AnalysisService) ListAnalyses(page, pageSize int) (*ListAnalysesResponse, error) {
	s.logger.Infof("Получаем список анализов: страница %d, размер %d", page, pageSize)

	analyses, total, err := s.analysisRepo.List(page, pageSize)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка анализов: %v", err)
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	responses := make([]AnalysisResponse, len(analyses))
	for i, analysis := range analyses {
		responses[i] = *s.modelToResponse(analysis)
	}

	return &ListAnalysesResponse{
		Analyses: responses,
		Total:    total,
		Page:     page,
		Size:     pageSize,
	}, nil
}

// DeleteAnalysis удаляет анализ и сохраненное изображение
func (s *AnalysisService) DeleteAnalysis(id string) error {
	s.logger.Infof("Удаляем анализ %s", id)

	// Сначала получаем анализ, чтобы знать путь к изображению
	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		s.logger.Errorf("Ошибка получения анализа для удаления: %v", err)
		return fmt.Errorf("failed to get analysis for deletion: %w", err)
	}

	if err := s.analysisRepo.Delete(id); err != nil {
		s.logger.Errorf("Ошибка удаления анализа из БД: %v", err)
		return fmt.Errorf("failed to delete analysis from database: %w", err)
	}

	s.removeImageFile(analysis.ImagePath)

	s.logger.Infof("Анализ %s успешно удален", id)
	return nil
}

// ImagePath возвращает путь к сохраненному изображению анализа
func (s *AnalysisService) ImagePath(id string) (string, error) {
	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		return "", fmt.Errorf("failed to get analysis: %w", err)
	}
	if analysis.ImagePath == "" {
		return "", fmt.Errorf("image for analysis %s: %w", id, ErrNotFound)
	}
	return analysis.ImagePath, nil
}

// RenderAnnotated рисует изображение анализа с рамками детекций и кодирует его в JPEG
func (s *AnalysisService) RenderAnnotated(id string, layout *models.Size) ([]byte, error) {
	analysis, err := s.analysisRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	file, err := os.Open(analysis.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	target := models.Size{}
	if layout != nil {
		target = *layout
	}

	canvas, err := overlay.Render(img, target, s.modelToResponse(analysis).Result.Detections)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return buf.Bytes(), nil
}

// SessionResult возвращает текущий результат сессии клиента
func (s *AnalysisService) SessionResult(sessionID string) (*SessionResponse, error) {
	tracker, ok := s.sessions.Lookup(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	snap, ok := tracker.Current()
	if !ok {
		return nil, ErrSessionNotFound
	}

	return &SessionResponse{
		Snapshot: snap,
		Summary:  summary.Summarize(snap.Result.Detections),
	}, nil
}

// saveImageFile сохраняет загруженное фото в статической папке
func (s *AnalysisService) saveImageFile(analysisID, originalFilename string, data []byte) (string, error) {
	imageDir := filepath.Join(s.staticDir, "images")
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		s.logger.Errorf("Ошибка создания директории %s: %v", imageDir, err)
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".jpg"
	}

	filePath := filepath.Join(imageDir, analysisID+ext)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		s.logger.Errorf("Ошибка записи файла %s: %v", filePath, err)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	s.logger.Infof("Фото сохранено: %s (%d байт)", filePath, len(data))
	return filePath, nil
}

func (s *AnalysisService) removeImageFile(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil {
		s.logger.Warnf("Не удалось удалить файл %s: %v", path, err)
	}
}

// modelToResponse преобразует модель базы данных в ответ API
func (s *AnalysisService) modelToResponse(analysis *model.Analysis) *AnalysisResponse {
	detections := make([]models.DetectionBox, len(analysis.Detections))
	for i, det := range analysis.Detections {
		detections[i] = models.DetectionBox{
			X:         det.X,
			Y:         det.Y,
			Width:     det.Width,
			Height:    det.Height,
			Score:     det.Score,
			ClassID:   det.ClassID,
			ClassCode: det.ClassCode,
			ClassName: det.ClassName,
		}
	}

	return &AnalysisResponse{
		ID:        analysis.ID,
		SessionID: analysis.SessionID,
		OriginalSize: models.Size{
			Width:  float64(analysis.ImageWidth),
			Height: float64(analysis.ImageHeight),
		},
		Result: models.DetectionResult{
			HasDamage:  analysis.HasDamage,
			Confidence: analysis.Confidence,
			Detections: detections,
			DamageType: analysis.DamageType,
			Warning:    analysis.Warning,
		},
		Summary:    summary.Summarize(detections),
		Superseded: analysis.Superseded,
		ImageURL:   imageURL(analysis.ID),
		CreatedAt:  analysis.CreatedAt,
	}
}

func imageURL(id string) string {
	return fmt.Sprintf("/api/v1/analyses/%s/image", id)
}
