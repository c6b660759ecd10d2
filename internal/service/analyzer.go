package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"road-damage-detector/internal/imageprobe"
	"road-damage-detector/internal/model"
	"road-damage-detector/internal/overlay"
	"road-damage-detector/internal/summary"
	"road-damage-detector/pkg/models"

	"github.com/google/uuid"
)

// ErrEmptyImage запрос без данных изображения
var ErrEmptyImage = errors.New("no image data provided")

// ErrImageProbe не удалось определить размеры загруженного изображения
var ErrImageProbe = errors.New("cannot determine image dimensions")

// Analyze анализирует одно фото: определяет его размеры, отправляет в сервис
// инференса, строит сводку и рамки, сохраняет результат.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalysisResponse, error) {
	if len(req.ImageData) == 0 {
		return nil, ErrEmptyImage
	}

	s.logger.Infof("Начинаем анализ фото %s (%d байт)", req.Filename, len(req.ImageData))
	startTime := time.Now()

	// 1. Размеры исходного изображения. При ошибке состояние сессии не трогаем.
	info, err := imageprobe.Probe(bytes.NewReader(req.ImageData))
	if err != nil {
		s.logger.Errorf("Не удалось определить размеры изображения: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrImageProbe, err)
	}

	if req.Layout != nil && !req.Layout.Valid() {
		return nil, overlay.ErrInvalidGeometry
	}

	tracker := s.sessions.Get(req.SessionID)
	tracker.SelectImage(req.Filename)
	ticket := tracker.Begin()

	// 2. Запрос к сервису инференса, ошибки уже превращены в предупреждение
	result := s.detector.DetectBytes(ctx, req.ImageData, int(info.Size.Width), int(info.Size.Height))

	// Клиент ушел: результат отмененного запроса не сохраняем и в сессию не пишем
	if err := ctx.Err(); err != nil {
		s.logger.Warnf("Анализ в сессии %s отменен клиентом: %v", ticket.SessionID, err)
		return nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	// 3. Сохраняем изображение и результат
	analysisID := uuid.New().String()
	imagePath, err := s.saveImageFile(analysisID, req.Filename, req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("failed to save image file: %w", err)
	}

	analysis := &model.Analysis{
		ID:            analysisID,
		SessionID:     ticket.SessionID,
		ImageFilename: req.Filename,
		ImagePath:     imagePath,
		ImageWidth:    int(info.Size.Width),
		ImageHeight:   int(info.Size.Height),
		HasDamage:     result.HasDamage,
		Confidence:    result.Confidence,
		DamageType:    result.DamageType,
		Warning:       result.Warning,
		CreatedAt:     time.Now(),
	}
	for _, det := range result.Detections {
		analysis.Detections = append(analysis.Detections, model.Detection{
			X:         det.X,
			Y:         det.Y,
			Width:     det.Width,
			Height:    det.Height,
			Score:     det.Score,
			ClassID:   det.ClassID,
			ClassCode: det.ClassCode,
			ClassName: det.ClassName,
		})
	}

	if err := s.analysisRepo.Create(analysis); err != nil {
		s.logger.Errorf("Ошибка сохранения анализа в БД: %v", err)
		s.removeImageFile(imagePath)
		return nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	// 4. Результат попадает в сессию, только если за это время не начался новый анализ
	committed := tracker.Commit(ticket, analysisID, result)
	if !committed {
		s.logger.Warnf("Анализ %s устарел: в сессии %s уже начат более новый", analysisID, ticket.SessionID)
		analysis.Superseded = true
		if err := s.analysisRepo.MarkSuperseded(analysisID); err != nil {
			s.logger.Errorf("Не удалось пометить анализ %s устаревшим: %v", analysisID, err)
		}
	}
	s.metrics.AnalysisStored(!committed)

	response := &AnalysisResponse{
		ID:           analysisID,
		SessionID:    ticket.SessionID,
		OriginalSize: info.Size,
		Result:       result,
		Summary:      summary.Summarize(result.Detections),
		Superseded:   analysis.Superseded,
		ImageURL:     imageURL(analysisID),
		CreatedAt:    analysis.CreatedAt,
	}

	if req.Layout != nil {
		boxes, err := overlay.ProjectAll(*req.Layout, info.Size, result.Detections)
		if err != nil {
			return nil, err
		}
		response.Layout = req.Layout
		response.Overlay = boxes
	}

	s.publish(response)

	s.logger.Infof("Анализ %s завершен за %v: детекций %d, тип повреждения %q",
		analysisID, time.Since(startTime), len(result.Detections), result.DamageType)

	return response, nil
}

// publish отправляет событие подписчикам живой ленты
func (s *AnalysisService) publish(resp *AnalysisResponse) {
	if s.events == nil {
		return
	}

	s.events.Publish(AnalysisEvent{
		Type:       "analysis",
		ID:         resp.ID,
		SessionID:  resp.SessionID,
		HasDamage:  resp.Result.HasDamage,
		Confidence: resp.Result.Confidence,
		DamageType: resp.Result.DamageType,
		Warning:    resp.Result.Warning,
		Summary:    resp.Summary,
		Superseded: resp.Superseded,
		CreatedAt:  resp.CreatedAt,
	})
}

// CheckHealth проверяет состояние сервиса инференса
func (s *AnalysisService) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	s.logger.Debug("Проверяем состояние сервиса инференса")

	health, err := s.detector.CheckHealth(ctx)
	if err != nil {
		s.logger.Errorf("Сервис инференса недоступен: %v", err)
		return &models.HealthResponse{
			Status:  "unhealthy",
			Version: Version,
		}, err
	}

	return &models.HealthResponse{
		Status:  "healthy",
		Backend: health.Backend,
		Version: Version,
	}, nil
}
