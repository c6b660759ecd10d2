package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"sort"
	"strings"
	"time"

	"road-damage-detector/internal/damage"
	"road-damage-detector/internal/metrics"
	"road-damage-detector/pkg/models"

	"github.com/sirupsen/logrus"
)

// Параметры multipart-запроса к сервису инференса
const (
	FormField         = "file"
	UploadFilename    = "image.jpg"
	UploadContentType = "image/jpeg"
)

// FallbackWarning предупреждение, которое получает пользователь при любой ошибке анализа
const FallbackWarning = "Помилка при аналізі зображення моделлю YOLOv8"

// unknownClassWarning диагностика для детекций с неизвестным classId
const unknownClassWarning = "Пропущено детекцій з невідомим класом: %d"

var errMissingDetections = errors.New("в ответе нет поля detections")

// DetectorClient клиент для сервиса инференса YOLO
type DetectorClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	metrics    *metrics.Metrics
}

// NewDetectorClient создает новый клиент. timeout = 0 означает отсутствие таймаута.
func NewDetectorClient(baseURL string, timeout time.Duration, logger *logrus.Logger, m *metrics.Metrics) *DetectorClient {
	return &DetectorClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: m,
	}
}

// BaseURL возвращает адрес сервиса инференса
func (c *DetectorClient) BaseURL() string {
	return c.baseURL
}

// Detect отправляет файл изображения на анализ. Никогда не возвращает ошибку:
// любой сбой превращается в результат без повреждений с предупреждением.
func (c *DetectorClient) Detect(ctx context.Context, imagePath string, originalWidth, originalHeight int) models.DetectionResult {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		c.logger.WithError(err).WithField("path", imagePath).Error("Ошибка чтения файла изображения")
		c.metrics.ObserveDetect(metrics.OutcomeFallback, nil, 0)
		return Fallback()
	}

	return c.DetectBytes(ctx, data, originalWidth, originalHeight)
}

// DetectBytes отправляет изображение из памяти на анализ
func (c *DetectorClient) DetectBytes(ctx context.Context, imageData []byte, originalWidth, originalHeight int) models.DetectionResult {
	startTime := time.Now()
	log := c.logger.WithFields(logrus.Fields{
		"bytes":  len(imageData),
		"width":  originalWidth,
		"height": originalHeight,
	})

	log.Info("Отправка изображения в сервис инференса")

	raw, err := c.postDetect(ctx, imageData)
	if err != nil {
		log.WithError(err).Error("Ошибка при анализе изображения")
		c.metrics.ObserveDetect(metrics.OutcomeFallback, nil, time.Since(startTime))
		return Fallback()
	}

	result, skipped := assemble(raw)

	outcome := metrics.OutcomeOK
	if skipped > 0 {
		outcome = metrics.OutcomeSkippedClasses
		log.Warnf("Сервис вернул %d детекций с неизвестным classId, они пропущены", skipped)
	}
	codes := make([]string, len(result.Detections))
	for i, det := range result.Detections {
		codes[i] = det.ClassCode
	}
	c.metrics.ObserveDetect(outcome, codes, time.Since(startTime))

	log.Infof("Получено %d детекций, средняя уверенность %.3f", len(result.Detections), result.Confidence)
	return result
}

// Fallback результат, возвращаемый при любой ошибке анализа
func Fallback() models.DetectionResult {
	return models.DetectionResult{
		HasDamage:  false,
		Confidence: 0,
		Detections: []models.DetectionBox{},
		Warning:    FallbackWarning,
	}
}

// postDetect выполняет POST /detect и разбирает JSON-ответ
func (c *DetectorClient) postDetect(ctx context.Context, imageData []byte) (*models.BackendResponse, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FormField, UploadFilename))
	header.Set("Content-Type", UploadContentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания form field для изображения: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("ошибка записи данных изображения: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("ошибка закрытия multipart writer: %w", err)
	}

	url := fmt.Sprintf("%s/detect", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	c.logger.Debugf("Отправка POST запроса на %s", url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithField("status", resp.StatusCode).Errorf("Ответ сервиса с ошибкой: %s", string(respBody))
		return nil, fmt.Errorf("сервис инференса вернул ошибку: статус %d", resp.StatusCode)
	}

	var apiResponse models.BackendResponse
	if err := json.Unmarshal(respBody, &apiResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}
	if apiResponse.Detections == nil {
		return nil, errMissingDetections
	}

	return &apiResponse, nil
}

// assemble превращает ответ сервиса в результат анализа. hasDamage и confidence
// всегда пересчитываются по детекциям, значения сервиса игнорируются.
// Возвращает количество пропущенных детекций с неизвестным классом.
func assemble(raw *models.BackendResponse) (models.DetectionResult, int) {
	detections := make([]models.DetectionBox, 0, len(raw.Detections))
	skipped := 0

	for _, d := range raw.Detections {
		class, ok := damage.Lookup(d.ClassID)
		if !ok {
			skipped++
			continue
		}

		detections = append(detections, models.DetectionBox{
			X:         d.X,
			Y:         d.Y,
			Width:     d.Width,
			Height:    d.Height,
			Score:     d.Score,
			ClassID:   d.ClassID,
			ClassCode: class.Code,
			ClassName: class.Name,
		})
	}

	result := models.DetectionResult{
		HasDamage:  len(detections) > 0,
		Detections: detections,
	}

	if result.HasDamage {
		sum := 0.0
		for _, det := range detections {
			sum += det.Score
		}
		result.Confidence = sum / float64(len(detections))

		sorted := make([]models.DetectionBox, len(detections))
		copy(sorted, detections)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Score > sorted[j].Score
		})

		top, _ := damage.Lookup(sorted[0].ClassID)
		result.DamageType = top.Label()
	}

	var warnings []string
	if raw.Warning != nil && *raw.Warning != "" {
		warnings = append(warnings, *raw.Warning)
	}
	if skipped > 0 {
		warnings = append(warnings, fmt.Sprintf(unknownClassWarning, skipped))
	}
	result.Warning = strings.Join(warnings, "; ")

	return result, skipped
}

// CheckHealth проверяет состояние сервиса инференса
func (c *DetectorClient) CheckHealth(ctx context.Context) (*models.HealthResponse, error) {
	c.logger.Debug("Проверка здоровья сервиса инференса")

	url := fmt.Sprintf("%s/health", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания HTTP запроса: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка отправки HTTP запроса: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("сервис инференса вернул ошибку: статус %d, тело: %s", resp.StatusCode, string(respBody))
	}

	var healthResponse models.HealthResponse
	if err := json.Unmarshal(respBody, &healthResponse); err != nil {
		return nil, fmt.Errorf("ошибка парсинга JSON ответа: %w", err)
	}
	healthResponse.Backend = c.baseURL

	return &healthResponse, nil
}
