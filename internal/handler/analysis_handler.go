package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"road-damage-detector/internal/imageprobe"
	"road-damage-detector/internal/overlay"
	"road-damage-detector/internal/service"
	"road-damage-detector/internal/stream"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisHandler обрабатывает HTTP запросы для анализа фото дорожного покрытия
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	hub             *stream.Hub
	logger          *logrus.Logger
	maxUploadSize   int64
}

// NewAnalysisHandler создает новый экземпляр AnalysisHandler. hub может быть nil,
// тогда живая лента не регистрируется.
func NewAnalysisHandler(analysisService *service.AnalysisService, hub *stream.Hub, logger *logrus.Logger, maxUploadSize int64) *AnalysisHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 32 << 20
	}
	return &AnalysisHandler{
		analysisService: analysisService,
		hub:             hub,
		logger:          logger,
		maxUploadSize:   maxUploadSize,
	}
}

// RegisterRoutes регистрирует маршруты API
func (h *AnalysisHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/detect", h.Detect)
		api.GET("/analyses", h.ListAnalyses)
		api.GET("/analyses/:id", h.GetAnalysis)
		api.DELETE("/analyses/:id", h.DeleteAnalysis)
		api.GET("/analyses/:id/image", h.GetAnalysisImage)
		api.GET("/analyses/:id/annotated", h.GetAnnotatedImage)
		api.GET("/sessions/:id", h.GetSession)
		api.GET("/classes", h.ListClasses)
		api.GET("/health", h.CheckHealth)
		if h.hub != nil {
			api.GET("/ws", gin.WrapF(h.hub.ServeWS))
		}
	}
}

// Detect принимает фото, отправляет его на анализ и возвращает результат
func (h *AnalysisHandler) Detect(c *gin.Context) {
	h.logger.Info("Получен запрос на анализ фото")

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	if err := c.Request.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка парсинга формы"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.logger.Errorf("Ошибка получения файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Файл изображения обязателен"})
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка чтения файла"})
		return
	}
	h.logger.Infof("Прочитано %d байт из файла %s", len(imageData), header.Filename)

	layout, err := parseLayout(c.PostForm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.analysisService.Analyze(c.Request.Context(), service.AnalyzeRequest{
		ImageData: imageData,
		Filename:  header.Filename,
		SessionID: c.PostForm("session_id"),
		Layout:    layout,
	})
	if err != nil {
		h.logger.Errorf("Ошибка анализа: %v", err)
		switch {
		case errors.Is(err, service.ErrImageProbe):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": imageprobe.UserMessage})
		case errors.Is(err, service.ErrEmptyImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Файл изображения пуст"})
		case errors.Is(err, overlay.ErrInvalidGeometry):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный размер области отображения"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка анализа изображения"})
		}
		return
	}

	h.logger.Info("Анализ фото завершен успешно")
	c.JSON(http.StatusOK, response)
}

// ListAnalyses возвращает список анализов с пагинацией
func (h *AnalysisHandler) ListAnalyses(c *gin.Context) {
	h.logger.Info("Получен запрос на получение списка анализов")

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size < 1 || size > 100 {
		size = 10
	}

	response, err := h.analysisService.ListAnalyses(page, size)
	if err != nil {
		h.logger.Errorf("Ошибка получения списка анализов: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения списка анализов"})
		return
	}

	h.logger.Infof("Возвращено %d анализов из %d", len(response.Analyses), response.Total)
	c.JSON(http.StatusOK, response)
}

// GetAnalysis возвращает анализ по ID, с рамками если передан размер области
func (h *AnalysisHandler) GetAnalysis(c *gin.Context) {
	analysisID, ok := h.analysisID(c)
	if !ok {
		return
	}

	layout, err := parseLayout(c.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	analysis, err := h.analysisService.GetAnalysis(analysisID, layout)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// DeleteAnalysis удаляет анализ по ID
func (h *AnalysisHandler) DeleteAnalysis(c *gin.Context) {
	analysisID, ok := h.analysisID(c)
	if !ok {
		return
	}
	h.logger.Infof("Получен запрос на удаление анализа с ID: %s", analysisID)

	if err := h.analysisService.DeleteAnalysis(analysisID); err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Анализ успешно удален"})
}

// GetAnalysisImage отдает исходное фото анализа
func (h *AnalysisHandler) GetAnalysisImage(c *gin.Context) {
	analysisID, ok := h.analysisID(c)
	if !ok {
		return
	}

	path, err := h.analysisService.ImagePath(analysisID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.File(path)
}

// GetAnnotatedImage отдает фото с нарисованными рамками детекций в JPEG
func (h *AnalysisHandler) GetAnnotatedImage(c *gin.Context) {
	analysisID, ok := h.analysisID(c)
	if !ok {
		return
	}

	layout, err := parseLayout(c.Query)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	data, err := h.analysisService.RenderAnnotated(analysisID, layout)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// GetSession возвращает текущий результат сессии клиента
func (h *AnalysisHandler) GetSession(c *gin.Context) {
	result, err := h.analysisService.SessionResult(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Результат сессии не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка получения сессии"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// analysisID достает ID анализа из пути; не-UUID сразу считается отсутствующим
func (h *AnalysisHandler) analysisID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Анализ не найден"})
		return "", false
	}
	return id, true
}

func (h *AnalysisHandler) respondLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Анализ не найден"})
	case errors.Is(err, overlay.ErrInvalidGeometry):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный размер области отображения"})
	default:
		h.logger.Errorf("Ошибка обработки запроса: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Внутренняя ошибка сервера"})
	}
}
