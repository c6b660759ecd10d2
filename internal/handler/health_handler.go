package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"road-damage-detector/pkg/models"

	"github.com/gin-gonic/gin"
)

// CheckHealth проверяет состояние сервиса инференса
// @Summary Проверка состояния сервиса
// @Description Возвращает состояние сервиса инференса и версию API
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Failure 503 {object} models.HealthResponse
// @Router /health [get]
func (h *AnalysisHandler) CheckHealth(c *gin.Context) {
	h.logger.Debug("Получен запрос проверки здоровья")

	health, err := h.analysisService.CheckHealth(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Сервис инференса недоступен: %v", err)
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	c.JSON(http.StatusOK, health)
}

// ListClasses возвращает справочник классов повреждений
// @Summary Классы повреждений
// @Tags classes
// @Produce json
// @Router /classes [get]
func (h *AnalysisHandler) ListClasses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"classes": h.analysisService.Classes()})
}

// parseLayout читает размер области отображения. Оба параметра или ни одного.
func parseLayout(value func(string) string) (*models.Size, error) {
	widthStr := value("layout_width")
	heightStr := value("layout_height")

	if widthStr == "" && heightStr == "" {
		return nil, nil
	}
	if widthStr == "" || heightStr == "" {
		return nil, fmt.Errorf("layout_width и layout_height передаются вместе")
	}

	width, err := parseFloat(widthStr, "layout_width")
	if err != nil {
		return nil, err
	}
	height, err := parseFloat(heightStr, "layout_height")
	if err != nil {
		return nil, err
	}

	layout := &models.Size{Width: width, Height: height}
	if !layout.Valid() {
		return nil, fmt.Errorf("размер области отображения должен быть положительным")
	}

	return layout, nil
}

// parseFloat парсит строку в float64
func parseFloat(value, fieldName string) (float64, error) {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s должен быть числом", fieldName)
	}
	return result, nil
}
