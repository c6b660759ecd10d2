package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"road-damage-detector/internal/client"
	"road-damage-detector/internal/config"
	"road-damage-detector/internal/imageprobe"
	"road-damage-detector/internal/overlay"
	"road-damage-detector/internal/summary"
	"road-damage-detector/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// report то, что печатает утилита
type report struct {
	Image        string                      `json:"image"`
	OriginalSize models.Size                 `json:"original_size"`
	Result       models.DetectionResult      `json:"result"`
	Summary      []models.DamageSummaryEntry `json:"summary"`
	Layout       *models.Size                `json:"layout,omitempty"`
	Overlay      []models.OverlayBox         `json:"overlay,omitempty"`
}

func main() {
	cfg := config.LoadConfig()

	backend := flag.String("backend", cfg.Detector.BaseURL, "адрес сервиса инференса")
	layoutFlag := flag.String("layout", "", "размер области отображения, например 380x320")
	verbose := flag.Bool("v", false, "подробный лог")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Использование: %s [-backend URL] [-layout WxH] image.jpg\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	imagePath := flag.Arg(0)

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	layout, err := parseLayout(*layoutFlag)
	if err != nil {
		logger.Fatalf("Неверный -layout: %v", err)
	}

	info, err := imageprobe.ProbeFile(imagePath)
	if err != nil {
		logger.Errorf("%s: %v", imageprobe.UserMessage, err)
		os.Exit(1)
	}

	detector := client.NewDetectorClient(*backend, cfg.Detector.Timeout, logger, nil)
	result := detector.Detect(context.Background(), imagePath, int(info.Size.Width), int(info.Size.Height))

	out := report{
		Image:        imagePath,
		OriginalSize: info.Size,
		Result:       result,
		Summary:      summary.Summarize(result.Detections),
	}

	if layout != nil {
		boxes, err := overlay.ProjectAll(*layout, info.Size, result.Detections)
		if err != nil {
			logger.Fatalf("Ошибка расчета рамок: %v", err)
		}
		out.Layout = layout
		out.Overlay = boxes
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(out); err != nil {
		logger.Fatalf("Ошибка вывода результата: %v", err)
	}

	if result.Warning != "" {
		os.Exit(3)
	}
}

// parseLayout разбирает строку вида WxH
func parseLayout(value string) (*models.Size, error) {
	if value == "" {
		return nil, nil
	}

	parts := strings.SplitN(strings.ToLower(value), "x", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("ожидается WxH, получено %q", value)
	}

	width, err := cast.ToFloat64E(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, fmt.Errorf("ширина: %w", err)
	}
	height, err := cast.ToFloat64E(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, fmt.Errorf("высота: %w", err)
	}

	layout := &models.Size{Width: width, Height: height}
	if !layout.Valid() {
		return nil, overlay.ErrInvalidGeometry
	}
	return layout, nil
}
