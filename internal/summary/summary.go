package summary

import (
	"math"
	"sort"
	"strconv"

	"road-damage-detector/pkg/models"
)

// UnknownCode ключ группы для детекций без кода и без ID класса
const UnknownCode = "unknown"

// Summarize группирует детекции по коду класса и сортирует группы по
// максимальному score по убыванию. При равном maxScore сохраняется порядок
// первого появления группы.
func Summarize(detections []models.DetectionBox) []models.DamageSummaryEntry {
	entries := make([]models.DamageSummaryEntry, 0)
	index := make(map[string]int)

	for _, det := range detections {
		code := groupKey(det)

		i, ok := index[code]
		if !ok {
			i = len(entries)
			index[code] = i
			entries = append(entries, models.DamageSummaryEntry{Code: code})
		}

		entry := &entries[i]
		if entry.Name == "" {
			entry.Name = det.ClassName
		}
		entry.Count++

		score := det.Score
		if math.IsNaN(score) || math.IsInf(score, 0) {
			score = 0
		}
		if score > entry.MaxScore {
			entry.MaxScore = score
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].MaxScore > entries[b].MaxScore
	})

	return entries
}

// groupKey код класса, иначе ID класса строкой, иначе "unknown"
func groupKey(det models.DetectionBox) string {
	if det.ClassCode != "" {
		return det.ClassCode
	}
	if det.ClassID >= 0 {
		return strconv.Itoa(det.ClassID)
	}
	return UnknownCode
}
