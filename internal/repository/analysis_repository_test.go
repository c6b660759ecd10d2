package repository

import (
	"fmt"
	"testing"
	"time"

	"road-damage-detector/internal/database"
	"road-damage-detector/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	return db
}

func newAnalysis(createdAt time.Time, codes ...string) *model.Analysis {
	a := &model.Analysis{
		ID:          uuid.NewString(),
		SessionID:   "default",
		ImageWidth:  640,
		ImageHeight: 480,
		HasDamage:   len(codes) > 0,
		CreatedAt:   createdAt,
	}
	for i, code := range codes {
		a.Detections = append(a.Detections, model.Detection{
			X: 0.1 * float64(i), Y: 0.1, Width: 0.2, Height: 0.2,
			Score:     0.5 + 0.1*float64(i),
			ClassCode: code,
		})
	}
	return a
}

func TestCreateAndGetByID(t *testing.T) {
	repo := NewAnalysisRepository(setupDB(t))

	a := newAnalysis(time.Now(), "D40", "D00", "D20")
	require.NoError(t, repo.Create(a))

	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)

	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, 640, got.ImageWidth)
	assert.True(t, got.HasDamage)
	require.Len(t, got.Detections, 3)

	codes := []string{got.Detections[0].ClassCode, got.Detections[1].ClassCode, got.Detections[2].ClassCode}
	assert.Equal(t, []string{"D40", "D00", "D20"}, codes)
	for i, det := range got.Detections {
		assert.Equal(t, i, det.Position)
		assert.Equal(t, a.ID, det.AnalysisID)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo := NewAnalysisRepository(setupDB(t))

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirstWithPagination(t *testing.T) {
	repo := NewAnalysisRepository(setupDB(t))

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 5; i++ {
		a := newAnalysis(base.Add(time.Duration(i)*time.Minute), "D10")
		require.NoError(t, repo.Create(a))
		ids = append(ids, a.ID)
	}

	page1, total, err := repo.List(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)
	assert.Equal(t, ids[4], page1[0].ID)
	assert.Equal(t, ids[3], page1[1].ID)
	assert.Len(t, page1[0].Detections, 1)

	page3, _, err := repo.List(3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, ids[0], page3[0].ID)
}

func TestDelete(t *testing.T) {
	db := setupDB(t)
	repo := NewAnalysisRepository(db)

	a := newAnalysis(time.Now(), "D00", "D00")
	require.NoError(t, repo.Create(a))

	require.NoError(t, repo.Delete(a.ID))

	_, err := repo.GetByID(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var remaining int64
	require.NoError(t, db.Model(&model.Detection{}).Where("analysis_id = ?", a.ID).Count(&remaining).Error)
	assert.Equal(t, int64(0), remaining)

	assert.ErrorIs(t, repo.Delete(a.ID), ErrNotFound)
}

func TestMarkSuperseded(t *testing.T) {
	repo := NewAnalysisRepository(setupDB(t))

	a := newAnalysis(time.Now(), "D10")
	require.NoError(t, repo.Create(a))

	require.NoError(t, repo.MarkSuperseded(a.ID))

	got, err := repo.GetByID(a.ID)
	require.NoError(t, err)
	assert.True(t, got.Superseded)

	assert.ErrorIs(t, repo.MarkSuperseded("missing"), ErrNotFound)
}
