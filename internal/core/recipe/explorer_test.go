package recipe

import (
	"context"
	"fmt"
	"testing"
	"time"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupExplorerTest(t *testing.T) (*Explorer, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.VideoRecord{}, &model.Recipe{}, &model.UserRecipeRequest{}))

	explorer := NewExplorer(
		repository.NewRecipeRepository(db),
		repository.NewUserRecipeRequestRepository(db),
		repository.NewVideoRepository(db),
	)
	return explorer, db
}

func seedCompletedRecipe(t *testing.T, db *gorm.DB, youtubeID string, categories []string, createdAt time.Time) *model.Recipe {
	t.Helper()

	recipe := &model.Recipe{
		YoutubeID:  youtubeID,
		Status:     model.RecipeStatusCompleted,
		Title:      "食譜 " + youtubeID,
		Categories: categories,
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(recipe).Error)
	return recipe
}

func seedVideoRecord(t *testing.T, db *gorm.DB, videoID string, viewCount int64) {
	t.Helper()

	record := &model.VideoRecord{VideoID: videoID, ViewCount: &viewCount}
	require.NoError(t, db.Create(record).Error)
}

func seedRequest(t *testing.T, db *gorm.DB, userID uint, recipeID string) {
	t.Helper()
	require.NoError(t, db.Create(&model.UserRecipeRequest{UserID: userID, RecipeID: recipeID}).Error)
}

func TestExploreRecipes_AnonymousFallsBackToNewest(t *testing.T) {
	explorer, db := setupExplorerTest(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedCompletedRecipe(t, db, fmt.Sprintf("vid%08d", i), []string{"한식"}, base.Add(time.Duration(i)*time.Minute))
	}

	result, err := explorer.ExploreRecipes(context.Background(), 0)
	require.NoError(t, err)

	assert.Empty(t, result.Requested)
	require.Len(t, result.Recommended, 3)
	// 無歷史時推薦清單退回最新完成的食譜
	assert.Equal(t, "vid00000002", result.Recommended[0].YoutubeID)
}

func TestExploreRecipes_RecommendsByCategoryOverlap(t *testing.T) {
	explorer, db := setupExplorerTest(t)

	user := &model.User{}
	require.NoError(t, db.Create(user).Error)

	base := time.Now().Add(-time.Hour)
	requested := seedCompletedRecipe(t, db, "vid00000000", []string{"한식", "찌개"}, base)
	korean := seedCompletedRecipe(t, db, "vid00000001", []string{"한식"}, base.Add(time.Minute))
	western := seedCompletedRecipe(t, db, "vid00000002", []string{"양식"}, base.Add(2*time.Minute))
	stew := seedCompletedRecipe(t, db, "vid00000003", []string{"한식", "찌개"}, base.Add(3*time.Minute))

	seedRequest(t, db, user.ID, requested.ID)

	result, err := explorer.ExploreRecipes(context.Background(), user.ID)
	require.NoError(t, err)

	require.Len(t, result.Requested, 1)
	assert.Equal(t, requested.ID, result.Requested[0].ID)

	// 重疊兩個類別的排最前，已請求過的不出現，無重疊的不入選
	require.Len(t, result.Recommended, 2)
	assert.Equal(t, stew.ID, result.Recommended[0].ID)
	assert.Equal(t, korean.ID, result.Recommended[1].ID)
	for _, recommended := range result.Recommended {
		assert.NotEqual(t, western.ID, recommended.ID)
		assert.NotEqual(t, requested.ID, recommended.ID)
	}
}

func TestExploreRecipes_RequestedFiltersDeletedRecipes(t *testing.T) {
	explorer, db := setupExplorerTest(t)

	user := &model.User{}
	require.NoError(t, db.Create(user).Error)

	base := time.Now().Add(-time.Hour)
	kept := seedCompletedRecipe(t, db, "vid00000001", nil, base)
	deleted := seedCompletedRecipe(t, db, "vid00000002", nil, base.Add(time.Minute))

	seedRequest(t, db, user.ID, kept.ID)
	seedRequest(t, db, user.ID, deleted.ID)

	require.NoError(t, db.Delete(&model.Recipe{}, "id = ?", deleted.ID).Error)

	result, err := explorer.ExploreRecipes(context.Background(), user.ID)
	require.NoError(t, err)

	require.Len(t, result.Requested, 1)
	assert.Equal(t, kept.ID, result.Requested[0].ID)
}

func TestExploreRecipes_TrendingOrdersByViewCount(t *testing.T) {
	explorer, db := setupExplorerTest(t)

	base := time.Now().Add(-time.Hour)
	low := seedCompletedRecipe(t, db, "vid00000001", nil, base.Add(2*time.Minute))
	high := seedCompletedRecipe(t, db, "vid00000002", nil, base)
	mid := seedCompletedRecipe(t, db, "vid00000003", nil, base.Add(time.Minute))

	seedVideoRecord(t, db, "vid00000001", 100)
	seedVideoRecord(t, db, "vid00000002", 99999)
	seedVideoRecord(t, db, "vid00000003", 5000)

	result, err := explorer.ExploreRecipes(context.Background(), 0)
	require.NoError(t, err)

	require.Len(t, result.Trending, 3)
	assert.Equal(t, high.ID, result.Trending[0].ID)
	assert.Equal(t, mid.ID, result.Trending[1].ID)
	assert.Equal(t, low.ID, result.Trending[2].ID)
}

func TestExploreRecipes_OverlapIgnoresCategoryFrequency(t *testing.T) {
	explorer, db := setupExplorerTest(t)

	user := &model.User{}
	require.NoError(t, db.Create(user).Error)

	// 歷史中「한식」出現兩次，重疊數仍以類別集合計算
	base := time.Now().Add(-time.Hour)
	reqA := seedCompletedRecipe(t, db, "vid00000000", []string{"한식"}, base)
	reqB := seedCompletedRecipe(t, db, "vid00000001", []string{"한식", "국물", "찌개"}, base.Add(time.Minute))
	single := seedCompletedRecipe(t, db, "vid00000002", []string{"한식"}, base.Add(2*time.Minute))
	double := seedCompletedRecipe(t, db, "vid00000003", []string{"국물", "찌개"}, base.Add(3*time.Minute))

	seedRequest(t, db, user.ID, reqA.ID)
	seedRequest(t, db, user.ID, reqB.ID)

	result, err := explorer.ExploreRecipes(context.Background(), user.ID)
	require.NoError(t, err)

	require.Len(t, result.Recommended, 2)
	assert.Equal(t, double.ID, result.Recommended[0].ID)
	assert.Equal(t, single.ID, result.Recommended[1].ID)
}

func TestExploreRecipes_NoOverlapYieldsEmptyRecommended(t *testing.T) {
	explorer, db := setupExplorerTest(t)

	user := &model.User{}
	require.NoError(t, db.Create(user).Error)

	base := time.Now().Add(-time.Hour)
	requested := seedCompletedRecipe(t, db, "vid00000000", []string{"한식"}, base)
	seedCompletedRecipe(t, db, "vid00000001", []string{"양식"}, base.Add(time.Minute))

	seedRequest(t, db, user.ID, requested.ID)

	result, err := explorer.ExploreRecipes(context.Background(), user.ID)
	require.NoError(t, err)

	// 歷史有類別訊號但無重疊時不退回最新清單
	assert.Empty(t, result.Recommended)
}
