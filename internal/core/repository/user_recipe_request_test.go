package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func setupRepoTest(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.VideoRecord{}, &model.Recipe{}, &model.UserRecipeRequest{}))
	return db
}

func seedUserAndRecipe(t *testing.T, db *gorm.DB) (uint, string) {
	t.Helper()

	user := &model.User{}
	require.NoError(t, db.Create(user).Error)

	recipe := &model.Recipe{YoutubeID: "vid00000001", Status: model.RecipeStatusCompleted}
	require.NoError(t, db.Create(recipe).Error)

	return user.ID, recipe.ID
}

func TestUserRecipeRequest_CreateOrUpdate_Touch(t *testing.T) {
	db := setupRepoTest(t)
	repo := NewUserRecipeRequestRepository(db)
	userID, recipeID := seedUserAndRecipe(t, db)

	first, err := repo.CreateOrUpdate(context.Background(), userID, recipeID)
	require.NoError(t, err)

	// 把時間撥回過去，驗證重複請求只推進 UpdatedAt
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&model.UserRecipeRequest{}).
		Where("id = ?", first.ID).
		Updates(map[string]interface{}{"created_at": past, "updated_at": past}).Error)

	second, err := repo.CreateOrUpdate(context.Background(), userID, recipeID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.UpdatedAt.After(past))

	var count int64
	require.NoError(t, db.Model(&model.UserRecipeRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// CreatedAt 維持最初請求時間
	stored, err := repo.FindByUserAndRecipe(context.Background(), userID, recipeID)
	require.NoError(t, err)
	assert.WithinDuration(t, past, stored.CreatedAt, time.Second)
}

func TestUserRecipeRequest_FindByUserID_OrdersByLastRequest(t *testing.T) {
	db := setupRepoTest(t)
	repo := NewUserRecipeRequestRepository(db)

	user := &model.User{}
	require.NoError(t, db.Create(user).Error)

	older := &model.Recipe{YoutubeID: "vid00000001", Status: model.RecipeStatusCompleted}
	newer := &model.Recipe{YoutubeID: "vid00000002", Status: model.RecipeStatusCompleted}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	_, err := repo.CreateOrUpdate(context.Background(), user.ID, older.ID)
	require.NoError(t, err)
	_, err = repo.CreateOrUpdate(context.Background(), user.ID, newer.ID)
	require.NoError(t, err)

	// 再次請求 older，它應排到最前
	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&model.UserRecipeRequest{}).
		Where("user_id = ?", user.ID).
		Update("updated_at", past).Error)
	_, err = repo.CreateOrUpdate(context.Background(), user.ID, older.ID)
	require.NoError(t, err)

	requests, err := repo.FindByUserID(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, older.ID, requests[0].RecipeID)
	require.NotNil(t, requests[0].Recipe)
	assert.Equal(t, "vid00000001", requests[0].Recipe.YoutubeID)
}

func TestRecipeRepository_CreateOrReread(t *testing.T) {
	db := setupRepoTest(t)
	repo := NewRecipeRepository(db)

	first, created, err := repo.CreateOrReread(context.Background(), &model.Recipe{
		YoutubeID: "vid00000001",
		Status:    model.RecipeStatusProcessing,
	})
	require.NoError(t, err)
	assert.True(t, created)

	// 同一影片再次建立時改讀既有列
	second, created, err := repo.CreateOrReread(context.Background(), &model.Recipe{
		YoutubeID: "vid00000001",
		Status:    model.RecipeStatusProcessing,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Recipe{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRecipeRepository_FindCompletedPage(t *testing.T) {
	db := setupRepoTest(t)
	repo := NewRecipeRepository(db)

	titles := []string{"김치찌개", "된장찌개", "파스타"}
	for i, title := range titles {
		require.NoError(t, db.Create(&model.Recipe{
			YoutubeID: fmt.Sprintf("vid%08d", i),
			Status:    model.RecipeStatusCompleted,
			Title:     title,
		}).Error)
	}
	// 未完成的不應出現在結果中
	require.NoError(t, db.Create(&model.Recipe{
		YoutubeID: "vid99999999",
		Status:    model.RecipeStatusProcessing,
		Title:     "김치볶음밥",
	}).Error)

	recipes, total, err := repo.FindCompletedPage(context.Background(), "찌개", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, recipes, 2)

	all, total, err := repo.FindCompletedPage(context.Background(), "", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 2)
}

func TestUserRecipeRequestRepository_FindRecentByUserID(t *testing.T) {
	db := setupRepoTest(t)
	repo := NewUserRecipeRequestRepository(db)
	userID, recipeID := seedUserAndRecipe(t, db)

	_, err := repo.CreateOrUpdate(context.Background(), userID, recipeID)
	require.NoError(t, err)

	// 舊請求不落在時間窗內
	old := &model.Recipe{YoutubeID: "vidrecent00", Status: model.RecipeStatusCompleted}
	require.NoError(t, db.Create(old).Error)
	stale := &model.UserRecipeRequest{UserID: userID, RecipeID: old.ID}
	require.NoError(t, db.Create(stale).Error)
	require.NoError(t, db.Model(stale).UpdateColumn("updated_at", time.Now().AddDate(0, 0, -30)).Error)

	recent, err := repo.FindRecentByUserID(context.Background(), userID, 7, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, recipeID, recent[0].RecipeID)
	require.NotNil(t, recent[0].Recipe)
}

func TestRecipeRepository_UpdateIfStatus(t *testing.T) {
	db := setupRepoTest(t)
	repo := NewRecipeRepository(db)

	recipe := &model.Recipe{YoutubeID: "vid00000002", Status: model.RecipeStatusFailed}
	require.NoError(t, db.Create(recipe).Error)

	values := map[string]interface{}{
		"status":        model.RecipeStatusProcessing,
		"error_message": "",
	}
	from := []model.RecipeStatus{model.RecipeStatusPending, model.RecipeStatusFailed}

	// 第一次搶到，第二次狀態已不符
	flipped, err := repo.UpdateIfStatus(context.Background(), recipe.ID, from, values)
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = repo.UpdateIfStatus(context.Background(), recipe.ID, from, values)
	require.NoError(t, err)
	assert.False(t, flipped)

	var current model.Recipe
	require.NoError(t, db.First(&current, "id = ?", recipe.ID).Error)
	assert.Equal(t, model.RecipeStatusProcessing, current.Status)
}
