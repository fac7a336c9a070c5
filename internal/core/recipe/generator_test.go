package recipe

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"recipe-pipeline/internal/core/gemini"
	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/core/youtube"
	"recipe-pipeline/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const validExtraction = `{
	"basic_info": {
		"title": "김치찌개",
		"description": "돼지고기 김치찌개",
		"difficulty": "easy",
		"estimated_time": 30,
		"servings": 2
	},
	"metadata": {"categories": ["한식", "찌개"], "tags": ["매운맛"]},
	"ingredients": [{"name": "김치", "amount": "300", "unit": "g"}],
	"steps": [{"step_number": 1, "summary": "물을 끓인다", "start_time_seconds": 0, "end_time_seconds": 12.5}]
}`

// stubClient 可控制回應與阻塞的萃取模型
type stubClient struct {
	mu      sync.Mutex
	calls   int
	output  string
	err     error
	blockCh chan struct{} // 非 nil 時，呼叫會阻塞直到收到信號
}

func (s *stubClient) GenerateJSON(ctx context.Context, systemInstruction, prompt string, schema map[string]interface{}, temperature float64) (string, *gemini.Usage, error) {
	s.mu.Lock()
	s.calls++
	block := s.blockCh
	output, err := s.output, s.err
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return "", nil, err
	}
	return output, &gemini.Usage{TotalTokens: 100}, nil
}

func (s *stubClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubSource 固定回應的影片資料來源
type stubSource struct {
	noTranscript bool
}

func (s *stubSource) GetVideoInfo(ctx context.Context, videoIDOrURL string) (*youtube.VideoInfo, error) {
	return &youtube.VideoInfo{
		ID:        youtube.ExtractVideoID(videoIDOrURL),
		Title:     "김치찌개 끓이기",
		ViewCount: 1000,
		Channel:   youtube.ChannelRef{ID: "UCtest", Name: "요리채널"},
	}, nil
}

func (s *stubSource) GetChannelInfo(ctx context.Context, channelID string) (*youtube.ChannelInfo, error) {
	return &youtube.ChannelInfo{ID: channelID, Name: "요리채널", Description: "집밥 레시피"}, nil
}

func (s *stubSource) GetComments(ctx context.Context, videoID string, maxComments int) (*youtube.CommentsData, error) {
	return &youtube.CommentsData{
		VideoID:       videoID,
		TotalComments: 1,
		Comments:      []model.Comment{{ID: "c1", Content: "맛있어요"}},
	}, nil
}

func (s *stubSource) GetTranscript(ctx context.Context, videoID, language string) (*youtube.TranscriptData, error) {
	if s.noTranscript {
		return &youtube.TranscriptData{VideoID: videoID, Segments: []model.TranscriptSegment{}}, nil
	}
	return &youtube.TranscriptData{
		VideoID:  videoID,
		Language: language,
		Segments: []model.TranscriptSegment{
			{Text: "물을 끓입니다", StartMs: 0, EndMs: 3000},
			{Text: "김치를 넣습니다", StartMs: 3000, EndMs: 7500},
		},
	}, nil
}

func (s *stubSource) SearchVideos(ctx context.Context, query string, limit int) ([]youtube.SearchResult, error) {
	return nil, nil
}

type testEnv struct {
	generator   *Generator
	client      *stubClient
	recipeRepo  *repository.RecipeRepository
	requestRepo *repository.UserRecipeRequestRepository
	db          *gorm.DB
}

func setupGeneratorTest(t *testing.T, source youtube.DataSource, client *stubClient) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.User{}, &model.VideoRecord{}, &model.Recipe{}, &model.UserRecipeRequest{}))

	cfg := &config.Config{
		Youtube: config.YoutubeConfig{MaxComments: 20, Language: "ko"},
		Cache:   config.CacheConfig{Enabled: false},
	}

	videoRepo := repository.NewVideoRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	requestRepo := repository.NewUserRecipeRequestRepository(db)

	cache, err := NewExtractionCache(&cfg.Cache)
	require.NoError(t, err)

	prompt := &gemini.PromptTemplate{
		SystemInstruction: "從字幕萃取食譜",
		UserTemplate:      "標題：{{title}}\n字幕：\n{{transcript}}",
		Temperature:       0.2,
	}

	videoSvc := youtube.NewService(videoRepo, source, cfg)
	generator := NewGenerator(recipeRepo, requestRepo, videoSvc, client, cache, prompt, cfg)

	return &testEnv{
		generator:   generator,
		client:      client,
		recipeRepo:  recipeRepo,
		requestRepo: requestRepo,
		db:          db,
	}
}

func TestGenerateRecipe_Success(t *testing.T) {
	env := setupGeneratorTest(t, &stubSource{}, &stubClient{output: validExtraction})

	recipe, err := env.generator.GenerateRecipe(context.Background(), "https://www.youtube.com/watch?v=vid00000001", 0)
	require.NoError(t, err)

	// 請求立即回傳 processing 狀態
	assert.Equal(t, model.RecipeStatusProcessing, recipe.Status)
	assert.Equal(t, "vid00000001", recipe.YoutubeID)

	env.generator.Wait()

	saved, err := env.recipeRepo.FindByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, model.RecipeStatusCompleted, saved.Status)
	assert.Equal(t, "김치찌개", saved.Title)
	assert.Equal(t, []string{"한식", "찌개"}, saved.Categories)
	require.Len(t, saved.Ingredients, 1)
	assert.Equal(t, "김치", saved.Ingredients[0].Name)
	require.Len(t, saved.Steps, 1)
	assert.Equal(t, 1, saved.Steps[0].StepNumber)
	assert.Equal(t, 12.5, saved.Steps[0].EndTimeSeconds)
	assert.Empty(t, saved.ErrorMessage)
}

func TestGenerateRecipe_EmptyTranscriptFails(t *testing.T) {
	env := setupGeneratorTest(t, &stubSource{noTranscript: true}, &stubClient{output: validExtraction})

	recipe, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)

	env.generator.Wait()

	saved, err := env.recipeRepo.FindByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecipeStatusFailed, saved.Status)
	assert.NotEmpty(t, saved.ErrorMessage)

	// 模型不應被呼叫
	assert.Equal(t, 0, env.client.callCount())
}

func TestGenerateRecipe_ProcessingIsIdempotent(t *testing.T) {
	client := &stubClient{output: validExtraction, blockCh: make(chan struct{})}
	env := setupGeneratorTest(t, &stubSource{}, client)

	first, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	assert.Equal(t, model.RecipeStatusProcessing, first.Status)

	// 新工作一建立就是 processing，資料庫不會出現 pending 的中間狀態
	stored, err := env.recipeRepo.FindByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecipeStatusProcessing, stored.Status)

	// 生成進行中，重複請求直接回傳現有工作，不再啟動新流程
	second, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.RecipeStatusProcessing, second.Status)

	close(client.blockCh)
	env.generator.Wait()

	assert.Equal(t, 1, client.callCount())
}

func TestGenerateRecipe_CompletedIsTerminal(t *testing.T) {
	env := setupGeneratorTest(t, &stubSource{}, &stubClient{output: validExtraction})

	first, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	env.generator.Wait()

	// 已完成的工作直接回傳，不重新生成
	second, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.RecipeStatusCompleted, second.Status)
	assert.Equal(t, 1, env.client.callCount())
}

func TestGenerateRecipe_FailedCanRetry(t *testing.T) {
	client := &stubClient{err: fmt.Errorf("model overloaded")}
	env := setupGeneratorTest(t, &stubSource{}, client)

	recipe, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	env.generator.Wait()

	failed, err := env.recipeRepo.FindByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecipeStatusFailed, failed.Status)
	assert.Contains(t, failed.ErrorMessage, "model overloaded")

	// 模型恢復後重新請求，工作回到 processing 並成功完成
	client.mu.Lock()
	client.err = nil
	client.output = validExtraction
	client.mu.Unlock()

	retried, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, retried.ID)
	assert.Equal(t, model.RecipeStatusProcessing, retried.Status)
	assert.Empty(t, retried.ErrorMessage)

	env.generator.Wait()

	completed, err := env.recipeRepo.FindByID(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RecipeStatusCompleted, completed.Status)
	assert.Empty(t, completed.ErrorMessage)
}

func TestGenerateRecipe_RecordsRequestHistory(t *testing.T) {
	env := setupGeneratorTest(t, &stubSource{}, &stubClient{output: validExtraction})

	user := &model.User{}
	require.NoError(t, env.db.Create(user).Error)

	recipe, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", user.ID)
	require.NoError(t, err)
	env.generator.Wait()

	request, err := env.requestRepo.FindByUserAndRecipe(context.Background(), user.ID, recipe.ID)
	require.NoError(t, err)
	require.NotNil(t, request)

	// 重複請求不產生新紀錄
	_, err = env.generator.GenerateRecipe(context.Background(), "vid00000001", user.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, env.db.Model(&model.UserRecipeRequest{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGenerateRecipe_AnonymousSkipsHistory(t *testing.T) {
	env := setupGeneratorTest(t, &stubSource{}, &stubClient{output: validExtraction})

	_, err := env.generator.GenerateRecipe(context.Background(), "vid00000001", 0)
	require.NoError(t, err)
	env.generator.Wait()

	var count int64
	require.NoError(t, env.db.Model(&model.UserRecipeRequest{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
