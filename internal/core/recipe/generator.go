package recipe

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"recipe-pipeline/internal/core/gemini"
	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/core/youtube"
	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// 單次生成流程的時間上限，背景協程使用獨立的 context
const pipelineTimeout = 5 * time.Minute

// 提示詞中最多帶入的留言數
const promptMaxComments = 20

// 未設定時的並行生成流程上限
const defaultMaxConcurrent = 4

// ExtractionClient 萃取模型客戶端
type ExtractionClient interface {
	GenerateJSON(ctx context.Context, systemInstruction, prompt string, schema map[string]interface{}, temperature float64) (string, *gemini.Usage, error)
}

// Generator 食譜生成協調器
// 請求進來時立即回傳工作狀態，實際生成流程在背景協程執行
type Generator struct {
	recipeRepo  *repository.RecipeRepository
	requestRepo *repository.UserRecipeRequestRepository
	videoSvc    *youtube.Service
	client      ExtractionClient
	cache       *ExtractionCache
	prompt      *gemini.PromptTemplate
	cfg         *config.Config

	// 限制同時執行的生成流程數量，避免模型呼叫過載
	sem chan struct{}

	// 追蹤進行中的背景協程，關機時等待全部結束
	wg sync.WaitGroup
}

// NewGenerator 創建食譜生成協調器
func NewGenerator(
	recipeRepo *repository.RecipeRepository,
	requestRepo *repository.UserRecipeRequestRepository,
	videoSvc *youtube.Service,
	client ExtractionClient,
	cache *ExtractionCache,
	prompt *gemini.PromptTemplate,
	cfg *config.Config,
) *Generator {
	maxConcurrent := cfg.Pipeline.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Generator{
		recipeRepo:  recipeRepo,
		requestRepo: requestRepo,
		videoSvc:    videoSvc,
		client:      client,
		cache:       cache,
		prompt:      prompt,
		cfg:         cfg,
		sem:         make(chan struct{}, maxConcurrent),
	}
}

// GenerateRecipe 請求生成影片的食譜
// 同一部影片永遠只有一筆工作：進行中或已完成時直接回傳現有工作，
// 失敗的工作會重新進入 processing 再跑一次流程
// userID 為 0 時代表匿名請求，不記錄請求歷史
func (g *Generator) GenerateRecipe(ctx context.Context, videoIDOrURL string, userID uint) (*model.Recipe, error) {
	videoID := youtube.ExtractVideoID(videoIDOrURL)

	recipe, err := g.recipeRepo.FindByYoutubeID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}

	if recipe == nil {
		// 新工作直接以 processing 建立，不經過中間狀態；
		// 唯一約束輸掉競爭的一方改讀贏家的列，不再啟動流程
		created, won, err := g.recipeRepo.CreateOrReread(ctx, &model.Recipe{
			YoutubeID: videoID,
			Status:    model.RecipeStatusProcessing,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create recipe: %w", err)
		}
		recipe = created
		g.recordRequest(ctx, userID, recipe.ID)
		if won {
			g.spawnPipeline(ctx, recipe.ID, videoIDOrURL)
		}
		return recipe, nil
	}

	g.recordRequest(ctx, userID, recipe.ID)

	switch recipe.Status {
	case model.RecipeStatusProcessing, model.RecipeStatusCompleted:
		// 生成中或已完成，直接回傳現況
		return recipe, nil

	case model.RecipeStatusPending, model.RecipeStatusFailed:
		values := map[string]interface{}{
			"status":        model.RecipeStatusProcessing,
			"error_message": "",
		}
		flipped, err := g.recipeRepo.UpdateIfStatus(ctx, recipe.ID,
			[]model.RecipeStatus{model.RecipeStatusPending, model.RecipeStatusFailed}, values)
		if err != nil {
			return nil, fmt.Errorf("failed to update recipe status: %w", err)
		}
		if !flipped {
			// 另一個請求先搶到了，回傳目前的狀態
			current, err := g.recipeRepo.FindByID(ctx, recipe.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to query recipe: %w", err)
			}
			if current == nil {
				return nil, common.ErrRecipeNotFound
			}
			return current, nil
		}
		recipe.Status = model.RecipeStatusProcessing
		recipe.ErrorMessage = ""

		g.spawnPipeline(ctx, recipe.ID, videoIDOrURL)
		return recipe, nil

	default:
		return nil, fmt.Errorf("unexpected recipe status: %s", recipe.Status)
	}
}

// recordRequest 記錄使用者的請求歷史
// 記錄失敗不影響生成流程
func (g *Generator) recordRequest(ctx context.Context, userID uint, recipeID string) {
	if userID == 0 {
		return
	}
	if _, err := g.requestRepo.CreateOrUpdate(ctx, userID, recipeID); err != nil {
		common.LogWarn("記錄請求歷史失敗",
			zap.Uint("user_id", userID),
			zap.String("recipe_id", recipeID),
			zap.Error(err))
	}
}

// spawnPipeline 在背景協程執行生成流程
// 使用獨立的 context，不因請求結束而中斷
func (g *Generator) spawnPipeline(ctx context.Context, recipeID, videoIDOrURL string) {
	requestID := common.GetRequestID(ctx)

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		// 名額滿時在背景排隊，不阻塞請求協程
		g.sem <- struct{}{}
		defer func() { <-g.sem }()

		pipelineCtx, cancel := context.WithTimeout(context.Background(), pipelineTimeout)
		defer cancel()
		pipelineCtx = common.WithRequestID(pipelineCtx, requestID)

		if err := g.runPipeline(pipelineCtx, recipeID, videoIDOrURL); err != nil {
			g.markFailed(pipelineCtx, recipeID, err)
		}
	}()
}

// runPipeline 執行生成流程：收集影片資料、萃取食譜、寫回結果
func (g *Generator) runPipeline(ctx context.Context, recipeID, videoIDOrURL string) error {
	start := time.Now()
	common.LogInfo("開始生成食譜",
		zap.String("recipe_id", recipeID),
		zap.String("video", videoIDOrURL))

	video, err := g.videoSvc.GetComprehensiveVideoData(ctx, videoIDOrURL, 0, "")
	if err != nil {
		return err
	}
	if !video.HasTranscript() {
		return common.ErrEmptyTranscript
	}

	transcript := formatTranscript(video.TranscriptSegments)

	result, err := g.extract(ctx, video, transcript)
	if err != nil {
		return err
	}

	values, err := result.updateValues()
	if err != nil {
		return err
	}
	if err := g.recipeRepo.Update(ctx, recipeID, values); err != nil {
		return fmt.Errorf("failed to save recipe result: %w", err)
	}

	common.LogInfo("食譜生成完成",
		zap.String("recipe_id", recipeID),
		zap.String("title", result.BasicInfo.Title),
		zap.Duration("耗時", time.Since(start)))
	return nil
}

// extract 取得萃取結果，優先使用緩存
func (g *Generator) extract(ctx context.Context, video *model.VideoRecord, transcript string) (*extractionResult, error) {
	if cached, err := g.cache.Get(ctx, transcript); err == nil {
		return cached, nil
	}

	prompt := g.prompt.Render(gemini.PromptInput{
		Title:       video.Title,
		Description: video.Description,
		Transcript:  transcript,
		Comments:    formatComments(video.Comments),
	})

	raw, _, err := g.client.GenerateJSON(ctx, g.prompt.SystemInstruction, prompt, g.prompt.ResponseSchema, g.prompt.Temperature)
	if err != nil {
		return nil, err
	}

	result, err := parseExtraction(raw)
	if err != nil {
		return nil, err
	}

	if err := g.cache.Set(ctx, transcript, result); err != nil {
		common.LogWarn("寫入萃取結果緩存失敗", zap.Error(err))
	}
	return result, nil
}

// markFailed 將工作標記為失敗並保留錯誤訊息
func (g *Generator) markFailed(ctx context.Context, recipeID string, cause error) {
	common.LogError("食譜生成失敗",
		zap.String("recipe_id", recipeID),
		zap.Error(cause))

	values := map[string]interface{}{
		"status":        model.RecipeStatusFailed,
		"error_message": cause.Error(),
	}
	if err := g.recipeRepo.Update(ctx, recipeID, values); err != nil {
		common.LogError("無法更新失敗狀態",
			zap.String("recipe_id", recipeID),
			zap.Error(err))
	}
}

// GetRecipe 以影片 ID 或網址查詢食譜工作
func (g *Generator) GetRecipe(ctx context.Context, videoIDOrURL string) (*model.Recipe, error) {
	videoID := youtube.ExtractVideoID(videoIDOrURL)

	recipe, err := g.recipeRepo.FindByYoutubeID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}
	if recipe == nil {
		return nil, common.ErrRecipeNotFound
	}
	return recipe, nil
}

// GetRecipeByID 以食譜 ID 查詢
func (g *Generator) GetRecipeByID(ctx context.Context, id string) (*model.Recipe, error) {
	recipe, err := g.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipe: %w", err)
	}
	if recipe == nil {
		return nil, common.ErrRecipeNotFound
	}
	return recipe, nil
}

// DeleteRecipe 刪除食譜工作
func (g *Generator) DeleteRecipe(ctx context.Context, id string) error {
	recipe, err := g.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to query recipe: %w", err)
	}
	if recipe == nil {
		return common.ErrRecipeNotFound
	}
	return g.recipeRepo.Delete(ctx, id)
}

// Wait 等待所有背景生成流程結束，關機時呼叫
func (g *Generator) Wait() {
	g.wg.Wait()
}

// formatComments 將留言整理成提示詞用的文字
func formatComments(comments []model.Comment) string {
	var b strings.Builder
	for i, comment := range comments {
		if i >= promptMaxComments {
			break
		}
		text := strings.TrimSpace(comment.Content)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", text)
	}
	return strings.TrimSpace(b.String())
}
