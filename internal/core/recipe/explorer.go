package recipe

import (
	"context"
	"fmt"
	"sort"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
)

const (
	exploreRequestedLimit   = 20
	exploreRecommendedLimit = 10
	exploreCandidatePool    = 100
	exploreTrendingPool     = 50
	exploreTrendingLimit    = 10
)

// ExploreResult 探索頁面的三個清單
type ExploreResult struct {
	Requested   []model.Recipe `json:"requested"`
	Recommended []model.Recipe `json:"recommended"`
	Trending    []model.Recipe `json:"trending"`
}

// Explorer 食譜探索服務
// 組合使用者請求過的食譜、依類別推薦的食譜與熱門食譜
type Explorer struct {
	recipeRepo  *repository.RecipeRepository
	requestRepo *repository.UserRecipeRequestRepository
	videoRepo   *repository.VideoRepository
}

// NewExplorer 創建食譜探索服務
func NewExplorer(
	recipeRepo *repository.RecipeRepository,
	requestRepo *repository.UserRecipeRequestRepository,
	videoRepo *repository.VideoRepository,
) *Explorer {
	return &Explorer{
		recipeRepo:  recipeRepo,
		requestRepo: requestRepo,
		videoRepo:   videoRepo,
	}
}

// ExploreRecipes 取得探索頁面內容
// userID 為 0 時 requested 為空、recommended 退回最新完成的食譜
func (e *Explorer) ExploreRecipes(ctx context.Context, userID uint) (*ExploreResult, error) {
	requested, err := e.requestedRecipes(ctx, userID)
	if err != nil {
		return nil, err
	}

	recommended, err := e.recommendedRecipes(ctx, requested)
	if err != nil {
		return nil, err
	}

	trending, err := e.trendingRecipes(ctx)
	if err != nil {
		return nil, err
	}

	return &ExploreResult{
		Requested:   requested,
		Recommended: recommended,
		Trending:    trending,
	}, nil
}

// requestedRecipes 使用者請求過的食譜，依最近請求時間排序
// 食譜已被刪除的請求紀錄會被濾掉
func (e *Explorer) requestedRecipes(ctx context.Context, userID uint) ([]model.Recipe, error) {
	if userID == 0 {
		return []model.Recipe{}, nil
	}

	requests, err := e.requestRepo.FindByUserID(ctx, userID, exploreRequestedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to query request history: %w", err)
	}

	recipes := make([]model.Recipe, 0, len(requests))
	for _, req := range requests {
		if req.Recipe == nil {
			continue
		}
		recipes = append(recipes, *req.Recipe)
	}
	return recipes, nil
}

// recommendedRecipes 依類別重疊數推薦
// 從最新完成的食譜中挑出與使用者請求過的類別重疊最多的；
// 歷史中完全沒有類別訊號時才退回最新完成的食譜
func (e *Explorer) recommendedRecipes(ctx context.Context, requested []model.Recipe) ([]model.Recipe, error) {
	candidates, err := e.recipeRepo.FindCompleted(ctx, exploreCandidatePool)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed recipes: %w", err)
	}

	requestedIDs := make(map[string]bool, len(requested))
	requestedCategories := make(map[string]bool)
	for _, recipe := range requested {
		requestedIDs[recipe.ID] = true
		for _, category := range recipe.Categories {
			requestedCategories[category] = true
		}
	}

	if len(requestedCategories) == 0 {
		var fallback []model.Recipe
		for _, candidate := range candidates {
			if requestedIDs[candidate.ID] {
				continue
			}
			fallback = append(fallback, candidate)
			if len(fallback) == exploreRecommendedLimit {
				break
			}
		}
		return fallback, nil
	}

	type scored struct {
		recipe model.Recipe
		score  int
	}

	var matches []scored
	for _, candidate := range candidates {
		if requestedIDs[candidate.ID] {
			continue
		}

		// 重疊數採集合語意，同一類別在歷史中出現幾次不影響分數
		score := 0
		for _, category := range candidate.Categories {
			if requestedCategories[category] {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{recipe: candidate, score: score})
		}
	}

	if len(matches) == 0 {
		return []model.Recipe{}, nil
	}

	// 同分時維持原本由新到舊的順序
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	limit := exploreRecommendedLimit
	if len(matches) < limit {
		limit = len(matches)
	}
	recommended := make([]model.Recipe, 0, limit)
	for _, match := range matches[:limit] {
		recommended = append(recommended, match.recipe)
	}
	return recommended, nil
}

// trendingRecipes 熱門食譜
func (e *Explorer) trendingRecipes(ctx context.Context) ([]model.Recipe, error) {
	return e.popularByViewCount(ctx, exploreTrendingLimit)
}

// GetPopularRecipes 取得熱門食譜，依影片觀看數排序
func (e *Explorer) GetPopularRecipes(ctx context.Context, limit int) ([]model.Recipe, error) {
	if limit <= 0 || limit > exploreTrendingPool {
		limit = exploreTrendingLimit
	}
	return e.popularByViewCount(ctx, limit)
}

// popularByViewCount 取最新完成的一批食譜，再依影片觀看數由高到低重新排序
func (e *Explorer) popularByViewCount(ctx context.Context, limit int) ([]model.Recipe, error) {
	recipes, err := e.recipeRepo.FindCompleted(ctx, exploreTrendingPool)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed recipes: %w", err)
	}
	if len(recipes) == 0 {
		return []model.Recipe{}, nil
	}

	videoIDs := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		videoIDs = append(videoIDs, recipe.YoutubeID)
	}

	records, err := e.videoRepo.FindByVideoIDs(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query video records: %w", err)
	}

	viewCounts := make(map[string]int64, len(records))
	for _, record := range records {
		if record.ViewCount != nil {
			viewCounts[record.VideoID] = *record.ViewCount
		}
	}

	sort.SliceStable(recipes, func(i, j int) bool {
		return viewCounts[recipes[i].YoutubeID] > viewCounts[recipes[j].YoutubeID]
	})

	if len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

// GetUserRequestHistory 使用者的請求歷史，依最近請求時間排序
func (e *Explorer) GetUserRequestHistory(ctx context.Context, userID uint, limit int) ([]model.UserRecipeRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = exploreRequestedLimit
	}
	return e.requestRepo.FindByUserID(ctx, userID, limit)
}
