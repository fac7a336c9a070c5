package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
)

const (
	searchDefaultPageSize = 10
	searchMaxPageSize     = 50
	keywordPool           = 100
	keywordLimit          = 10
)

// SearchItem 搜尋結果項目，附上影片的縮圖、頻道與觀看數
type SearchItem struct {
	model.Recipe
	Thumbnail   string `json:"thumbnail,omitempty"`
	ChannelName string `json:"channelName,omitempty"`
	ViewCount   *int64 `json:"viewCount,omitempty"`
}

// SearchPage 搜尋結果分頁
type SearchPage struct {
	Recipes    []SearchItem `json:"recipes"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

// Searcher 食譜搜尋服務
// 只搜尋已完成的食譜
type Searcher struct {
	recipeRepo *repository.RecipeRepository
	videoRepo  *repository.VideoRepository
}

// NewSearcher 創建食譜搜尋服務
func NewSearcher(recipeRepo *repository.RecipeRepository, videoRepo *repository.VideoRepository) *Searcher {
	return &Searcher{recipeRepo: recipeRepo, videoRepo: videoRepo}
}

// SearchRecipes 以關鍵字搜尋食譜，keyword 為空時回傳全部已完成的食譜
func (s *Searcher) SearchRecipes(ctx context.Context, keyword string, page, pageSize int) (*SearchPage, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > searchMaxPageSize {
		pageSize = searchDefaultPageSize
	}

	offset := (page - 1) * pageSize
	recipes, total, err := s.recipeRepo.FindCompletedPage(ctx, strings.TrimSpace(keyword), offset, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}

	items, err := s.joinVideoData(ctx, recipes)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &SearchPage{
		Recipes:    items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// joinVideoData 將搜尋結果與影片緩存中的縮圖、頻道與觀看數合併
// 影片紀錄不存在時只回傳食譜欄位
func (s *Searcher) joinVideoData(ctx context.Context, recipes []model.Recipe) ([]SearchItem, error) {
	items := make([]SearchItem, 0, len(recipes))
	if len(recipes) == 0 {
		return items, nil
	}

	videoIDs := make([]string, 0, len(recipes))
	for _, recipe := range recipes {
		videoIDs = append(videoIDs, recipe.YoutubeID)
	}

	records, err := s.videoRepo.FindByVideoIDs(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query video records: %w", err)
	}
	byVideoID := make(map[string]*model.VideoRecord, len(records))
	for i := range records {
		byVideoID[records[i].VideoID] = &records[i]
	}

	for _, recipe := range recipes {
		item := SearchItem{Recipe: recipe}
		if record, ok := byVideoID[recipe.YoutubeID]; ok {
			item.ChannelName = record.ChannelName
			item.ViewCount = record.ViewCount
			if len(record.Thumbnails) > 0 {
				// 最後一張解析度最高
				item.Thumbnail = record.Thumbnails[len(record.Thumbnails)-1].URL
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// GetPopularKeywords 熱門關鍵字
// 統計最新完成食譜的類別與標籤出現頻率
func (s *Searcher) GetPopularKeywords(ctx context.Context) ([]string, error) {
	counts, err := s.keywordCounts(ctx)
	if err != nil {
		return nil, err
	}

	type entry struct {
		keyword string
		count   int
	}
	entries := make([]entry, 0, len(counts))
	for keyword, count := range counts {
		entries = append(entries, entry{keyword, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].keyword < entries[j].keyword
	})

	limit := keywordLimit
	if len(entries) < limit {
		limit = len(entries)
	}
	keywords := make([]string, 0, limit)
	for _, e := range entries[:limit] {
		keywords = append(keywords, e.keyword)
	}
	return keywords, nil
}

// SuggestKeywords 依輸入前綴建議關鍵字
func (s *Searcher) SuggestKeywords(ctx context.Context, prefix string) ([]string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return s.GetPopularKeywords(ctx)
	}

	counts, err := s.keywordCounts(ctx)
	if err != nil {
		return nil, err
	}

	var matched []string
	for keyword := range counts {
		if strings.HasPrefix(keyword, prefix) {
			matched = append(matched, keyword)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if counts[matched[i]] != counts[matched[j]] {
			return counts[matched[i]] > counts[matched[j]]
		}
		return matched[i] < matched[j]
	})

	if len(matched) > keywordLimit {
		matched = matched[:keywordLimit]
	}
	return matched, nil
}

// keywordCounts 統計最新完成食譜的類別與標籤
func (s *Searcher) keywordCounts(ctx context.Context) (map[string]int, error) {
	recipes, err := s.recipeRepo.FindCompleted(ctx, keywordPool)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed recipes: %w", err)
	}

	counts := make(map[string]int)
	for _, recipe := range recipes {
		for _, category := range recipe.Categories {
			if category != "" {
				counts[category]++
			}
		}
		for _, tag := range recipe.Tags {
			if tag != "" {
				counts[tag]++
			}
		}
	}
	return counts, nil
}
