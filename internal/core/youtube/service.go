package youtube

import (
	"context"
	"fmt"
	"sync"
	"time"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 影片資料服務
// 以資料庫為快取層：已完整的紀錄直接回傳，不完整的紀錄只補收集缺少的分類
type Service struct {
	videoRepo *repository.VideoRepository
	source    DataSource
	cfg       *config.Config
}

// NewService 創建影片資料服務
func NewService(videoRepo *repository.VideoRepository, source DataSource, cfg *config.Config) *Service {
	return &Service{
		videoRepo: videoRepo,
		source:    source,
		cfg:       cfg,
	}
}

// GetComprehensiveVideoData 取得影片完整資料
// 快取命中且資料完整時直接回傳，否則收集缺少的部分後更新快取
// maxComments 與 language 未指定時使用設定檔的預設值
func (s *Service) GetComprehensiveVideoData(ctx context.Context, videoIDOrURL string, maxComments int, language string) (*model.VideoRecord, error) {
	videoID := ExtractVideoID(videoIDOrURL)
	if maxComments <= 0 {
		maxComments = s.cfg.Youtube.MaxComments
	}
	if language == "" {
		language = s.cfg.Youtube.Language
	}

	record, err := s.videoRepo.FindByVideoID(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query video record: %w", err)
	}

	if record != nil {
		if record.IsComplete() {
			common.LogDebug("影片資料快取命中",
				zap.String("video_id", videoID))
			return record, nil
		}
		return s.fillMissingData(ctx, record, maxComments, language)
	}

	return s.collectVideoData(ctx, videoID, videoIDOrURL, maxComments, language)
}

// collectVideoData 收集新影片的全部資料並建立快取紀錄
// 基本資訊取得失敗視為致命錯誤，其餘分類失敗時以空值代替
func (s *Service) collectVideoData(ctx context.Context, videoID, videoIDOrURL string, maxComments int, language string) (*model.VideoRecord, error) {
	common.LogInfo("開始收集影片資料", zap.String("video_id", videoID))

	now := time.Now()
	record := &model.VideoRecord{
		VideoID:     videoID,
		VideoURL:    videoIDOrURL,
		CollectedAt: now,
		Status:      "active",
	}

	info, err := s.source.GetVideoInfo(ctx, videoIDOrURL)
	if err != nil {
		record.MarkAsError(err.Error())
		if _, saveErr := s.videoRepo.CreateOrReread(ctx, record); saveErr != nil {
			common.LogError("無法保存失敗的影片紀錄",
				zap.String("video_id", videoID),
				zap.Error(saveErr))
		}
		return nil, common.ErrVideoFetchFailed.WithError(err)
	}
	s.applyVideoInfo(record, info)

	s.fillChannelInfo(ctx, record)
	s.fillComments(ctx, record, maxComments)
	s.fillTranscript(ctx, record, language)

	saved, err := s.videoRepo.CreateOrReread(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save video record: %w", err)
	}

	common.LogInfo("影片資料收集完成",
		zap.String("video_id", videoID),
		zap.Bool("complete", saved.IsComplete()))
	return saved, nil
}

// fillMissingData 補收集不完整紀錄缺少的分類
// 所有分類的失敗都是靜默的，保留既有資料並寫入空值；
// 沒有任何分類變動時不寫回，updatedAt 維持原值
func (s *Service) fillMissingData(ctx context.Context, record *model.VideoRecord, maxComments int, language string) (*model.VideoRecord, error) {
	common.LogInfo("影片資料不完整，補收集缺少的部分",
		zap.String("video_id", record.VideoID))

	updated := false

	if record.Title == "" || record.ViewCount == nil {
		if info, err := s.source.GetVideoInfo(ctx, record.VideoID); err != nil {
			common.LogWarn("補收集基本資訊失敗",
				zap.String("video_id", record.VideoID),
				zap.Error(err))
		} else {
			s.applyVideoInfo(record, info)
			updated = true
		}
	}

	if record.ChannelDescription == "" && record.ChannelID != "" {
		if s.fillChannelInfo(ctx, record) {
			updated = true
		}
	}
	if record.TotalComments == nil {
		s.fillComments(ctx, record, maxComments)
		updated = true
	}
	if len(record.TranscriptSegments) == 0 {
		if s.fillTranscript(ctx, record, language) {
			updated = true
		}
	}

	if !updated {
		return record, nil
	}

	record.UpdatedAt = time.Now()
	if err := s.videoRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update video record: %w", err)
	}
	return record, nil
}

// applyVideoInfo 將基本資訊寫入紀錄
func (s *Service) applyVideoInfo(record *model.VideoRecord, info *VideoInfo) {
	viewCount := info.ViewCount
	likeCount := info.LikeCount

	record.Title = info.Title
	record.Description = info.Description
	record.Duration = info.Duration
	record.ViewCount = &viewCount
	record.LikeCount = &likeCount
	record.UploadDate = info.UploadDate
	record.Category = info.Category
	record.Tags = info.Tags
	record.Thumbnails = info.Thumbnails
	record.IsLiveContent = info.IsLiveContent
	record.IsShorts = info.IsShorts
	record.ChannelID = info.Channel.ID
	record.ChannelName = info.Channel.Name
	record.ChannelURL = info.Channel.URL
}

// fillChannelInfo 收集頻道資訊，失敗時靜默略過
// 回傳是否有寫入任何欄位
func (s *Service) fillChannelInfo(ctx context.Context, record *model.VideoRecord) bool {
	if record.ChannelID == "" {
		return false
	}

	channel, err := s.source.GetChannelInfo(ctx, record.ChannelID)
	if err != nil {
		common.LogWarn("收集頻道資訊失敗",
			zap.String("video_id", record.VideoID),
			zap.String("channel_id", record.ChannelID),
			zap.Error(err))
		return false
	}

	record.ChannelName = channel.Name
	record.ChannelURL = channel.URL
	record.ChannelDescription = channel.Description
	record.ChannelSubscriberCount = channel.SubscriberCount
	record.ChannelVideoCount = channel.VideoCount
	record.ChannelThumbnails = channel.Thumbnails
	record.ChannelKeywords = channel.Keywords
	return true
}

// fillComments 收集留言，失敗或沒有留言時寫入空集合
func (s *Service) fillComments(ctx context.Context, record *model.VideoRecord, maxComments int) {
	data, err := s.source.GetComments(ctx, record.VideoID, maxComments)
	if err != nil {
		common.LogWarn("收集留言失敗",
			zap.String("video_id", record.VideoID),
			zap.Error(err))
		zero := 0
		record.TotalComments = &zero
		record.Comments = []model.Comment{}
		return
	}

	total := data.TotalComments
	record.TotalComments = &total
	record.Comments = data.Comments
}

// fillTranscript 收集字幕，失敗時寫入空集合
// 回傳是否有寫入任何欄位
func (s *Service) fillTranscript(ctx context.Context, record *model.VideoRecord, language string) bool {
	data, err := s.source.GetTranscript(ctx, record.VideoID, language)
	if err != nil {
		common.LogWarn("收集字幕失敗",
			zap.String("video_id", record.VideoID),
			zap.Error(err))
		record.TranscriptSegments = []model.TranscriptSegment{}
		record.TranscriptFullText = ""
		return true
	}

	record.TranscriptLanguage = data.Language
	record.TranscriptSegments = data.Segments
	record.TranscriptFullText = data.FullText
	return true
}

// BulkResult 批次收集的單項結果
type BulkResult struct {
	VideoID string             `json:"videoId"`
	Success bool               `json:"success"`
	Data    *model.VideoRecord `json:"data,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// GetBulkComprehensiveVideoData 批次取得多部影片的完整資料
// 各影片平行處理、互不影響，結果依輸入順序回傳
func (s *Service) GetBulkComprehensiveVideoData(ctx context.Context, videoIDsOrURLs []string, maxComments int, language string) []BulkResult {
	results := make([]BulkResult, len(videoIDsOrURLs))

	var wg sync.WaitGroup
	for i, input := range videoIDsOrURLs {
		wg.Add(1)
		go func(index int, videoIDOrURL string) {
			defer wg.Done()

			videoID := ExtractVideoID(videoIDOrURL)
			record, err := s.GetComprehensiveVideoData(ctx, videoIDOrURL, maxComments, language)
			if err != nil {
				results[index] = BulkResult{
					VideoID: videoID,
					Success: false,
					Error:   err.Error(),
				}
				return
			}
			results[index] = BulkResult{
				VideoID: videoID,
				Success: true,
				Data:    record,
			}
		}(i, input)
	}
	wg.Wait()

	return results
}

// SearchVideos 搜尋影片
func (s *Service) SearchVideos(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.source.SearchVideos(ctx, query, limit)
}

// GetTranscript 取得影片字幕（不經過快取）
func (s *Service) GetTranscript(ctx context.Context, videoIDOrURL, language string) (*TranscriptData, error) {
	if language == "" {
		language = s.cfg.Youtube.Language
	}
	return s.source.GetTranscript(ctx, ExtractVideoID(videoIDOrURL), language)
}

// GetVideoInfo 取得影片基本資訊（不經過快取）
func (s *Service) GetVideoInfo(ctx context.Context, videoIDOrURL string) (*VideoInfo, error) {
	return s.source.GetVideoInfo(ctx, ExtractVideoID(videoIDOrURL))
}

// GetComments 取得影片留言（不經過快取）
func (s *Service) GetComments(ctx context.Context, videoIDOrURL string, maxComments int) (*CommentsData, error) {
	if maxComments <= 0 || maxComments > s.cfg.Youtube.MaxComments {
		maxComments = s.cfg.Youtube.MaxComments
	}
	return s.source.GetComments(ctx, ExtractVideoID(videoIDOrURL), maxComments)
}
