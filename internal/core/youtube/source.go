package youtube

import (
	"context"

	"recipe-pipeline/internal/core/model"
)

// VideoInfo 影片基本資訊
type VideoInfo struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Duration      int               `json:"duration"`
	ViewCount     int64             `json:"viewCount"`
	LikeCount     int64             `json:"likeCount"`
	UploadDate    string            `json:"uploadDate"`
	Category      string            `json:"category"`
	Tags          []string          `json:"tags"`
	Thumbnails    []model.Thumbnail `json:"thumbnails"`
	IsLiveContent bool              `json:"isLiveContent"`
	IsShorts      bool              `json:"isShorts"`
	Channel       ChannelRef        `json:"channel"`
}

// ChannelRef 影片所屬頻道的簡要資訊
type ChannelRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ChannelInfo 頻道詳細資訊
type ChannelInfo struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	SubscriberCount string            `json:"subscriberCount"`
	VideoCount      string            `json:"videoCount"`
	URL             string            `json:"url"`
	Thumbnails      []model.Thumbnail `json:"thumbnails"`
	Keywords        []string          `json:"keywords"`
}

// CommentsData 留言集合
type CommentsData struct {
	VideoID       string          `json:"videoId"`
	TotalComments int             `json:"totalComments"`
	Comments      []model.Comment `json:"comments"`
	Message       string          `json:"message,omitempty"`
}

// TranscriptData 字幕資料
type TranscriptData struct {
	VideoID  string                    `json:"videoId"`
	Language string                    `json:"language"`
	Segments []model.TranscriptSegment `json:"segments"`
	FullText string                    `json:"fullText"`
}

// SearchResult 影片搜尋結果
type SearchResult struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Duration   string            `json:"duration"`
	ViewCount  string            `json:"viewCount"`
	Thumbnails []model.Thumbnail `json:"thumbnails"`
	Channel    ChannelRef        `json:"channel"`
}

// DataSource 影片資料來源
// 每個方法都是獨立的外部呼叫，失敗處理由呼叫端決定
type DataSource interface {
	GetVideoInfo(ctx context.Context, videoIDOrURL string) (*VideoInfo, error)
	GetChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error)
	GetComments(ctx context.Context, videoID string, maxComments int) (*CommentsData, error)
	GetTranscript(ctx context.Context, videoID, language string) (*TranscriptData, error)
	SearchVideos(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
