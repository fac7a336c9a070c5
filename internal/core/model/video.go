package model

import (
	"time"
)

// VideoRecord 影片原始資料快取
// 保存從影片資料來源收集的基本資訊、頻道資訊、留言與字幕
type VideoRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	VideoID   string    `gorm:"uniqueIndex;size:50;not null" json:"videoId"`
	VideoURL  string    `gorm:"size:500" json:"videoUrl"`

	// 基本資訊
	Title         string      `gorm:"size:500" json:"title"`
	Description   string      `gorm:"type:text" json:"description"`
	Duration      int         `json:"duration"`
	ViewCount     *int64      `json:"viewCount"`
	LikeCount     *int64      `json:"likeCount"`
	UploadDate    string      `gorm:"size:100" json:"uploadDate"`
	Category      string      `gorm:"size:100" json:"category"`
	Tags          []string    `gorm:"serializer:json" json:"tags"`
	Thumbnails    []Thumbnail `gorm:"serializer:json" json:"thumbnails"`
	IsLiveContent bool        `json:"isLiveContent"`
	IsShorts      bool        `json:"isShorts"`

	// 頻道資訊
	ChannelID              string      `gorm:"size:100;index" json:"channelId"`
	ChannelName            string      `gorm:"size:200" json:"channelName"`
	ChannelURL             string      `gorm:"size:500" json:"channelUrl"`
	ChannelDescription     string      `gorm:"type:text" json:"channelDescription"`
	ChannelSubscriberCount string      `gorm:"size:100" json:"channelSubscriberCount"`
	ChannelVideoCount      string      `gorm:"size:100" json:"channelVideoCount"`
	ChannelThumbnails      []Thumbnail `gorm:"serializer:json" json:"channelThumbnails"`
	ChannelKeywords        []string    `gorm:"serializer:json" json:"channelKeywords"`

	// 留言資訊
	TotalComments *int      `json:"totalComments"`
	Comments      []Comment `gorm:"serializer:json" json:"comments"`

	// 字幕資訊
	TranscriptLanguage string              `gorm:"size:10" json:"transcriptLanguage"`
	TranscriptSegments []TranscriptSegment `gorm:"serializer:json" json:"transcriptSegments"`
	TranscriptFullText string              `gorm:"type:text" json:"transcriptFullText"`

	// 中繼資訊
	CollectedAt  time.Time `json:"collectedAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Status       string    `gorm:"size:50;default:active" json:"status"` // active, error
	ErrorMessage string    `gorm:"type:text" json:"errorMessage"`
}

// TableName 指定表名
func (VideoRecord) TableName() string {
	return "video_records"
}

// Thumbnail 縮圖資訊
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Comment 影片留言
type Comment struct {
	ID                 string        `json:"id"`
	Author             CommentAuthor `json:"author"`
	Content            string        `json:"content"`
	PublishedTime      string        `json:"publishedTime"`
	LikeCount          int           `json:"likeCount"`
	ReplyCount         int           `json:"replyCount"`
	IsPinned           bool          `json:"isPinned"`
	IsHeartedByCreator bool          `json:"isHeartedByCreator"`
}

// CommentAuthor 留言作者
type CommentAuthor struct {
	Name      string `json:"name"`
	ChannelID string `json:"channelId"`
	Thumbnail string `json:"thumbnail"`
}

// TranscriptSegment 字幕片段
type TranscriptSegment struct {
	Text       string `json:"text"`
	StartMs    int64  `json:"startMs"`
	EndMs      int64  `json:"endMs"`
	DurationMs int64  `json:"durationMs"`
}

// IsComplete 判斷資料是否收集完整
// 完整性是由內容推導的判斷，不另外儲存
func (v *VideoRecord) IsComplete() bool {
	hasBasicInfo := v.Title != "" && v.ViewCount != nil
	hasChannelInfo := v.ChannelID != "" && v.ChannelName != ""
	hasComments := v.TotalComments != nil && *v.TotalComments > 0
	hasTranscript := len(v.TranscriptSegments) > 0

	return hasBasicInfo && hasChannelInfo && hasComments && hasTranscript
}

// HasTranscript 是否有字幕
func (v *VideoRecord) HasTranscript() bool {
	return len(v.TranscriptSegments) > 0
}

// MarkAsError 標記為錯誤狀態
func (v *VideoRecord) MarkAsError(message string) {
	v.Status = "error"
	v.ErrorMessage = message
	v.UpdatedAt = time.Now()
}
