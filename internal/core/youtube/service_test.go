package youtube

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/core/repository"
	"recipe-pipeline/internal/infrastructure/config"
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

// fakeSource 可控制各分類成功與否的資料來源
type fakeSource struct {
	mu sync.Mutex

	infoErr       error
	channelErr    error
	commentsErr   error
	transcriptErr error
	noTranscript  bool

	infoCalls       int
	channelCalls    int
	commentsCalls   int
	transcriptCalls int

	lastMaxComments int
	lastLanguage    string
}

func (f *fakeSource) GetVideoInfo(ctx context.Context, videoIDOrURL string) (*VideoInfo, error) {
	f.mu.Lock()
	f.infoCalls++
	f.mu.Unlock()
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return &VideoInfo{
		ID:        ExtractVideoID(videoIDOrURL),
		Title:     "김치찌개 끓이기",
		ViewCount: 12345,
		LikeCount: 678,
		Channel: ChannelRef{
			ID:   "UCtest",
			Name: "요리채널",
			URL:  "https://www.youtube.com/channel/UCtest",
		},
	}, nil
}

func (f *fakeSource) GetChannelInfo(ctx context.Context, channelID string) (*ChannelInfo, error) {
	f.mu.Lock()
	f.channelCalls++
	f.mu.Unlock()
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return &ChannelInfo{
		ID:          channelID,
		Name:        "요리채널",
		Description: "집밥 레시피 채널",
	}, nil
}

func (f *fakeSource) GetComments(ctx context.Context, videoID string, maxComments int) (*CommentsData, error) {
	f.mu.Lock()
	f.commentsCalls++
	f.lastMaxComments = maxComments
	f.mu.Unlock()
	if f.commentsErr != nil {
		return nil, f.commentsErr
	}
	return &CommentsData{
		VideoID:       videoID,
		TotalComments: 2,
		Comments: []model.Comment{
			{ID: "c1", Content: "따라 만들었는데 맛있어요"},
			{ID: "c2", Content: "돼지고기 대신 참치 넣어도 되나요?"},
		},
	}, nil
}

func (f *fakeSource) GetTranscript(ctx context.Context, videoID, language string) (*TranscriptData, error) {
	f.mu.Lock()
	f.transcriptCalls++
	f.lastLanguage = language
	f.mu.Unlock()
	if f.transcriptErr != nil {
		return nil, f.transcriptErr
	}
	if f.noTranscript {
		return &TranscriptData{VideoID: videoID, Segments: []model.TranscriptSegment{}}, nil
	}
	return &TranscriptData{
		VideoID:  videoID,
		Language: language,
		Segments: []model.TranscriptSegment{
			{Text: "물을 끓입니다", StartMs: 0, EndMs: 3000, DurationMs: 3000},
			{Text: "김치를 넣습니다", StartMs: 3000, EndMs: 7500, DurationMs: 4500},
		},
		FullText: "물을 끓입니다 김치를 넣습니다",
	}, nil
}

func (f *fakeSource) SearchVideos(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return []SearchResult{{ID: "r1", Title: query}}, nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// 每個測試使用獨立的共享記憶體資料庫，避免連線池拿到空資料庫
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.VideoRecord{}))
	return db
}

func newTestService(t *testing.T, source DataSource) (*Service, *repository.VideoRepository) {
	t.Helper()

	repo := repository.NewVideoRepository(setupTestDB(t))
	cfg := &config.Config{
		Youtube: config.YoutubeConfig{
			MaxComments: 20,
			Language:    "ko",
		},
	}
	return NewService(repo, source, cfg), repo
}

func TestGetComprehensiveVideoData_CollectsAllCategories(t *testing.T) {
	source := &fakeSource{}
	svc, _ := newTestService(t, source)

	record, err := svc.GetComprehensiveVideoData(context.Background(), "https://www.youtube.com/watch?v=vid00000001", 0, "")
	require.NoError(t, err)

	assert.Equal(t, "vid00000001", record.VideoID)
	assert.Equal(t, "김치찌개 끓이기", record.Title)
	require.NotNil(t, record.ViewCount)
	assert.Equal(t, int64(12345), *record.ViewCount)
	assert.Equal(t, "집밥 레시피 채널", record.ChannelDescription)
	require.NotNil(t, record.TotalComments)
	assert.Equal(t, 2, *record.TotalComments)
	assert.Len(t, record.TranscriptSegments, 2)
	assert.True(t, record.IsComplete())
}

func TestGetComprehensiveVideoData_CompleteRecordSkipsSource(t *testing.T) {
	source := &fakeSource{}
	svc, _ := newTestService(t, source)

	_, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.NoError(t, err)

	// 第二次呼叫應直接命中快取，不再呼叫資料來源
	_, err = svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.NoError(t, err)

	assert.Equal(t, 1, source.infoCalls)
	assert.Equal(t, 1, source.channelCalls)
	assert.Equal(t, 1, source.commentsCalls)
	assert.Equal(t, 1, source.transcriptCalls)
}

func TestGetComprehensiveVideoData_BasicInfoFailureIsFatal(t *testing.T) {
	source := &fakeSource{infoErr: fmt.Errorf("video unavailable")}
	svc, repo := newTestService(t, source)

	_, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.Error(t, err)

	// 失敗的紀錄仍被保存，狀態為 error
	record, dbErr := repo.FindByVideoID(context.Background(), "vid00000001")
	require.NoError(t, dbErr)
	require.NotNil(t, record)
	assert.Equal(t, "error", record.Status)
	assert.Contains(t, record.ErrorMessage, "video unavailable")
}

func TestGetComprehensiveVideoData_CommentsFailureIsSilent(t *testing.T) {
	source := &fakeSource{commentsErr: fmt.Errorf("comments disabled")}
	svc, _ := newTestService(t, source)

	record, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.NoError(t, err)

	// 留言失敗以零值代替，紀錄因此不完整
	require.NotNil(t, record.TotalComments)
	assert.Equal(t, 0, *record.TotalComments)
	assert.False(t, record.IsComplete())
}

func TestGetComprehensiveVideoData_FillsMissingCategoriesOnly(t *testing.T) {
	source := &fakeSource{commentsErr: fmt.Errorf("temporarily unavailable")}
	svc, repo := newTestService(t, source)

	// 第一次收集時留言失敗
	_, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.NoError(t, err)

	// 留言為零筆 (TotalComments == 0) 使紀錄不完整，下一次請求補收集
	record, err := repo.FindByVideoID(context.Background(), "vid00000001")
	require.NoError(t, err)
	require.NotNil(t, record.TotalComments)
	assert.Equal(t, 0, *record.TotalComments)

	// 模擬留言恢復後把 TotalComments 清空，觸發補收集
	record.TotalComments = nil
	require.NoError(t, repo.Save(context.Background(), record))
	source.commentsErr = nil

	filled, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.NoError(t, err)
	require.NotNil(t, filled.TotalComments)
	assert.Equal(t, 2, *filled.TotalComments)
	assert.True(t, filled.IsComplete())

	// 基本資訊仍完整，不應重新收集
	assert.Equal(t, 1, source.infoCalls)
	assert.Equal(t, 2, source.commentsCalls)
}

func TestGetComprehensiveVideoData_NoChangeKeepsUpdatedAt(t *testing.T) {
	source := &fakeSource{infoErr: fmt.Errorf("temporarily unavailable")}
	svc, repo := newTestService(t, source)

	// 只缺基本資訊的紀錄：補收集失敗時不應寫回，也不應更新時間戳
	total := 2
	seed := &model.VideoRecord{
		VideoID:            "vid00000001",
		VideoURL:           "https://www.youtube.com/watch?v=vid00000001",
		ChannelID:          "UCtest",
		ChannelDescription: "집밥 레시피 채널",
		TotalComments:      &total,
		TranscriptSegments: []model.TranscriptSegment{
			{Text: "물을 끓입니다", StartMs: 0, EndMs: 3000, DurationMs: 3000},
		},
		CollectedAt: time.Now().Add(-time.Hour),
		Status:      "active",
	}
	require.NoError(t, repo.Save(context.Background(), seed))

	before, err := repo.FindByVideoID(context.Background(), "vid00000001")
	require.NoError(t, err)

	_, err = svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 0, "")
	require.NoError(t, err)

	after, err := repo.FindByVideoID(context.Background(), "vid00000001")
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	assert.Equal(t, 1, source.infoCalls)
}

func TestGetComprehensiveVideoData_MaxCommentsReachesSource(t *testing.T) {
	source := &fakeSource{}
	svc, _ := newTestService(t, source)

	_, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000001", 5, "en")
	require.NoError(t, err)

	assert.Equal(t, 5, source.lastMaxComments)
	assert.Equal(t, "en", source.lastLanguage)
}

func TestGetBulkComprehensiveVideoData_PreservesOrder(t *testing.T) {
	source := &fakeSource{}
	svc, _ := newTestService(t, source)

	inputs := []string{"vid00000001", "vid00000002", "vid00000003"}
	results := svc.GetBulkComprehensiveVideoData(context.Background(), inputs, 0, "")

	require.Len(t, results, 3)
	for i, result := range results {
		assert.Equal(t, inputs[i], result.VideoID)
		assert.True(t, result.Success)
		require.NotNil(t, result.Data)
	}
}

func TestGetBulkComprehensiveVideoData_FailureIsIsolated(t *testing.T) {
	// vid00000002 已存在且完整，基本資訊失敗只影響未收集過的影片
	source := &fakeSource{}
	svc, _ := newTestService(t, source)
	_, err := svc.GetComprehensiveVideoData(context.Background(), "vid00000002", 0, "")
	require.NoError(t, err)

	source.infoErr = fmt.Errorf("gone")
	results := svc.GetBulkComprehensiveVideoData(context.Background(), []string{"vid00000001", "vid00000002"}, 0, "")

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.NotEmpty(t, results[0].Error)
	assert.True(t, results[1].Success)
}
