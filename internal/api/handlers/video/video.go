package video

import (
	"net/http"
	"strconv"

	"recipe-pipeline/internal/api/handlers"
	"recipe-pipeline/internal/core/youtube"

	"github.com/gin-gonic/gin"
)

// 批次請求一次最多處理的影片數
const maxBulkVideos = 10

// Handler 影片資料處理器
type Handler struct {
	videoSvc *youtube.Service
}

// NewHandler 創建影片資料處理器
func NewHandler(videoSvc *youtube.Service) *Handler {
	return &Handler{videoSvc: videoSvc}
}

// HandleComprehensive 取得單部影片的完整資料
// maxComments 與 lang 未指定時使用設定檔的預設值
func (h *Handler) HandleComprehensive(c *gin.Context) {
	maxComments, _ := strconv.Atoi(c.DefaultQuery("maxComments", "0"))
	record, err := h.videoSvc.GetComprehensiveVideoData(c.Request.Context(), c.Param("videoId"), maxComments, c.Query("lang"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// BulkRequest 批次請求
type BulkRequest struct {
	VideoIDs    []string `json:"videoIds" binding:"required,min=1"` // 影片 ID 或網址
	MaxComments int      `json:"maxComments"`
	Language    string   `json:"language"`
}

// HandleBulk 批次取得多部影片的完整資料
func (h *Handler) HandleBulk(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "videoIds 為必填欄位")
		return
	}
	if len(req.VideoIDs) > maxBulkVideos {
		handlers.RespondBadRequest(c, "一次最多處理 10 部影片")
		return
	}

	results := h.videoSvc.GetBulkComprehensiveVideoData(c.Request.Context(), req.VideoIDs, req.MaxComments, req.Language)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// HandleInfo 取得影片基本資訊
func (h *Handler) HandleInfo(c *gin.Context) {
	info, err := h.videoSvc.GetVideoInfo(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// HandleComments 取得影片留言
func (h *Handler) HandleComments(c *gin.Context) {
	maxComments, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	comments, err := h.videoSvc.GetComments(c.Request.Context(), c.Param("videoId"), maxComments)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// HandleTranscript 取得影片字幕
func (h *Handler) HandleTranscript(c *gin.Context) {
	transcript, err := h.videoSvc.GetTranscript(c.Request.Context(), c.Param("videoId"), c.Query("lang"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transcript)
}

// HandleSearch 搜尋影片
func (h *Handler) HandleSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		handlers.RespondBadRequest(c, "q 為必填參數")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	results, err := h.videoSvc.SearchVideos(c.Request.Context(), query, limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
