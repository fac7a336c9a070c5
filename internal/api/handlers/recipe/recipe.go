package recipe

import (
	"net/http"
	"strconv"

	"recipe-pipeline/internal/api/handlers"
	"recipe-pipeline/internal/api/middleware"
	recipeService "recipe-pipeline/internal/core/recipe"
	"recipe-pipeline/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食譜相關處理器
type Handler struct {
	generator *recipeService.Generator
	explorer  *recipeService.Explorer
	searcher  *recipeService.Searcher
}

// NewHandler 創建食譜處理器
func NewHandler(generator *recipeService.Generator, explorer *recipeService.Explorer, searcher *recipeService.Searcher) *Handler {
	return &Handler{
		generator: generator,
		explorer:  explorer,
		searcher:  searcher,
	}
}

// GenerateRequest 生成請求
type GenerateRequest struct {
	YoutubeURL string `json:"youtubeUrl" binding:"required"` // 影片網址或影片 ID
}

// HandleGenerate 請求生成食譜
// 立即回傳工作狀態，生成流程在背景執行
func (h *Handler) HandleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.RespondBadRequest(c, "youtubeUrl 為必填欄位")
		return
	}

	userID := middleware.CurrentUserID(c)
	recipe, err := h.generator.GenerateRecipe(c.Request.Context(), req.YoutubeURL, userID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("收到生成請求",
		zap.String("youtube_id", recipe.YoutubeID),
		zap.String("status", string(recipe.Status)),
		zap.Uint("user_id", userID),
	)

	c.JSON(http.StatusAccepted, recipe)
}

// HandleGetByVideo 以影片 ID 查詢食譜
func (h *Handler) HandleGetByVideo(c *gin.Context) {
	recipe, err := h.generator.GetRecipe(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleGetByID 以食譜 ID 查詢
func (h *Handler) HandleGetByID(c *gin.Context) {
	recipe, err := h.generator.GetRecipeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

// HandleDelete 刪除食譜
func (h *Handler) HandleDelete(c *gin.Context) {
	if err := h.generator.DeleteRecipe(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// HandleExplore 探索頁面
func (h *Handler) HandleExplore(c *gin.Context) {
	result, err := h.explorer.ExploreRecipes(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandlePopular 熱門食譜
func (h *Handler) HandlePopular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	recipes, err := h.explorer.GetPopularRecipes(c.Request.Context(), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

// HandleSearch 搜尋食譜
func (h *Handler) HandleSearch(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "10"))

	result, err := h.searcher.SearchRecipes(c.Request.Context(), c.Query("keyword"), page, pageSize)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleKeywords 關鍵字
// 帶 prefix 時回傳建議關鍵字，否則回傳熱門關鍵字
func (h *Handler) HandleKeywords(c *gin.Context) {
	prefix := c.Query("prefix")

	var keywords []string
	var err error
	if prefix != "" {
		keywords, err = h.searcher.SuggestKeywords(c.Request.Context(), prefix)
	} else {
		keywords, err = h.searcher.GetPopularKeywords(c.Request.Context())
	}
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

// HandleHistory 使用者的請求歷史
func (h *Handler) HandleHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.explorer.GetUserRequestHistory(c.Request.Context(), middleware.CurrentUserID(c), limit)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": history})
}
