package gemini

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-pipeline/internal/infrastructure/config"
	"recipe-pipeline/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client Gemini API 客戶端
// 只使用 generateContent 端點，並以 responseSchema 要求結構化 JSON 輸出
type Client struct {
	client *resty.Client
	config *config.GeminiConfig
}

// NewClient 創建 Gemini 客戶端
func NewClient(cfg *config.GeminiConfig) *Client {
	client := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("key", cfg.APIKey)

	return &Client{
		client: client,
		config: cfg,
	}
}

// generateRequest generateContent 請求結構
type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64                `json:"temperature"`
	MaxOutputTokens  int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string                 `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]interface{} `json:"responseSchema,omitempty"`
}

// generateResponse generateContent 回應結構
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Usage 單次呼叫的 token 用量
type Usage struct {
	PromptTokens int `json:"promptTokens"`
	OutputTokens int `json:"outputTokens"`
	TotalTokens  int `json:"totalTokens"`
}

// GenerateJSON 呼叫模型並要求 JSON 輸出
// schema 為 nil 時僅設定 responseMimeType
func (c *Client) GenerateJSON(ctx context.Context, systemInstruction, prompt string, schema map[string]interface{}, temperature float64) (string, *Usage, error) {
	req := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:      temperature,
			MaxOutputTokens:  c.config.MaxOutputTokens,
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	if systemInstruction != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	start := time.Now()
	var result generateResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("/models/%s:generateContent", c.config.Model))
	duration := time.Since(start)

	requestID := common.GetRequestID(ctx)
	common.LogAICall(c.config.Model, duration, err, requestID)

	if err != nil {
		return "", nil, common.ErrAIServiceError.WithError(err)
	}
	if resp.StatusCode() != http.StatusOK {
		if result.Error != nil {
			return "", nil, common.ErrAIServiceError.WithError(
				fmt.Errorf("gemini API error %d: %s", result.Error.Code, result.Error.Message))
		}
		return "", nil, common.ErrAIServiceError.WithError(
			fmt.Errorf("gemini API returned status %d", resp.StatusCode()))
	}

	if result.PromptFeedback.BlockReason != "" {
		return "", nil, common.ErrAIServiceError.WithError(
			fmt.Errorf("prompt blocked: %s", result.PromptFeedback.BlockReason))
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", nil, common.ErrAIServiceError.WithError(
			fmt.Errorf("empty response from model"))
	}

	candidate := result.Candidates[0]
	if candidate.FinishReason != "" && candidate.FinishReason != "STOP" {
		common.LogWarn("模型回應未正常結束",
			zap.String("finish_reason", candidate.FinishReason),
			zap.String("request_id", requestID))
	}

	var text string
	for _, p := range candidate.Content.Parts {
		text += p.Text
	}

	usage := &Usage{
		PromptTokens: result.UsageMetadata.PromptTokenCount,
		OutputTokens: result.UsageMetadata.CandidatesTokenCount,
		TotalTokens:  result.UsageMetadata.TotalTokenCount,
	}

	common.LogDebug("模型回應完成",
		zap.Int("total_tokens", usage.TotalTokens),
		zap.Duration("duration", duration))

	return text, usage, nil
}
