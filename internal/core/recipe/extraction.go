package recipe

import (
	"encoding/json"
	"fmt"
	"strings"

	"recipe-pipeline/internal/core/model"
	"recipe-pipeline/internal/pkg/common"
)

// extractionResult 模型萃取出的食譜內容
// 欄位對應 response schema 的巢狀結構，寫回 Recipe 時轉為更新欄位
type extractionResult struct {
	BasicInfo   extractionBasicInfo      `json:"basic_info"`
	Metadata    extractionMetadata       `json:"metadata"`
	Ingredients []model.RecipeIngredient `json:"ingredients"`
	Steps       []extractionStep         `json:"steps"`
	Nutrition   *model.NutritionInfo     `json:"nutrition"`
}

type extractionBasicInfo struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Difficulty    string `json:"difficulty"`
	EstimatedTime int    `json:"estimated_time"`
	Servings      int    `json:"servings"`
}

type extractionMetadata struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}

type extractionStep struct {
	StepNumber       int      `json:"step_number"`
	Summary          string   `json:"summary"`
	StartTimeSeconds float64  `json:"start_time_seconds"`
	EndTimeSeconds   float64  `json:"end_time_seconds"`
	Techniques       []string `json:"techniques"`
	Tools            []string `json:"tools"`
}

// parseExtraction 解析模型輸出
// 先裁切出最外層的 JSON 物件，模型偶爾會在前後加上說明文字
func parseExtraction(raw string) (*extractionResult, error) {
	content := common.ExtractJSONObject(raw)
	if content == "" {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var result extractionResult
	if err := common.ParseJSON(content, &result); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}

	if result.BasicInfo.Title == "" {
		return nil, fmt.Errorf("model output is missing title")
	}
	return &result, nil
}

// recipeSteps 轉換成儲存用的步驟型別
func (r *extractionResult) recipeSteps() []model.RecipeStep {
	steps := make([]model.RecipeStep, 0, len(r.Steps))
	for _, step := range r.Steps {
		steps = append(steps, model.RecipeStep{
			StepNumber:       step.StepNumber,
			Summary:          step.Summary,
			StartTimeSeconds: step.StartTimeSeconds,
			EndTimeSeconds:   step.EndTimeSeconds,
			Techniques:       step.Techniques,
			Tools:            step.Tools,
		})
	}
	return steps
}

// updateValues 轉成單次原子更新的欄位集合
// serializer:json 只在結構體寫入時生效，map 更新需自行序列化巢狀欄位
func (r *extractionResult) updateValues() (map[string]interface{}, error) {
	values := map[string]interface{}{
		"status":         model.RecipeStatusCompleted,
		"title":          r.BasicInfo.Title,
		"description":    r.BasicInfo.Description,
		"difficulty":     r.BasicInfo.Difficulty,
		"estimated_time": r.BasicInfo.EstimatedTime,
		"servings":       r.BasicInfo.Servings,
		"error_message":  "",
	}

	jsonColumns := map[string]interface{}{
		"categories":  r.Metadata.Categories,
		"tags":        r.Metadata.Tags,
		"ingredients": r.Ingredients,
		"steps":       r.recipeSteps(),
	}
	if r.Nutrition != nil {
		jsonColumns["nutrition"] = r.Nutrition
	}
	for column, value := range jsonColumns {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", column, err)
		}
		values[column] = string(encoded)
	}
	return values, nil
}

// formatTranscript 將字幕片段組成提示詞用的文字
// 每行開頭標註該句的起始秒數，供模型對應步驟時間區間
func formatTranscript(segments []model.TranscriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "[%.2fs] %s\n", float64(seg.StartMs)/1000, text)
	}
	return strings.TrimSpace(b.String())
}
