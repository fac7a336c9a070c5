package gemini

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// PromptTemplate 萃取提示詞模板
// 從 YAML 檔載入，啟動時讀取一次
type PromptTemplate struct {
	SystemInstruction string                 `mapstructure:"system_instruction"`
	UserTemplate      string                 `mapstructure:"user_template"`
	Temperature       float64                `mapstructure:"temperature"`
	ResponseSchema    map[string]interface{} `mapstructure:"response_schema"`
}

// LoadPromptTemplate 從 YAML 檔載入提示詞模板
func LoadPromptTemplate(path string) (*PromptTemplate, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read prompt template %s: %w", path, err)
	}

	var tmpl PromptTemplate
	if err := v.Unmarshal(&tmpl); err != nil {
		return nil, fmt.Errorf("failed to parse prompt template %s: %w", path, err)
	}

	if tmpl.SystemInstruction == "" {
		return nil, fmt.Errorf("prompt template %s is missing system_instruction", path)
	}
	if tmpl.UserTemplate == "" {
		return nil, fmt.Errorf("prompt template %s is missing user_template", path)
	}
	if tmpl.Temperature == 0 {
		tmpl.Temperature = 0.2
	}

	return &tmpl, nil
}

// PromptInput 模板佔位符的值
type PromptInput struct {
	Title       string
	Description string
	Transcript  string
	Comments    string
}

// Render 將佔位符代換為實際內容
func (t *PromptTemplate) Render(input PromptInput) string {
	replacer := strings.NewReplacer(
		"{{title}}", input.Title,
		"{{description}}", input.Description,
		"{{transcript}}", input.Transcript,
		"{{comments}}", input.Comments,
	)
	return replacer.Replace(t.UserTemplate)
}
