package youtube

import (
	"regexp"
	"strings"
)

// 支援的影片網址格式
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/embed/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/v/([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/shorts/([^&\n?#]+)`),
}

// ExtractVideoID 從影片 ID 或網址中取出標準影片 ID
// 無法解析的輸入原樣回傳，不會失敗
func ExtractVideoID(input string) string {
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(input); len(match) > 1 && match[1] != "" {
			return match[1]
		}
	}
	return input
}

// IsYoutubeURL 是否為可解析的影片網址
func IsYoutubeURL(input string) bool {
	for _, pattern := range videoIDPatterns {
		if pattern.MatchString(input) {
			return true
		}
	}
	return false
}

// IsShorts 是否為 Shorts 網址
func IsShorts(input string) bool {
	return strings.Contains(input, "/shorts/")
}
