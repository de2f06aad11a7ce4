package planning

import (
	"regexp"
	"strings"
)

var (
	jsonFencePattern = regexp.MustCompile("```json\\s*")
	fencePattern     = regexp.MustCompile("```\\s*")
)

// Repair 尽力清理模型输出中的非 JSON 噪声：代码围栏、首个 { 之前与最后一个 } 之后的文本。
// 不做结构修复（不补括号、不转义引号）。
func Repair(text string) string {
	text = jsonFencePattern.ReplaceAllString(text, "")
	text = fencePattern.ReplaceAllString(text, "")

	if first := strings.Index(text, "{"); first > 0 {
		text = text[first:]
	}

	if last := strings.LastIndex(text, "}"); last > 0 && last < len(text)-1 {
		text = text[:last+1]
	}

	return strings.TrimSpace(text)
}
