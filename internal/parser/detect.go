package parser

import "strings"

// detectConfidenceMin 工具类型判定的最低置信度
const detectConfidenceMin = 0.5

// DetectResult 工具类型识别结果
type DetectResult struct {
	ToolType   string  `json:"toolType"`
	Confidence float64 `json:"confidence"` // 置信度 0-1
}

// DetectToolType 识别工作簿来自哪种安全工具。
// 逐个工具打分：能定位到的实体表占比为基础分，文件名命中提示词加 0.2；
// 最高分不到阈值时落到 generic，走动态列画像路径。
func DetectToolType(filename string, sheetNames []string, table *AliasTable) DetectResult {
	lowerName := strings.ToLower(filename)

	best := DetectResult{ToolType: "generic"}
	for _, tool := range table.Tools {
		matchCount := 0
		for _, entity := range tool.Entities {
			if FindSheet(sheetNames, entity.SheetAliases) != "" {
				matchCount++
			}
		}
		if len(tool.Entities) == 0 {
			continue
		}
		confidence := float64(matchCount) / float64(len(tool.Entities))

		// 文件名辅助判定
		nameBoost := 0.0
		for _, hint := range tool.FilenameHints {
			if strings.Contains(lowerName, hint) {
				nameBoost = 0.2
				break
			}
		}
		confidence += nameBoost

		if confidence > best.Confidence {
			best = DetectResult{ToolType: tool.Type, Confidence: confidence}
		}
	}

	if best.Confidence < detectConfidenceMin {
		return DetectResult{ToolType: "generic", Confidence: best.Confidence}
	}
	if best.Confidence > 1 {
		best.Confidence = 1
	}
	return best
}
