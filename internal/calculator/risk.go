package calculator

import (
	"strings"

	"soccentral/internal/model"
)

// 风险级别
const (
	RiskCritical = "critical"
	RiskHigh     = "high"
	RiskMedium   = "medium"
	RiskLow      = "low"
)

// ClassifyRisk 威胁风险分级决策表。
// 优先级从上到下：
//   - 分析师判定误报，一律低危，不看其他字段
//   - 恶意且未处置：站点策略只检测不拦截时 critical，否则 high
//   - 可疑且未处置：medium
//   - 已处置的在未处置级别上降一级
func ClassifyRisk(rec model.Record) string {
	verdict := strings.ToLower(rec.GetString("analystVerdict"))
	classification := strings.ToLower(rec.GetString("classification"))
	policy := strings.ToLower(rec.GetString("policyAtDetection"))

	if strings.Contains(verdict, "false") {
		return RiskLow
	}

	base := RiskLow
	switch {
	case isMalicious(classification, verdict):
		if strings.Contains(policy, "detect") {
			// 只检测不拦截，威胁还活着
			base = RiskCritical
		} else {
			base = RiskHigh
		}
	case isSuspicious(classification, verdict):
		base = RiskMedium
	}

	if isResolved(rec.GetString("incidentStatus")) || rec.GetBool("mitigated") {
		return tierDown(base)
	}
	return base
}

// tierDown 降一级，低危封底
func tierDown(level string) string {
	switch level {
	case RiskCritical:
		return RiskHigh
	case RiskHigh:
		return RiskMedium
	default:
		return RiskLow
	}
}

func isMalicious(classification, verdict string) bool {
	return strings.Contains(classification, "malware") ||
		strings.Contains(classification, "malicious") ||
		strings.Contains(classification, "ransom") ||
		strings.Contains(classification, "trojan") ||
		strings.Contains(verdict, "true positive") ||
		strings.Contains(verdict, "malicious")
}

func isSuspicious(classification, verdict string) bool {
	return strings.Contains(classification, "suspicious") ||
		strings.Contains(classification, "pua") ||
		strings.Contains(classification, "pup") ||
		strings.Contains(verdict, "suspicious") ||
		strings.Contains(verdict, "undefined")
}

// isResolved 判断事件状态是否已处置。
// 注意 "unresolved" 字面上包含 "resolved"，必须先排除否定写法
func isResolved(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	if s == "" {
		return false
	}
	negative := []string{"unresolved", "not resolved", "in progress", "pending", "open", "active"}
	for _, n := range negative {
		if strings.Contains(s, n) {
			return false
		}
	}
	return strings.Contains(s, "resolved") ||
		strings.Contains(s, "closed") ||
		strings.Contains(s, "mitigated") ||
		strings.Contains(s, "remediated")
}
