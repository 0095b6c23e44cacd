package parser

import "strings"

// 内容佐证的采样参数。列名只给候选类型，最终以内容投票为准。
const (
	classifySampleSize = 10
	dateRatioMin       = 0.7
	numericRatioMin    = 0.9
	boolDistinctMax    = 2
)

// nameHints 列名关键词 → 候选语义类型，按优先级排列
var nameHints = []struct {
	Type     SemanticType
	Keywords []string
}{
	{TypeDate, []string{"date", "time", "seen", "login", "logon", "checkin", "check-in", "created", "updated", "installed", "expire", "日期", "时间"}},
	{TypeBoolean, []string{"enabled", "active", "connected", "compliant", "managed", "encrypted", "supervised", "locked", "是否"}},
	{TypeNumeric, []string{"count", "total", "number", "score", "size", "version count", "数量", "次数", "个数"}},
	{TypeCategorical, []string{"status", "state", "type", "category", "severity", "platform", "verdict", "classification", "priority", "level", "状态", "类型", "级别"}},
	{TypeIdentifier, []string{"name", "id", "serial", "uuid", "guid", "hostname", "host", "email", "user", "owner", "名称", "编号"}},
}

// hintFromName 从列名猜候选类型
func hintFromName(name string) SemanticType {
	n := strings.ToLower(NormalizeColumnName(name))
	for _, h := range nameHints {
		for _, kw := range h.Keywords {
			if strings.Contains(n, strings.ReplaceAll(kw, " ", "")) {
				return h.Type
			}
		}
	}
	return ""
}

// Classify 对一列做画像：列名给出候选类型，再用内容采样佐证。
// 采样取前若干个非空值：日期占比达标判日期，去重后不超过两个且
// 全在布尔词表内判布尔，数值占比达标判数值；都不满足时低基数判枚举。
// 判不出来不是错误，落回 text。
func Classify(name string, values []string) ColumnProfile {
	profile := ColumnProfile{
		Name: name,
		Type: TypeText,
	}

	distinct := make(map[string]struct{})
	var samples []string
	hasTime := false

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			profile.NullCount++
			continue
		}
		if _, seen := distinct[v]; !seen {
			distinct[v] = struct{}{}
			if len(profile.Samples) < classifySampleSize {
				profile.Samples = append(profile.Samples, v)
			}
		}
		if len(samples) < classifySampleSize {
			samples = append(samples, v)
			if HasTimePart(v) {
				hasTime = true
			}
		}
	}
	profile.Distinct = len(distinct)

	if len(samples) == 0 {
		if hint := hintFromName(name); hint != "" {
			profile.Type = hint
		}
		return profile
	}

	dateHits, numericHits, boolHits := 0, 0, 0
	for _, v := range samples {
		if _, ok := ExtractDateFromText(v); ok {
			dateHits++
		}
		if looksNumeric(v) {
			numericHits++
		}
		if isBooleanToken(v) {
			boolHits++
		}
	}

	n := float64(len(samples))
	switch {
	case float64(dateHits)/n >= dateRatioMin && float64(numericHits)/n < numericRatioMin:
		// 纯数字列可能误中 Excel 序列号判定，让数值优先
		if hasTime {
			profile.Type = TypeDateTime
		} else {
			profile.Type = TypeDate
		}
	case profile.Distinct <= boolDistinctMax && boolHits == len(samples):
		profile.Type = TypeBoolean
	case float64(numericHits)/n >= numericRatioMin:
		profile.Type = TypeNumeric
	default:
		if hint := hintFromName(name); hint != "" && hint != TypeDate && hint != TypeNumeric && hint != TypeBoolean {
			profile.Type = hint
		} else if profile.Distinct > 1 && profile.Distinct <= 20 {
			profile.Type = TypeCategorical
		}
	}

	return profile
}

// ClassifyTable 给整张表的每一列做画像
func ClassifyTable(t *Table) []ColumnProfile {
	profiles := make([]ColumnProfile, len(t.Headers))
	for col, header := range t.Headers {
		values := make([]string, 0, len(t.Rows))
		for _, row := range t.Rows {
			if col < len(row) {
				values = append(values, row[col])
			}
		}
		profiles[col] = Classify(header, values)
	}
	return profiles
}
