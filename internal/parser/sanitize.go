package parser

import (
	"math"
	"strings"
	"time"

	"soccentral/internal/model"
)

// nullTokens 序列化前要置为 null 的哨兵字符串，小写比较。
// 空串也算：规范化阶段用 "" 占位的枚举字段在出口统一成 null
var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
	"nat":  {},
	"n/a":  {},
	"#n/a": {},
}

// SanitizeForJSON 递归清洗任意结果树，保证可以安全 json.Marshal：
// 非有限浮点与哨兵字符串置 null，time.Time 统一成 ISO 字符串。
// 纯函数且幂等，结果出引擎前必须整体过一遍。
func SanitizeForJSON(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		return SanitizeForJSON(float64(x))
	case string:
		if _, bad := nullTokens[strings.ToLower(strings.TrimSpace(x))]; bad {
			return nil
		}
		return x
	case time.Time:
		return FormatDateTime(x)
	case model.Record:
		out := make(model.Record, len(x))
		for k, val := range x {
			out[k] = SanitizeForJSON(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = SanitizeForJSON(val)
		}
		return out
	case map[string]float64:
		out := make(map[string]float64, len(x))
		for k, val := range x {
			if math.IsNaN(val) || math.IsInf(val, 0) {
				out[k] = 0
				continue
			}
			out[k] = val
		}
		return out
	case []model.Record:
		out := make([]model.Record, len(x))
		for i, val := range x {
			out[i] = SanitizeForJSON(val).(model.Record)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = SanitizeForJSON(val)
		}
		return out
	}
	// 其余标量（int、bool、map[string]int 等）本身就是安全的
	return v
}

// SanitizeResult 对完整结果做序列化前清洗
func SanitizeResult(r *model.Result) {
	if r == nil {
		return
	}
	r.KPIs = SanitizeForJSON(r.KPIs).(map[string]any)
	for entity, records := range r.Details {
		r.Details[entity] = SanitizeForJSON(records).([]model.Record)
	}
	if r.Analytics != nil && r.Analytics.Totals != nil {
		r.Analytics.Totals = SanitizeForJSON(r.Analytics.Totals).(map[string]float64)
	}
}
