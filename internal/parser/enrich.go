package parser

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"soccentral/internal/model"
)

// lowInfoIDRe 低信息量标识：纯序列号样式（无空格的长字母数字串）
var lowInfoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{8,}$`)

// isLowInfoID 判断标识是不是给人看没意义的值：兜底生成的编号或裸序列号
func isLowInfoID(id, fallbackPrefix string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return true
	}
	if fallbackPrefix != "" && strings.HasPrefix(id, fallbackPrefix+"-") {
		return true
	}
	return !strings.Contains(id, " ") && lowInfoIDRe.MatchString(id)
}

// BackfillNames 跨表名称回填。
// 主表标识多数是低信息量值（序列号、兜底编号）时，去副表的名称列里
// 按 token 重叠度找对应的人读名称，写进 displayName；分数不到阈值的保持原样。
// 返回回填成功的行数。
func BackfillNames(primary []model.Record, idField, fallbackPrefix string, secondary []model.Record, nameField string, minConfidence float64, log *zap.Logger) int {
	if log == nil {
		log = zap.NewNop()
	}
	if len(primary) == 0 || len(secondary) == 0 {
		return 0
	}

	lowInfo := 0
	for _, rec := range primary {
		if isLowInfoID(rec.GetString(idField), fallbackPrefix) {
			lowInfo++
		}
	}
	// 多数标识可读时不动表，避免把好名字改坏
	if lowInfo*2 < len(primary) {
		return 0
	}

	type candidate struct {
		name   string
		tokens map[string]struct{}
		raw    []string // 该行所有字符串值，用于序列号包含匹配
	}
	candidates := make([]candidate, 0, len(secondary))
	for _, rec := range secondary {
		name := strings.TrimSpace(rec.GetString(nameField))
		if name == "" {
			continue
		}
		c := candidate{name: name, tokens: map[string]struct{}{}}
		for _, v := range rec {
			s, ok := v.(string)
			if !ok || s == "" {
				continue
			}
			c.raw = append(c.raw, strings.ToLower(s))
			for _, tok := range Tokenize(s) {
				c.tokens[tok] = struct{}{}
			}
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return 0
	}

	filled := 0
	for _, rec := range primary {
		id := strings.TrimSpace(rec.GetString(idField))
		if !isLowInfoID(id, fallbackPrefix) {
			// 可读标识直接当显示名，保证全表字段集合一致
			rec["displayName"] = id
			continue
		}
		rec["displayName"] = ""

		idTokens := Tokenize(id)
		idLower := strings.ToLower(id)

		best := 0.0
		bestName := ""
		for _, c := range candidates {
			score := 0.0
			// 序列号整串出现在副表任一字段里给满分
			for _, raw := range c.raw {
				if len(idLower) >= 6 && strings.Contains(raw, idLower) {
					score = 1
					break
				}
			}
			if score == 0 && len(idTokens) > 0 {
				hit := 0
				for _, tok := range idTokens {
					if _, ok := c.tokens[tok]; ok {
						hit++
					}
				}
				score = float64(hit) / float64(len(idTokens))
			}
			if score > best {
				best = score
				bestName = c.name
			}
		}

		if best >= minConfidence && bestName != "" {
			rec["displayName"] = bestName
			filled++
		}
	}

	if filled > 0 {
		log.Info("backfilled display names from secondary sheet",
			zap.Int("filled", filled), zap.String("idField", idField))
	}
	return filled
}
