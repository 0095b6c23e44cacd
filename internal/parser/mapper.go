package parser

import "strings"

// Mapper 列映射器
type Mapper struct {
	threshold float64
}

// NewMapper 创建列映射器，threshold 为部分匹配的接受阈值
func NewMapper(threshold float64) *Mapper {
	return &Mapper{threshold: threshold}
}

// Map 把表头映射到规范字段。
// 第一遍按字段声明顺序做别名精确匹配；第二遍对剩余列做部分匹配，
// 得分 = 重叠长度 / max(别名长度, 列名长度)，必须严格大于阈值且唯一最高。
// 同一源列至多认领一次，同一规范字段至多产出一次，冲突的列跳过并记录。
func (m *Mapper) Map(headers []string, fields []FieldAlias) *MappingResult {
	res := &MappingResult{
		ByColumn:      make(map[int]string),
		ByField:       make(map[string]int),
		PartialScores: make(map[int]float64),
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToLower(NormalizeColumnName(h))
	}

	// 第一遍：精确匹配
	for _, field := range fields {
		if _, taken := res.ByField[field.Canonical]; taken {
			continue
		}
		for _, alias := range field.Aliases {
			a := strings.ToLower(NormalizeColumnName(alias))
			if a == "" {
				continue
			}
			found := false
			for idx, col := range normalized {
				if col != a {
					continue
				}
				if _, claimed := res.ByColumn[idx]; claimed {
					// 重复表头，只认第一次出现
					res.Conflicts = append(res.Conflicts, headers[idx])
					continue
				}
				res.ByColumn[idx] = field.Canonical
				res.ByField[field.Canonical] = idx
				found = true
				break
			}
			if found {
				break
			}
		}
	}

	// 第二遍：对未认领的列做部分匹配
	for idx, col := range normalized {
		if col == "" {
			continue
		}
		if _, claimed := res.ByColumn[idx]; claimed {
			continue
		}

		best, second := 0.0, 0.0
		bestField := ""
		for _, field := range fields {
			if _, taken := res.ByField[field.Canonical]; taken {
				continue
			}
			fieldBest := 0.0
			for _, alias := range field.Aliases {
				s := partialScore(col, strings.ToLower(NormalizeColumnName(alias)))
				if s > fieldBest {
					fieldBest = s
				}
			}
			if fieldBest > best {
				second = best
				best = fieldBest
				bestField = field.Canonical
			} else if fieldBest > second {
				second = fieldBest
			}
		}

		if bestField == "" || best <= m.threshold {
			continue
		}
		if best == second {
			// 两个字段得分并列，宁可不映射也不猜
			res.Conflicts = append(res.Conflicts, headers[idx])
			continue
		}
		res.ByColumn[idx] = bestField
		res.ByField[bestField] = idx
		res.PartialScores[idx] = best
	}

	for idx := range headers {
		if _, claimed := res.ByColumn[idx]; !claimed {
			res.Unmapped = append(res.Unmapped, idx)
		}
	}

	return res
}

// partialScore 双向包含的重叠率。
// 短串整体含于长串时为 len(短)/len(长)，否则 0，长度按 rune 计
func partialScore(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
