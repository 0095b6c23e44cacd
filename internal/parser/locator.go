package parser

import "strings"

// FindSheet 按别名片段在工作簿的表名里找目标表。
// 大小写不敏感、双向包含（别名含于表名或表名含于别名），
// 按表的原始顺序返回第一个命中；找不到返回空串，表示该实体不存在。
func FindSheet(sheetNames, aliases []string) string {
	for _, sheet := range sheetNames {
		s := strings.ToLower(strings.TrimSpace(sheet))
		if s == "" {
			continue
		}
		for _, alias := range aliases {
			a := strings.ToLower(strings.TrimSpace(alias))
			if a == "" {
				continue
			}
			if strings.Contains(s, a) || strings.Contains(a, s) {
				return sheet
			}
		}
	}
	return ""
}
