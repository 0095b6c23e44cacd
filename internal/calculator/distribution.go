package calculator

import (
	"sort"
	"strconv"
	"time"

	"soccentral/internal/model"
	"soccentral/internal/parser"
)

// maxDistributionKeys 分布统计保留的最大去重取值数。
// 只有一个取值的没有信息量，超过上限的多半是自由文本，都不保留
const maxDistributionKeys = 20

// buildAnalytics 汇总所有实体的分布统计、日期范围和跨表数值合计
func (c *Calculator) buildAnalytics(out *parser.ParseOutput) *model.Analytics {
	analytics := &model.Analytics{
		Distributions: map[string]map[string]int{},
	}

	for _, name := range out.Order {
		e := out.Entities[name]
		for key, dist := range buildEntityDistributions(e) {
			analytics.Distributions[name+"."+key] = dist
		}
	}
	if len(analytics.Distributions) == 0 {
		analytics.Distributions = nil
	}

	analytics.DateRange = detectDateRange(out)

	if out.ToolType == "generic" {
		analytics.Totals = crossSheetTotals(out)
	}

	return analytics
}

// buildEntityDistributions 对枚举和布尔字段做 取值→计数
func buildEntityDistributions(e *parser.EntityData) map[string]map[string]int {
	result := map[string]map[string]int{}

	for _, p := range e.Profiles {
		if p.Type != parser.TypeCategorical && p.Type != parser.TypeBoolean {
			continue
		}
		key := p.Canonical
		if key == "" {
			key = p.Name
		}
		if key == "" {
			continue
		}

		dist := map[string]int{}
		for _, rec := range e.Records {
			switch v := rec[key].(type) {
			case string:
				if v != "" {
					dist[v]++
				}
			case bool:
				dist[strconv.FormatBool(v)]++
			}
		}
		if len(dist) > 1 && len(dist) <= maxDistributionKeys {
			result[key] = dist
		}
	}

	return result
}

// detectDateRange 扫所有实体的主日期列，返回覆盖的闭区间。
// 动态路径没有声明主日期，退而扫画像判成日期的列
func detectDateRange(out *parser.ParseOutput) *model.DateRange {
	var minT, maxT time.Time
	seen := false

	collect := func(s string) {
		t, ok := parser.ParseFlexibleDate(s)
		if !ok {
			return
		}
		if !seen || t.Before(minT) {
			minT = t
		}
		if !seen || t.After(maxT) {
			maxT = t
		}
		seen = true
	}

	for _, e := range out.Entities {
		keys := dateKeys(e)
		for _, rec := range e.Records {
			for _, key := range keys {
				if s, ok := rec[key].(string); ok && s != "" {
					collect(s)
				}
			}
		}
	}

	if !seen {
		return nil
	}
	return &model.DateRange{
		Start: parser.FormatDate(minT),
		End:   parser.FormatDate(maxT),
	}
}

// dateKeys 某实体上要扫日期的记录键
func dateKeys(e *parser.EntityData) []string {
	if e.DateField != "" {
		return []string{e.DateField}
	}
	var keys []string
	for _, p := range e.Profiles {
		if p.Type == parser.TypeDate || p.Type == parser.TypeDateTime {
			key := p.Canonical
			if key == "" {
				key = p.Name
			}
			if key != "" {
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// crossSheetTotals 跨表数值合计。
// 同名列在至少两张表里出现且都判成数值时才累加，类型不一致的不碰
func crossSheetTotals(out *parser.ParseOutput) map[string]float64 {
	type colStat struct {
		sheets  int
		numeric int
		sum     float64
	}
	stats := map[string]*colStat{}

	for _, name := range out.Order {
		e := out.Entities[name]
		for _, p := range e.Profiles {
			if p.Name == "" {
				continue
			}
			st := stats[p.Name]
			if st == nil {
				st = &colStat{}
				stats[p.Name] = st
			}
			st.sheets++
			if p.Type != parser.TypeNumeric {
				continue
			}
			st.numeric++
			for _, rec := range e.Records {
				st.sum += parser.ToFloat(rec[p.Name], 0)
			}
		}
	}

	totals := map[string]float64{}
	for name, st := range stats {
		if st.sheets >= 2 && st.numeric == st.sheets {
			totals[name] = parser.Round2(st.sum)
		}
	}
	if len(totals) == 0 {
		return nil
	}
	return totals
}

// TopValues 分布里按计数排序的前 n 个取值，导出报表用
func TopValues(dist map[string]int, n int) []string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if dist[keys[i]] != dist[keys[j]] {
			return dist[keys[i]] > dist[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n > 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
