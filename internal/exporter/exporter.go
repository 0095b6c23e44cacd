package exporter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"soccentral/internal/calculator"
	"soccentral/internal/model"
)

// Exporter 分析报表导出器。
// 没有固定模板：上传的表结构是推断出来的，报表也随结果动态生成，
// 固定为 KPI 汇总页 + 分布统计页 + 各实体明细页。
type Exporter struct {
	result *model.Result
}

// NewExporter 创建导出器
func NewExporter(result *model.Result) *Exporter {
	return &Exporter{result: result}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Progress func(ProgressEvent)
}

const summarySheet = "汇总"

// Export 生成报表工作簿
func (e *Exporter) Export(opts ExportOptions) (*excelize.File, error) {
	if e.result == nil {
		return nil, fmt.Errorf("no result to export")
	}

	reportProgress(opts.Progress, 5, "准备工作簿")

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	if err := e.fillSummarySheet(f, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 30, "KPI 汇总完成")

	if err := e.fillDistributionSheet(f, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	reportProgress(opts.Progress, 45, "分布统计完成")

	entities := sortedEntityNames(e.result.Details)
	for i, name := range entities {
		if err := e.fillDetailSheet(f, headerStyle, name, e.result.Details[name]); err != nil {
			_ = f.Close()
			return nil, err
		}
		percent := 45 + (i+1)*50/len(entities)
		reportProgress(opts.Progress, percent, fmt.Sprintf("明细写入: %s", name))
	}

	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "导出完成")
	return f, nil
}

// fillSummarySheet 写 KPI 汇总页：元信息、KPI 指标、警告
func (e *Exporter) fillSummarySheet(f *excelize.File, headerStyle int) error {
	r := e.result

	rows := [][]interface{}{
		{"指标", "数值"},
		{"报表类型", r.FileType},
		{"来源", r.Metadata.SourceFile},
		{"处理时间", r.Metadata.ProcessedAt},
		{"数据表", strings.Join(r.Metadata.SheetNames, ", ")},
	}

	for _, key := range sortedKPIKeys(r.KPIs) {
		switch v := r.KPIs[key].(type) {
		case map[string]int:
			// 嵌套分布拆成多行
			subKeys := make([]string, 0, len(v))
			for k := range v {
				subKeys = append(subKeys, k)
			}
			sort.Strings(subKeys)
			for _, sub := range subKeys {
				rows = append(rows, []interface{}{key + "." + sub, v[sub]})
			}
		case map[string]any:
			subKeys := make([]string, 0, len(v))
			for k := range v {
				subKeys = append(subKeys, k)
			}
			sort.Strings(subKeys)
			for _, sub := range subKeys {
				rows = append(rows, []interface{}{key + "." + sub, v[sub]})
			}
		default:
			rows = append(rows, []interface{}{key, v})
		}
	}

	if r.Metadata.HasSyntheticDates() {
		rows = append(rows, []interface{}{"说明", "部分日期缺失，趋势图使用合成日期"})
	}
	for _, w := range r.Metadata.Warnings {
		rows = append(rows, []interface{}{"警告", w})
	}

	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summarySheet, cell, val); err != nil {
				return fmt.Errorf("failed to write summary cell %s: %w", cell, err)
			}
		}
	}

	f.SetRowStyle(summarySheet, 1, 1, headerStyle)
	f.SetColWidth(summarySheet, "A", "A", 32)
	f.SetColWidth(summarySheet, "B", "B", 48)
	return nil
}

// fillDistributionSheet 写字段取值分布页，没有分布数据时跳过
func (e *Exporter) fillDistributionSheet(f *excelize.File, headerStyle int) error {
	a := e.result.Analytics
	if a == nil || len(a.Distributions) == 0 {
		return nil
	}

	sheet := "分布统计"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	rows := [][]interface{}{{"字段", "取值", "数量"}}

	fields := make([]string, 0, len(a.Distributions))
	for k := range a.Distributions {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	for _, field := range fields {
		dist := a.Distributions[field]
		for _, value := range calculator.TopValues(dist, 0) {
			rows = append(rows, []interface{}{field, value, dist[value]})
		}
	}

	if a.DateRange != nil {
		rows = append(rows, []interface{}{"日期范围", a.DateRange.Start + " ~ " + a.DateRange.End, ""})
	}

	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to write distribution cell %s: %w", cell, err)
			}
		}
	}

	f.SetRowStyle(sheet, 1, 1, headerStyle)
	f.SetColWidth(sheet, "A", "B", 28)
	f.SetColWidth(sheet, "C", "C", 12)
	return nil
}

// fillDetailSheet 写一个实体的明细页，列序取记录键名排序保证稳定
func (e *Exporter) fillDetailSheet(f *excelize.File, headerStyle int, entity string, records []model.Record) error {
	sheet := entity
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := collectColumns(records)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("failed to write header %s: %w", h, err)
		}
	}

	for i, rec := range records {
		row := i + 2
		for j, h := range headers {
			val := rec[h]
			if val == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("failed to write cell %s!%s: %w", sheet, cell, err)
			}
		}
	}

	f.SetRowStyle(sheet, 1, 1, headerStyle)
	if len(headers) > 0 {
		last, err := excelize.ColumnNumberToName(len(headers))
		if err == nil {
			f.SetColWidth(sheet, "A", last, 20)
		}
	}
	return nil
}

// collectColumns 收集记录里出现过的全部键并排序
func collectColumns(records []model.Record) []string {
	seen := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			seen[k] = true
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func sortedEntityNames(details map[string][]model.Record) []string {
	names := make([]string, 0, len(details))
	for k := range details {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func sortedKPIKeys(kpis map[string]any) []string {
	keys := make([]string, 0, len(kpis))
	for k := range kpis {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
