package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"soccentral/internal/model"
)

// ParseOutput 一个工作簿解析后的全部实体数据
type ParseOutput struct {
	ToolType   string
	Entities   map[string]*EntityData
	Order      []string // 实体的稳定输出顺序
	SheetNames []string
	Warnings   []string
}

// TotalRows 所有实体的记录数合计
func (p *ParseOutput) TotalRows() int {
	total := 0
	for _, e := range p.Entities {
		total += len(e.Records)
	}
	return total
}

// ParseWorkbook 按工具规则解析整个工作簿：逐实体定位、映射、规范化，
// 然后执行该工具声明的跨表名称回填。实体缺表不报错，产出空记录集。
func (n *Normalizer) ParseWorkbook(f *excelize.File, tool *ToolSpec, enrichMinConfidence float64) *ParseOutput {
	out := &ParseOutput{
		ToolType:   tool.Type,
		Entities:   map[string]*EntityData{},
		SheetNames: f.GetSheetList(),
	}

	for _, entity := range tool.Entities {
		data := n.NormalizeEntity(f, entity)
		out.Entities[entity.Name] = data
		out.Order = append(out.Order, entity.Name)
		if data.SheetName == "" {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("no sheet matched entity %q", entity.Name))
		}
		if data.Truncated {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("sheet %q truncated at row cap", data.SheetName))
		}
	}

	for _, rule := range tool.Enrich {
		target, source := out.Entities[rule.Target], out.Entities[rule.Source]
		if target == nil || source == nil {
			continue
		}
		var targetSpec *EntitySpec
		for i := range tool.Entities {
			if tool.Entities[i].Name == rule.Target {
				targetSpec = &tool.Entities[i]
			}
		}
		if targetSpec == nil {
			continue
		}
		BackfillNames(target.Records, targetSpec.IDField, targetSpec.FallbackPrefix,
			source.Records, rule.NameField, enrichMinConfidence, n.log)
	}

	return out
}

// ParseGeneric 动态路径：不预设任何实体，逐 sheet 读表、做列画像，
// 记录直接按原始列名落键。未知厂商的导出走这条路
func (n *Normalizer) ParseGeneric(f *excelize.File) *ParseOutput {
	out := &ParseOutput{
		ToolType:   "generic",
		Entities:   map[string]*EntityData{},
		SheetNames: f.GetSheetList(),
	}

	for _, sheet := range out.SheetNames {
		table, err := ReadTable(f, sheet, n.rowCap)
		if err != nil {
			n.log.Warn("skipping unreadable sheet",
				zap.String("sheet", sheet), zap.Error(err))
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("sheet %q unreadable", sheet))
			continue
		}

		profiles := ClassifyTable(table)
		records := make([]model.Record, 0, len(table.Rows))
		for _, row := range table.Rows {
			rec := make(model.Record, len(table.Headers))
			for idx, header := range table.Headers {
				if header == "" {
					continue
				}
				if _, exists := rec[header]; exists {
					continue
				}
				rec[header] = coerceCell(row[idx], profiles[idx].Type)
			}
			records = append(records, rec)
		}

		out.Entities[sheet] = &EntityData{
			Entity:    sheet,
			SheetName: sheet,
			Records:   records,
			Profiles:  profiles,
			Truncated: table.Truncated,
		}
		out.Order = append(out.Order, sheet)
	}

	return out
}
