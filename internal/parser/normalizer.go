package parser

import (
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"soccentral/internal/model"
)

// Normalizer 把定位到的 sheet 规范化成统一的实体记录表
type Normalizer struct {
	mapper         *Mapper
	rowCap         int
	dateWindowDays int
	log            *zap.Logger
}

// NewNormalizer 创建规范化器
func NewNormalizer(partialThreshold float64, rowCap, dateWindowDays int, log *zap.Logger) *Normalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Normalizer{
		mapper:         NewMapper(partialThreshold),
		rowCap:         rowCap,
		dateWindowDays: dateWindowDays,
		log:            log,
	}
}

// EntityData 一个实体表的规范化产出
type EntityData struct {
	Entity    string
	SheetName string
	// DateField 主日期的规范字段名，空串表示没有时间维度
	DateField string
	Records   []model.Record
	Profiles  []ColumnProfile
	Mapping   *MappingResult
	// SyntheticDates 主日期是合成值，下游画趋势前必须看这个标记
	SyntheticDates bool
	Truncated      bool
}

// idPlan 标识字段的取值计划，normalize 前定好，逐行执行
type idPlan struct {
	col       int // 直接取值的列，-1 表示没有
	serialCol int // 序列号兜底列，-1 表示没有
	prefix    string
}

// datePlan 主日期字段的取值计划
type datePlan struct {
	extractCol int // 要做文本抽取的列（状态串内嵌时间戳），-1 表示没有
	synthetic  bool
	dates      []string // 合成日期，按行位置取
}

// NormalizeEntity 定位并规范化一个实体表。
// sheet 不存在返回空记录集，不算错误；读表失败降级为空记录集并记日志；
// 单元格级的坏值就地用该类型的默认值顶替。这一层不向上抛错，
// 工作簿打不开的致命错误在更外层处理。
func (n *Normalizer) NormalizeEntity(f *excelize.File, spec EntitySpec) *EntityData {
	data := &EntityData{
		Entity:    spec.Name,
		DateField: spec.DateField,
		Records:   []model.Record{},
	}

	sheet := FindSheet(f.GetSheetList(), spec.SheetAliases)
	if sheet == "" {
		n.log.Info("sheet not found for entity",
			zap.String("entity", spec.Name))
		return data
	}
	data.SheetName = sheet

	table, err := ReadTable(f, sheet, n.rowCap)
	if err != nil {
		n.log.Warn("failed to read sheet, entity degraded to empty",
			zap.String("sheet", sheet), zap.Error(err))
		return data
	}
	data.Truncated = table.Truncated
	if table.Truncated {
		n.log.Warn("sheet truncated at row cap",
			zap.String("sheet", sheet), zap.Int("rowCap", n.rowCap))
	}

	mapping := n.mapper.Map(table.Headers, spec.Fields)
	data.Mapping = mapping
	for _, c := range mapping.Conflicts {
		n.log.Warn("ambiguous column skipped",
			zap.String("sheet", sheet), zap.String("column", c))
	}

	profiles := ClassifyTable(table)
	for idx, canonical := range mapping.ByColumn {
		profiles[idx].Canonical = canonical
	}

	ip := n.planIdentifier(spec, table.Headers, mapping, profiles)
	dp := n.planDate(spec, table, mapping, profiles)
	data.Profiles = profiles
	data.SyntheticDates = dp.synthetic
	if dp.synthetic {
		n.log.Warn("no usable date column, fabricating dates in window",
			zap.String("sheet", sheet),
			zap.String("entity", spec.Name),
			zap.Int("windowDays", n.dateWindowDays))
	}

	consumed := map[int]struct{}{}
	if ip.col >= 0 {
		consumed[ip.col] = struct{}{}
	}
	if ip.serialCol >= 0 {
		consumed[ip.serialCol] = struct{}{}
	}

	dateType := spec.FieldType(spec.DateField)

	for rowIdx, row := range table.Rows {
		rec := make(model.Record, len(spec.Fields)+4)

		// 规范字段：没映射到的列按类型填默认值，保证字段集合统一
		for _, field := range spec.Fields {
			col, mapped := mapping.ByField[field.Canonical]
			if !mapped {
				rec[field.Canonical] = fillValue(field.Type)
				continue
			}
			rec[field.Canonical] = coerceCell(row[col], field.Type)
		}

		// 标识兜底链：映射列 → 名称列 → 序列号派生 → 行号
		rec[spec.IDField] = resolveIdentifier(row, ip, rowIdx)

		// 主日期兜底链
		if spec.DateField != "" {
			if dp.synthetic {
				rec[spec.DateField] = dp.dates[rowIdx]
			} else if dp.extractCol >= 0 && rec[spec.DateField] == nil {
				if t, ok := ExtractDateFromText(row[dp.extractCol]); ok {
					rec[spec.DateField] = formatForType(t, dateType, row[dp.extractCol])
				}
			}
		}

		// 未映射列按原始列名保留，尽量不丢数据
		for _, idx := range mapping.Unmapped {
			if _, used := consumed[idx]; used {
				continue
			}
			header := table.Headers[idx]
			if header == "" {
				continue
			}
			if _, exists := rec[header]; exists {
				continue
			}
			rec[header] = coerceCell(row[idx], profiles[idx].Type)
		}

		data.Records = append(data.Records, rec)
	}

	n.log.Debug("entity normalized",
		zap.String("entity", spec.Name),
		zap.String("sheet", sheet),
		zap.Int("rows", len(data.Records)),
		zap.Int("mappedColumns", len(mapping.ByColumn)))

	return data
}

// FieldType 查某个规范字段声明的语义类型
func (s EntitySpec) FieldType(canonical string) SemanticType {
	for _, f := range s.Fields {
		if f.Canonical == canonical {
			return f.Type
		}
	}
	return TypeText
}

// planIdentifier 定标识来源。
// 顺序：映射到的标识列；未映射列里带名称关键词的；序列号列派生；最后行号兜底
func (n *Normalizer) planIdentifier(spec EntitySpec, headers []string, mapping *MappingResult, profiles []ColumnProfile) idPlan {
	plan := idPlan{col: -1, serialCol: -1, prefix: spec.FallbackPrefix}
	if plan.prefix == "" {
		plan.prefix = spec.Name
	}

	if col, ok := mapping.ByField[spec.IDField]; ok {
		plan.col = col
	} else {
		for _, idx := range mapping.Unmapped {
			h := strings.ToLower(headers[idx])
			if ContainsAny(h, idNameKeywords) && profiles[idx].Type != TypeNumeric {
				plan.col = idx
				break
			}
		}
	}

	if col, ok := mapping.ByField["serialNumber"]; ok {
		plan.serialCol = col
	} else {
		for _, idx := range mapping.Unmapped {
			if idx == plan.col {
				continue
			}
			if ContainsAny(strings.ToLower(headers[idx]), idSerialKeywords) {
				plan.serialCol = idx
				break
			}
		}
	}

	return plan
}

var (
	idNameKeywords   = []string{"name", "hostname", "host", "device", "computer", "user", "名称"}
	idSerialKeywords = []string{"serial", "uuid", "guid", "udid", "imei"}
)

// resolveIdentifier 逐行执行标识兜底链，保证返回非空
func resolveIdentifier(row []string, plan idPlan, rowIdx int) string {
	if plan.col >= 0 && plan.col < len(row) {
		if v := strings.TrimSpace(row[plan.col]); v != "" {
			return v
		}
	}
	if plan.serialCol >= 0 && plan.serialCol < len(row) {
		if v := strings.TrimSpace(row[plan.serialCol]); v != "" {
			// 长序列号截短到可读长度
			if len(v) > 12 {
				v = v[:12]
			}
			return plan.prefix + "-" + v
		}
	}
	return fmt.Sprintf("%s-%03d", plan.prefix, rowIdx+1)
}

// planDate 定主日期来源。
// 顺序：映射到的日期列；未映射列里内容判成日期的（就地采纳进映射）；
// 已映射的非日期列里能抽出内嵌时间戳的；都没有则在窗口内均匀合成
func (n *Normalizer) planDate(spec EntitySpec, table *Table, mapping *MappingResult, profiles []ColumnProfile) datePlan {
	plan := datePlan{extractCol: -1}
	if spec.DateField == "" {
		return plan
	}

	if _, ok := mapping.ByField[spec.DateField]; ok {
		return plan
	}

	for _, idx := range mapping.Unmapped {
		if profiles[idx].Type == TypeDate || profiles[idx].Type == TypeDateTime {
			mapping.ByColumn[idx] = spec.DateField
			mapping.ByField[spec.DateField] = idx
			profiles[idx].Canonical = spec.DateField
			mapping.Unmapped = removeIndex(mapping.Unmapped, idx)
			return plan
		}
	}

	for idx := range table.Headers {
		canonical, claimed := mapping.ByColumn[idx]
		if !claimed || canonical == spec.DateField {
			continue
		}
		if profiles[idx].Type == TypeDate || profiles[idx].Type == TypeDateTime {
			plan.extractCol = idx
			return plan
		}
	}

	plan.synthetic = true
	plan.dates = n.fabricateDates(table.SheetName, len(table.Rows))
	return plan
}

// fabricateDates 在回溯窗口内均匀合成日期。
// 种子由表名和行数决定，同一输入同一天内重跑结果一致
func (n *Normalizer) fabricateDates(sheet string, count int) []string {
	h := fnv.New64a()
	h.Write([]byte(sheet))
	seed := int64(h.Sum64()&0x7fffffffffff) + int64(count)

	faker := gofakeit.New(seed)
	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -n.dateWindowDays)

	out := make([]string, count)
	for i := range out {
		out[i] = FormatDate(faker.DateRange(start, end))
	}
	return out
}

// coerceCell 按字段语义类型转换单元格，坏值落到该类型的默认值
func coerceCell(cell string, t SemanticType) any {
	cell = strings.TrimSpace(cell)
	switch t {
	case TypeNumeric:
		return ToFloat(cell, 0)
	case TypeBoolean:
		return ParseFlexibleBool(cell)
	case TypeDate, TypeDateTime:
		tm, ok := ExtractDateFromText(cell)
		if !ok {
			return nil
		}
		return formatForType(tm, t, cell)
	default:
		return cell
	}
}

// formatForType 按声明粒度输出日期字符串
func formatForType(t time.Time, fieldType SemanticType, raw string) string {
	if fieldType == TypeDate || !HasTimePart(raw) {
		return FormatDate(t)
	}
	return FormatDateTime(t)
}

// fillValue 缺列时的默认值：日期 null、数值 0、布尔 false、文本空串
func fillValue(t SemanticType) any {
	switch t {
	case TypeNumeric:
		return 0.0
	case TypeBoolean:
		return false
	case TypeDate, TypeDateTime:
		return nil
	default:
		return ""
	}
}

func removeIndex(list []int, idx int) []int {
	out := list[:0]
	for _, v := range list {
		if v != idx {
			out = append(out, v)
		}
	}
	return out
}
