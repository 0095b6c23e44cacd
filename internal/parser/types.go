package parser

// SemanticType 列的语义类型，由列名关键词加内容采样共同推断
type SemanticType string

const (
	TypeText        SemanticType = "text"
	TypeCategorical SemanticType = "categorical"
	TypeNumeric     SemanticType = "numeric"
	TypeBoolean     SemanticType = "boolean"
	TypeDate        SemanticType = "date"
	TypeDateTime    SemanticType = "datetime"
	TypeIdentifier  SemanticType = "identifier"
)

// FieldAlias 规范字段及其在各家导出里的别名写法
type FieldAlias struct {
	Canonical string       `yaml:"canonical"`
	Type      SemanticType `yaml:"type"`
	Aliases   []string     `yaml:"aliases"`
}

// EntitySpec 一种实体表的定位与映射规则
type EntitySpec struct {
	Name string `yaml:"name"`
	// SheetAliases 用于定位 sheet 的名称片段，全部小写
	SheetAliases []string `yaml:"sheet_aliases"`
	// IDField 标识字段的规范名，解析后每条记录保证非空
	IDField string `yaml:"id_field"`
	// DateField 主日期字段的规范名，空串表示该实体没有时间维度
	DateField string `yaml:"date_field"`
	// FallbackPrefix 兜底标识的前缀，如 "Endpoint" 生成 Endpoint-001
	FallbackPrefix string       `yaml:"fallback_prefix"`
	Fields         []FieldAlias `yaml:"fields"`
}

// EnrichRule 跨表名称回填规则：target 实体的低信息量标识
// 用 source 实体的 name_field 列补可读显示名
type EnrichRule struct {
	Target    string `yaml:"target"`
	Source    string `yaml:"source"`
	NameField string `yaml:"name_field"`
}

// ToolSpec 一种安全工具导出的完整识别规则
type ToolSpec struct {
	Type          string       `yaml:"type"`
	FilenameHints []string     `yaml:"filename_hints"`
	Entities      []EntitySpec `yaml:"entities"`
	Enrich        []EnrichRule `yaml:"enrich"`
}

// Table 从 sheet 读出的原始表：表头 + 字符串单元格
type Table struct {
	SheetName string
	Headers   []string
	Rows      [][]string
	// Truncated 行数超过上限被截断
	Truncated bool
}

// MappingResult 列映射结果。
// 不变量：每个源列至多被认领一次，每个规范字段至多产出一次。
type MappingResult struct {
	// ByColumn 列下标 → 规范字段名
	ByColumn map[int]string
	// ByField 规范字段名 → 列下标
	ByField map[string]int
	// Unmapped 没有匹配到任何规范字段的列下标
	Unmapped []int
	// PartialScores 部分匹配命中的得分，诊断用
	PartialScores map[int]float64
	// Conflicts 因唯一性约束被跳过的列名
	Conflicts []string
}

// ColumnProfile 单列画像：原始列名、推断语义类型与采样统计
type ColumnProfile struct {
	Name      string       `json:"name"`
	Canonical string       `json:"canonical,omitempty"`
	Type      SemanticType `json:"type"`
	Distinct  int          `json:"distinct"`
	NullCount int          `json:"nullCount"`
	Samples   []string     `json:"samples,omitempty"`
}
