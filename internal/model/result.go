package model

// Result 一次解析（文件上传或实时拉取）的完整产出。
// 序列化前必须整体过一次 SanitizeForJSON，保证所有数值有限、日期为 ISO 字符串。
type Result struct {
	FileType  string              `json:"fileType"`
	Success   bool                `json:"success"`
	KPIs      map[string]any      `json:"kpis"`
	Details   map[string][]Record `json:"details"`
	Analytics *Analytics          `json:"analytics,omitempty"`
	Metadata  Metadata            `json:"metadata"`
	Error     string              `json:"error,omitempty"`
}

// Analytics 分布统计与跨实体汇总
type Analytics struct {
	// Distributions key 形如 "endpoints.osName"，值为 取值→计数
	Distributions map[string]map[string]int `json:"distributions,omitempty"`
	// Totals 动态路径下各表行数等跨实体汇总
	Totals    map[string]float64 `json:"totals,omitempty"`
	DateRange *DateRange         `json:"dateRange,omitempty"`
}

// DateRange 主日期字段覆盖的闭区间，ISO 日期字符串
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Metadata 解析过程的元信息。SyntheticDates 标记哪些实体的日期是引擎
// 在窗口内均匀补出来的，下游展示趋势图前必须检查这个标记。
type Metadata struct {
	ProcessedAt    string          `json:"processedAt"`
	SourceFile     string          `json:"sourceFile,omitempty"`
	SheetNames     []string        `json:"sheetNames"`
	RowCounts      map[string]int  `json:"rowCounts,omitempty"`
	SyntheticDates map[string]bool `json:"syntheticDates,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// HasSyntheticDates 任一实体日期为合成值时为真
func (m Metadata) HasSyntheticDates() bool {
	for _, v := range m.SyntheticDates {
		if v {
			return true
		}
	}
	return false
}

// FailedResult 工作簿级失败的兜底返回，唯一允许 success=false 的出口
func FailedResult(filename string, err error) *Result {
	return &Result{
		FileType: "unknown",
		Success:  false,
		KPIs:     map[string]any{},
		Details:  map[string][]Record{},
		Metadata: Metadata{SourceFile: filename, SheetNames: []string{}},
		Error:    err.Error(),
	}
}
