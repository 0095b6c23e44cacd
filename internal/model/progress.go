package model

// ProgressEvent 处理过程中的进度事件，经 SSE 推给前端。
// Percent 取 0~100，Stage 固定枚举，Message 为面向用户的中文描述。
// StageResult 事件的 Data 携带最终处理结果。
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// 处理阶段
const (
	StageOpen      = "open"
	StageDetect    = "detect"
	StageNormalize = "normalize"
	StageCompute   = "compute"
	StagePersist   = "persist"
	StageDone      = "done"
	StageResult    = "result"
)
