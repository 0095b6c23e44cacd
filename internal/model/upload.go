package model

import "time"

// Upload 一次上传的登记信息，对应 store 里的 uploads 表
type Upload struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ToolType       string    `json:"toolType"`
	Status         string    `json:"status"` // processing / done / failed
	SheetCount     int       `json:"sheetCount"`
	RowCount       int       `json:"rowCount"`
	SyntheticDates bool      `json:"syntheticDates"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UploadStatus 取值
const (
	UploadProcessing = "processing"
	UploadDone       = "done"
	UploadFailed     = "failed"
)

// AccessLog 接口访问流水，对应 access_log 表
type AccessLog struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
	Status    int       `json:"status"`
	ClientIP  string    `json:"clientIp"`
	CreatedAt time.Time `json:"createdAt"`
}
