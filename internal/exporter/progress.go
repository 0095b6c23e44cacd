package exporter

// ProgressEvent 导出进度事件，回调给 SSE 推送
type ProgressEvent struct {
	Percent int
	Stage   string
}

// reportProgress 回调进度，Percent 夹在 0~100，未设置回调时为空操作
func reportProgress(progress func(ProgressEvent), percent int, stage string) {
	if progress == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	progress(ProgressEvent{
		Percent: percent,
		Stage:   stage,
	})
}
