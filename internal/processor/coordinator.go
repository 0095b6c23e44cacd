package processor

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"soccentral/internal/calculator"
	"soccentral/internal/config"
	"soccentral/internal/model"
	"soccentral/internal/parser"
	"soccentral/internal/store"
)

// Coordinator 处理协调器：一次上传从打开工作簿到落库的全流程
type Coordinator struct {
	store   *store.Store
	aliases *parser.AliasTable
	log     *zap.Logger

	// mu 保护引擎参数的运行时调整（PATCH /api/config）
	mu         sync.RWMutex
	engine     config.EngineConfig
	calc       *calculator.Calculator
	normalizer *parser.Normalizer
}

// NewCoordinator 创建处理协调器
func NewCoordinator(st *store.Store, cfg *config.AppConfig, log *zap.Logger) (*Coordinator, error) {
	aliases, err := parser.LoadAliasTable()
	if err != nil {
		return nil, fmt.Errorf("failed to load alias table: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coordinator{
		store:   st,
		aliases: aliases,
		log:     log,
	}
	c.Reconfigure(cfg.Engine)
	return c, nil
}

// Reconfigure 替换引擎参数，对之后的处理生效，进行中的处理不受影响
func (c *Coordinator) Reconfigure(engine config.EngineConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = engine
	c.calc = calculator.New(engine.Score)
	c.normalizer = parser.NewNormalizer(
		engine.PartialMatchThreshold,
		engine.RowCap,
		engine.SyntheticDateWindowDays,
		c.log,
	)
}

// ProcessOptions 处理选项
type ProcessOptions struct {
	UploadID string
	FilePath string
	Filename string
	// Activate 处理成功后立即设为该工具类型的当前数据集
	Activate bool
}

// Run 在后台执行处理流程，返回进度通道。
// 通道最后一条是 StageResult 事件，Data 字段携带完整处理结果；
// 读完整个通道即拿到结果，无需另行查询。
func (c *Coordinator) Run(opts ProcessOptions) <-chan model.ProgressEvent {
	events := make(chan model.ProgressEvent, 100)

	go func() {
		defer close(events)
		result := c.ProcessFile(opts, events)
		// 结果事件不能丢，阻塞发送
		events <- model.ProgressEvent{
			Stage:   model.StageResult,
			Percent: 100,
			Message: "处理完成",
			Data:    result,
		}
	}()

	return events
}

// ProcessFile 同步处理一个工作簿文件，进度事件写给 progress（可为 nil）。
// 返回的结果总是可以直接序列化；只有工作簿打不开这一种情况 Success 为 false，
// 缺表、坏列、坏单元格都在解析层降级吸收，照常出结果。
func (c *Coordinator) ProcessFile(opts ProcessOptions, progress chan<- model.ProgressEvent) *model.Result {
	start := time.Now()
	c.sendProgress(progress, model.StageOpen, 5, "正在打开工作簿...")

	// 参数快照，处理期间不受 Reconfigure 影响
	c.mu.RLock()
	normalizer := c.normalizer
	calc := c.calc
	enrichMin := c.engine.EnrichMinConfidence
	c.mu.RUnlock()

	f, err := excelize.OpenFile(opts.FilePath)
	if err != nil {
		c.log.Error("failed to open workbook",
			zap.String("file", opts.Filename), zap.Error(err))
		result := model.FailedResult(opts.Filename, fmt.Errorf("failed to open workbook: %w", err))
		c.persist(opts, result)
		c.sendProgress(progress, model.StageDone, 100, "工作簿打开失败")
		return result
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	detect := parser.DetectToolType(opts.Filename, sheetNames, c.aliases)
	c.sendProgress(progress, model.StageDetect, 15,
		fmt.Sprintf("识别为 %s (置信度 %.2f)", detect.ToolType, detect.Confidence))
	c.log.Info("tool type detected",
		zap.String("file", opts.Filename),
		zap.String("toolType", detect.ToolType),
		zap.Float64("confidence", detect.Confidence))

	var out *parser.ParseOutput
	if tool := c.aliases.Tool(detect.ToolType); tool != nil {
		out = normalizer.ParseWorkbook(f, tool, enrichMin)
	} else {
		out = normalizer.ParseGeneric(f)
	}
	c.sendProgress(progress, model.StageNormalize, 60,
		fmt.Sprintf("规范化完成: %d 个实体, %d 行", len(out.Entities), out.TotalRows()))

	kpis, analytics := calc.Compute(out)
	c.sendProgress(progress, model.StageCompute, 75, "KPI 计算完成")

	result := c.assemble(opts.Filename, out, kpis, analytics)
	parser.SanitizeResult(result)

	c.sendProgress(progress, model.StagePersist, 90, "正在保存结果...")
	c.persist(opts, result)

	c.log.Info("workbook processed",
		zap.String("file", opts.Filename),
		zap.String("toolType", result.FileType),
		zap.Int("rows", out.TotalRows()),
		zap.Duration("duration", time.Since(start)))
	c.sendProgress(progress, model.StageDone, 100, "处理完成")
	return result
}

// assemble 组装对外结果
func (c *Coordinator) assemble(filename string, out *parser.ParseOutput, kpis map[string]any, analytics *model.Analytics) *model.Result {
	details := make(map[string][]model.Record, len(out.Entities))
	rowCounts := make(map[string]int, len(out.Entities))
	synthetic := map[string]bool{}
	for _, name := range out.Order {
		e := out.Entities[name]
		details[name] = e.Records
		rowCounts[name] = len(e.Records)
		if e.SyntheticDates {
			synthetic[name] = true
		}
	}
	if len(synthetic) == 0 {
		synthetic = nil
	}

	return &model.Result{
		FileType:  out.ToolType,
		Success:   true,
		KPIs:      kpis,
		Details:   details,
		Analytics: analytics,
		Metadata: model.Metadata{
			ProcessedAt:    parser.FormatDateTime(time.Now()),
			SourceFile:     filename,
			SheetNames:     out.SheetNames,
			RowCounts:      rowCounts,
			SyntheticDates: synthetic,
			Warnings:       out.Warnings,
		},
	}
}

// persist 结果落库并回写上传状态。存储失败只记日志，不影响返回结果
func (c *Coordinator) persist(opts ProcessOptions, result *model.Result) {
	if c.store == nil || opts.UploadID == "" {
		return
	}

	status := model.UploadDone
	if !result.Success {
		status = model.UploadFailed
	}

	payload, err := json.Marshal(result)
	if err != nil {
		c.log.Error("failed to marshal result", zap.Error(err))
		status = model.UploadFailed
	} else if result.Success {
		if err := c.store.SaveResult(opts.UploadID, payload); err != nil {
			c.log.Error("failed to save result", zap.Error(err))
			status = model.UploadFailed
		}
	}

	totalRows := 0
	for _, records := range result.Details {
		totalRows += len(records)
	}
	if err := c.store.FinishUpload(opts.UploadID, result.FileType, status,
		len(result.Metadata.SheetNames), totalRows,
		result.Metadata.HasSyntheticDates(), result.Error); err != nil {
		c.log.Error("failed to update upload", zap.Error(err))
		return
	}

	if opts.Activate && status == model.UploadDone {
		if err := c.store.ActivateUpload(opts.UploadID); err != nil {
			c.log.Error("failed to activate upload", zap.Error(err))
		}
	}
}

// sendProgress 非阻塞发送进度事件，通道满了直接丢
func (c *Coordinator) sendProgress(ch chan<- model.ProgressEvent, stage string, percent int, message string) {
	if ch == nil {
		return
	}
	select {
	case ch <- model.ProgressEvent{Stage: stage, Percent: percent, Message: message}:
	default:
	}
}
