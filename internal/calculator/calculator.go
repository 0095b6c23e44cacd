package calculator

import (
	"math"
	"strings"

	"soccentral/internal/config"
	"soccentral/internal/model"
	"soccentral/internal/parser"
)

// 阈值罚分的放大系数
const (
	disconnectedPenaltyScale = 0.5
	criticalPenaltyScale     = 0.8
)

// Calculator KPI 计算器
type Calculator struct {
	score config.ScoreConfig
}

// New 创建计算器
func New(score config.ScoreConfig) *Calculator {
	return &Calculator{score: score}
}

// Compute 按工具类型计算 KPI 和分析汇总
func (c *Calculator) Compute(out *parser.ParseOutput) (map[string]any, *model.Analytics) {
	switch out.ToolType {
	case "edr":
		return c.computeEDR(out)
	case "mdm":
		return c.computeMDM(out)
	default:
		return c.computeGeneric(out)
	}
}

// computeEDR 计算 EDR KPI：终端在线率、合规率、威胁处置率、风险分布、综合评分
func (c *Calculator) computeEDR(out *parser.ParseOutput) (map[string]any, *model.Analytics) {
	endpoints := entityRecords(out, "endpoints")
	threats := entityRecords(out, "threats")

	kpis := map[string]any{}

	// 终端指标
	totalEndpoints := len(endpoints)
	connected := countBool(endpoints, "isConnected")
	upToDate := countBool(endpoints, "isUpToDate")
	availabilityRate := parser.SafePercentage(float64(connected), float64(totalEndpoints), 0)
	complianceRate := parser.SafePercentage(float64(upToDate), float64(totalEndpoints), 0)

	kpis["totalEndpoints"] = totalEndpoints
	kpis["connectedEndpoints"] = connected
	kpis["disconnectedEndpoints"] = totalEndpoints - connected
	kpis["availabilityRate"] = availabilityRate
	kpis["upToDateEndpoints"] = upToDate
	kpis["complianceRate"] = complianceRate

	// 威胁指标：逐条分级并回写 riskLevel
	totalThreats := len(threats)
	resolved := 0
	malicious := 0
	suspicious := 0
	falsePositives := 0
	riskBreakdown := map[string]int{
		RiskCritical: 0, RiskHigh: 0, RiskMedium: 0, RiskLow: 0,
	}
	for _, rec := range threats {
		level := ClassifyRisk(rec)
		rec["riskLevel"] = level
		riskBreakdown[level]++

		if isResolved(rec.GetString("incidentStatus")) || rec.GetBool("mitigated") {
			resolved++
		}
		verdict := strings.ToLower(rec.GetString("analystVerdict"))
		classification := strings.ToLower(rec.GetString("classification"))
		switch {
		case strings.Contains(verdict, "false"):
			falsePositives++
		case isMalicious(classification, verdict):
			malicious++
		case isSuspicious(classification, verdict):
			suspicious++
		}
	}
	resolutionRate := parser.SafePercentage(float64(resolved), float64(totalThreats), 0)

	kpis["totalThreats"] = totalThreats
	kpis["resolvedThreats"] = resolved
	kpis["unresolvedThreats"] = totalThreats - resolved
	kpis["resolutionRate"] = resolutionRate
	kpis["maliciousCount"] = malicious
	kpis["suspiciousCount"] = suspicious
	kpis["falsePositiveCount"] = falsePositives
	kpis["riskBreakdown"] = riskBreakdown

	// 综合评分
	severeCount := riskBreakdown[RiskCritical] + riskBreakdown[RiskHigh]
	severityScore := 100 - parser.SafePercentage(float64(severeCount), float64(totalThreats), 0)
	disconnectedPct := parser.SafePercentage(float64(totalEndpoints-connected), float64(totalEndpoints), 0)
	criticalPct := parser.SafePercentage(float64(riskBreakdown[RiskCritical]), float64(totalThreats), 0)

	kpis["securityScore"] = c.securityScore(scoreInput{
		availability:    availabilityRate,
		compliance:      complianceRate,
		response:        resolutionRate,
		severity:        severityScore,
		hasAvailability: totalEndpoints > 0,
		hasThreats:      totalThreats > 0,
		disconnectedPct: disconnectedPct,
		criticalPct:     criticalPct,
	})

	return kpis, c.buildAnalytics(out)
}

// computeMDM 计算 MDM KPI：纳管率、合规率、受监管率、更新完成率、综合评分
func (c *Calculator) computeMDM(out *parser.ParseOutput) (map[string]any, *model.Analytics) {
	devices := entityRecords(out, "devices")
	updates := entityRecords(out, "updates")

	kpis := map[string]any{}

	totalDevices := len(devices)
	managed := countBool(devices, "isManaged")
	compliant := countBool(devices, "isCompliant")
	supervised := countBool(devices, "isSupervised")
	managementRate := parser.SafePercentage(float64(managed), float64(totalDevices), 0)
	complianceRate := parser.SafePercentage(float64(compliant), float64(totalDevices), 0)

	kpis["totalDevices"] = totalDevices
	kpis["managedDevices"] = managed
	kpis["managementRate"] = managementRate
	kpis["compliantDevices"] = compliant
	kpis["complianceRate"] = complianceRate
	kpis["supervisedDevices"] = supervised
	kpis["supervisionRate"] = parser.SafePercentage(float64(supervised), float64(totalDevices), 0)

	totalUpdates := len(updates)
	completed := 0
	failed := 0
	for _, rec := range updates {
		status := strings.ToLower(rec.GetString("status"))
		switch {
		case strings.Contains(status, "complet") || strings.Contains(status, "success") || strings.Contains(status, "install"):
			completed++
		case strings.Contains(status, "fail") || strings.Contains(status, "error"):
			failed++
		}
	}
	completionRate := parser.SafePercentage(float64(completed), float64(totalUpdates), 0)
	failedPct := parser.SafePercentage(float64(failed), float64(totalUpdates), 0)

	kpis["totalUpdates"] = totalUpdates
	kpis["completedUpdates"] = completed
	kpis["failedUpdates"] = failed
	kpis["pendingUpdates"] = totalUpdates - completed - failed
	kpis["updateCompletionRate"] = completionRate

	unmanagedPct := parser.SafePercentage(float64(totalDevices-managed), float64(totalDevices), 0)

	kpis["securityScore"] = c.securityScore(scoreInput{
		availability:    managementRate,
		compliance:      complianceRate,
		response:        completionRate,
		severity:        100 - failedPct,
		hasAvailability: totalDevices > 0,
		hasThreats:      totalUpdates > 0,
		disconnectedPct: unmanagedPct,
		criticalPct:     failedPct,
	})

	return kpis, c.buildAnalytics(out)
}

// computeGeneric 动态路径只给结构性 KPI，语义指标交给分布统计
func (c *Calculator) computeGeneric(out *parser.ParseOutput) (map[string]any, *model.Analytics) {
	kpis := map[string]any{}

	rowsPerSheet := map[string]int{}
	totalRows := 0
	for name, e := range out.Entities {
		rowsPerSheet[name] = len(e.Records)
		totalRows += len(e.Records)
	}

	kpis["sheetCount"] = len(out.Entities)
	kpis["totalRows"] = totalRows
	kpis["rowsPerSheet"] = rowsPerSheet

	return kpis, c.buildAnalytics(out)
}

// scoreInput 综合评分的输入
type scoreInput struct {
	availability    float64
	compliance      float64
	response        float64
	severity        float64
	hasAvailability bool
	hasThreats      bool
	disconnectedPct float64
	criticalPct     float64
}

// securityScore 两段式综合评分。
// 第一段按权重合成四个子分，缺数据的类别按满分计入，缺表不把分数打穿；
// 第二段做阈值罚分：失联占比、高危占比超阈值后线性加罚，各有上限，
// 罚分合计也有上限。最终结果夹在 [0,100] 并保留两位小数。
func (c *Calculator) securityScore(in scoreInput) float64 {
	s := c.score

	availScore, compScore := 100.0, 100.0
	respScore, sevScore := 100.0, 100.0
	if in.hasAvailability {
		availScore = in.availability
		compScore = in.compliance
	}
	if in.hasThreats {
		respScore = in.response
		sevScore = in.severity
	}

	base := availScore*s.AvailabilityWeight/100 +
		compScore*s.ComplianceWeight/100 +
		respScore*s.ResponseWeight/100 +
		sevScore*s.SeverityWeight/100

	penalty := 0.0
	if in.hasAvailability && in.disconnectedPct > s.DisconnectedPenaltyPct {
		p := (in.disconnectedPct - s.DisconnectedPenaltyPct) * disconnectedPenaltyScale
		penalty += math.Min(p, s.DisconnectedPenaltyMax)
	}
	if in.hasThreats && in.criticalPct > s.CriticalPenaltyPct {
		p := (in.criticalPct - s.CriticalPenaltyPct) * criticalPenaltyScale
		penalty += math.Min(p, s.CriticalPenaltyMax)
	}
	penalty = math.Min(penalty, s.PenaltyCap)

	return parser.Round2(parser.Clamp(base-penalty, 0, 100))
}

// entityRecords 取实体记录，实体不存在返回空切片
func entityRecords(out *parser.ParseOutput, name string) []model.Record {
	if e, ok := out.Entities[name]; ok {
		return e.Records
	}
	return nil
}

// countBool 统计布尔字段为真的记录数
func countBool(records []model.Record, key string) int {
	n := 0
	for _, rec := range records {
		if rec.GetBool(key) {
			n++
		}
	}
	return n
}
