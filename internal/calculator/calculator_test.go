package calculator

import (
	"testing"

	"soccentral/internal/config"
	"soccentral/internal/model"
	"soccentral/internal/parser"
)

func defaultCalculator() *Calculator {
	return New(config.DefaultConfig().Engine.Score)
}

func edrOutput() *parser.ParseOutput {
	endpoints := &parser.EntityData{
		Entity: "endpoints",
		Records: []model.Record{
			{"endpointName": "web-01", "isConnected": true, "isUpToDate": true},
			{"endpointName": "web-02", "isConnected": true, "isUpToDate": false},
			{"endpointName": "web-03", "isConnected": false, "isUpToDate": true},
			{"endpointName": "web-04", "isConnected": false, "isUpToDate": false},
		},
	}
	threats := &parser.EntityData{
		Entity: "threats",
		Records: []model.Record{
			{"threatName": "a", "classification": "Malware", "policyAtDetection": "Protect", "incidentStatus": "Active"},
			{"threatName": "b", "classification": "Malware", "policyAtDetection": "Detect Only", "incidentStatus": "Active"},
			{"threatName": "c", "classification": "Suspicious", "incidentStatus": "Open"},
			{"threatName": "d", "analystVerdict": "False Positive", "incidentStatus": "Resolved"},
		},
	}
	return &parser.ParseOutput{
		ToolType: "edr",
		Entities: map[string]*parser.EntityData{"endpoints": endpoints, "threats": threats},
		Order:    []string{"endpoints", "threats"},
	}
}

func TestCompute_EDR_KPIs(t *testing.T) {
	t.Parallel()

	out := edrOutput()
	kpis, _ := defaultCalculator().Compute(out)

	if kpis["totalEndpoints"] != 4 {
		t.Fatalf("totalEndpoints want=4 got=%v", kpis["totalEndpoints"])
	}
	if kpis["connectedEndpoints"] != 2 {
		t.Fatalf("connectedEndpoints want=2 got=%v", kpis["connectedEndpoints"])
	}
	if kpis["disconnectedEndpoints"] != 2 {
		t.Fatalf("disconnectedEndpoints want=2 got=%v", kpis["disconnectedEndpoints"])
	}
	if kpis["availabilityRate"] != 50.0 {
		t.Fatalf("availabilityRate want=50 got=%v", kpis["availabilityRate"])
	}
	if kpis["complianceRate"] != 50.0 {
		t.Fatalf("complianceRate want=50 got=%v", kpis["complianceRate"])
	}

	if kpis["totalThreats"] != 4 {
		t.Fatalf("totalThreats want=4 got=%v", kpis["totalThreats"])
	}
	if kpis["resolvedThreats"] != 1 {
		t.Fatalf("resolvedThreats want=1 got=%v", kpis["resolvedThreats"])
	}
	if kpis["unresolvedThreats"] != 3 {
		t.Fatalf("unresolvedThreats want=3 got=%v", kpis["unresolvedThreats"])
	}
	if kpis["resolutionRate"] != 25.0 {
		t.Fatalf("resolutionRate want=25 got=%v", kpis["resolutionRate"])
	}
	if kpis["maliciousCount"] != 2 {
		t.Fatalf("maliciousCount want=2 got=%v", kpis["maliciousCount"])
	}
	if kpis["suspiciousCount"] != 1 {
		t.Fatalf("suspiciousCount want=1 got=%v", kpis["suspiciousCount"])
	}
	if kpis["falsePositiveCount"] != 1 {
		t.Fatalf("falsePositiveCount want=1 got=%v", kpis["falsePositiveCount"])
	}

	breakdown := kpis["riskBreakdown"].(map[string]int)
	if breakdown[RiskCritical] != 1 || breakdown[RiskHigh] != 1 ||
		breakdown[RiskMedium] != 1 || breakdown[RiskLow] != 1 {
		t.Fatalf("riskBreakdown unexpected: %v", breakdown)
	}

	// 分级结果回写到威胁记录
	if got := out.Entities["threats"].Records[1].GetString("riskLevel"); got != RiskCritical {
		t.Fatalf("threat b riskLevel want=critical got=%q", got)
	}

	// base 43.75，失联罚 10，高危罚 12
	if kpis["securityScore"] != 21.75 {
		t.Fatalf("securityScore want=21.75 got=%v", kpis["securityScore"])
	}
}

func TestCompute_EDR_NoThreatsSheetScoresFull(t *testing.T) {
	t.Parallel()

	out := &parser.ParseOutput{
		ToolType: "edr",
		Entities: map[string]*parser.EntityData{
			"endpoints": {
				Entity: "endpoints",
				Records: []model.Record{
					{"endpointName": "web-01", "isConnected": true, "isUpToDate": true},
					{"endpointName": "web-02", "isConnected": true, "isUpToDate": true},
				},
			},
		},
		Order: []string{"endpoints"},
	}

	kpis, _ := defaultCalculator().Compute(out)

	// 缺威胁表时响应和严重度两项按满分计入
	if kpis["securityScore"] != 100.0 {
		t.Fatalf("securityScore want=100 got=%v", kpis["securityScore"])
	}
	if kpis["totalThreats"] != 0 {
		t.Fatalf("totalThreats want=0 got=%v", kpis["totalThreats"])
	}
	if kpis["resolutionRate"] != 0.0 {
		t.Fatalf("resolutionRate want=0 got=%v", kpis["resolutionRate"])
	}
}

func TestCompute_MDM_KPIs(t *testing.T) {
	t.Parallel()

	out := &parser.ParseOutput{
		ToolType: "mdm",
		Entities: map[string]*parser.EntityData{
			"devices": {
				Entity: "devices",
				Records: []model.Record{
					{"deviceName": "ipad-1", "isManaged": true, "isCompliant": true, "isSupervised": true},
					{"deviceName": "ipad-2", "isManaged": true, "isCompliant": false, "isSupervised": false},
					{"deviceName": "ipad-3", "isManaged": false, "isCompliant": false, "isSupervised": false},
				},
			},
			"updates": {
				Entity: "updates",
				Records: []model.Record{
					{"deviceName": "ipad-1", "status": "Installed"},
					{"deviceName": "ipad-2", "status": "Failed"},
					{"deviceName": "ipad-3", "status": "Pending"},
					{"deviceName": "ipad-1", "status": "Success"},
				},
			},
		},
		Order: []string{"devices", "updates"},
	}

	kpis, _ := defaultCalculator().Compute(out)

	if kpis["totalDevices"] != 3 {
		t.Fatalf("totalDevices want=3 got=%v", kpis["totalDevices"])
	}
	if kpis["managedDevices"] != 2 {
		t.Fatalf("managedDevices want=2 got=%v", kpis["managedDevices"])
	}
	if kpis["managementRate"] != 66.67 {
		t.Fatalf("managementRate want=66.67 got=%v", kpis["managementRate"])
	}
	if kpis["complianceRate"] != 33.33 {
		t.Fatalf("complianceRate want=33.33 got=%v", kpis["complianceRate"])
	}
	if kpis["supervisionRate"] != 33.33 {
		t.Fatalf("supervisionRate want=33.33 got=%v", kpis["supervisionRate"])
	}

	if kpis["totalUpdates"] != 4 {
		t.Fatalf("totalUpdates want=4 got=%v", kpis["totalUpdates"])
	}
	if kpis["completedUpdates"] != 2 {
		t.Fatalf("completedUpdates want=2 got=%v", kpis["completedUpdates"])
	}
	if kpis["failedUpdates"] != 1 {
		t.Fatalf("failedUpdates want=1 got=%v", kpis["failedUpdates"])
	}
	if kpis["pendingUpdates"] != 1 {
		t.Fatalf("pendingUpdates want=1 got=%v", kpis["pendingUpdates"])
	}
	if kpis["updateCompletionRate"] != 50.0 {
		t.Fatalf("updateCompletionRate want=50 got=%v", kpis["updateCompletionRate"])
	}

	if kpis["securityScore"] != 42.17 {
		t.Fatalf("securityScore want=42.17 got=%v", kpis["securityScore"])
	}
}

func TestCompute_GenericStructuralKPIs(t *testing.T) {
	t.Parallel()

	out := &parser.ParseOutput{
		ToolType: "generic",
		Entities: map[string]*parser.EntityData{
			"SheetA": {Entity: "SheetA", Records: []model.Record{{"x": "1"}, {"x": "2"}}},
			"SheetB": {Entity: "SheetB", Records: []model.Record{{"y": "3"}}},
		},
		Order: []string{"SheetA", "SheetB"},
	}

	kpis, _ := defaultCalculator().Compute(out)

	if kpis["sheetCount"] != 2 {
		t.Fatalf("sheetCount want=2 got=%v", kpis["sheetCount"])
	}
	if kpis["totalRows"] != 3 {
		t.Fatalf("totalRows want=3 got=%v", kpis["totalRows"])
	}
	rows := kpis["rowsPerSheet"].(map[string]int)
	if rows["SheetA"] != 2 || rows["SheetB"] != 1 {
		t.Fatalf("rowsPerSheet unexpected: %v", rows)
	}
	if _, exists := kpis["securityScore"]; exists {
		t.Fatalf("generic path should not emit securityScore")
	}
}

func TestSecurityScore_PenaltyMaxAndCap(t *testing.T) {
	t.Parallel()

	c := defaultCalculator()
	score := c.securityScore(scoreInput{
		availability: 100, compliance: 100, response: 100, severity: 100,
		hasAvailability: true, hasThreats: true,
		disconnectedPct: 100, criticalPct: 100,
	})
	// 单项罚分 35/72 被各自上限压到 15/20，合计再被总上限压到 25
	if score != 75.0 {
		t.Fatalf("capped score want=75 got=%v", score)
	}
}

func TestSecurityScore_NoPenaltyAtThreshold(t *testing.T) {
	t.Parallel()

	c := defaultCalculator()
	score := c.securityScore(scoreInput{
		availability: 100, compliance: 100, response: 100, severity: 100,
		hasAvailability: true, hasThreats: true,
		disconnectedPct: 30, criticalPct: 10,
	})
	// 占比恰好等于阈值时不罚
	if score != 100.0 {
		t.Fatalf("score at threshold want=100 got=%v", score)
	}
}

func TestSecurityScore_LinearPenaltyScales(t *testing.T) {
	t.Parallel()

	c := defaultCalculator()
	score := c.securityScore(scoreInput{
		availability: 100, compliance: 100, response: 100, severity: 100,
		hasAvailability: true, hasThreats: true,
		disconnectedPct: 40, criticalPct: 20,
	})
	// 失联超 10 个点罚 5 分，高危超 10 个点罚 8 分
	if score != 87.0 {
		t.Fatalf("score want=87 got=%v", score)
	}
}

func TestSecurityScore_EmptyWorkbookScoresFull(t *testing.T) {
	t.Parallel()

	kpis, _ := defaultCalculator().Compute(&parser.ParseOutput{
		ToolType: "edr",
		Entities: map[string]*parser.EntityData{},
	})
	if kpis["securityScore"] != 100.0 {
		t.Fatalf("empty workbook want=100 got=%v", kpis["securityScore"])
	}
}
