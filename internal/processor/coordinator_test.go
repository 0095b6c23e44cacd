package processor

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"soccentral/internal/config"
	"soccentral/internal/model"
	"soccentral/internal/store"
)

type sheetFixture struct {
	name string
	rows [][]any
}

func writeWorkbook(t *testing.T, path string, sheets []sheetFixture) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				t.Fatalf("SetSheetName failed: %v", err)
			}
		} else {
			if _, err := f.NewSheet(s.name); err != nil {
				t.Fatalf("NewSheet failed: %v", err)
			}
		}
		for r, row := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName failed: %v", err)
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				t.Fatalf("SetSheetRow failed: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}
}

func edrWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edr_threats_export.xlsx")
	writeWorkbook(t, path, []sheetFixture{
		{
			name: "Sentinel Agents",
			rows: [][]any{
				{"Endpoint Name", "OS", "Network Status", "Update Status", "Last Seen"},
				{"web-01", "Windows Server 2022", "Connected", "Up to date", "2025-08-10 09:00:00"},
				{"web-02", "Ubuntu 22.04", "Disconnected", "Out of date", "2025-08-01 12:30:00"},
				{"db-01", "Windows Server 2019", "Connected", "Up to date", "2025-08-12 15:45:00"},
			},
		},
		{
			name: "Threats",
			rows: [][]any{
				{"Threat Name", "Endpoint", "Classification", "Analyst Verdict", "Incident Status", "Policy", "Identified At"},
				{"Trojan.Gen", "web-02", "Malware", "Undefined", "Active", "Protect", "2025-08-09 10:00:00"},
				{"PUA.Tool", "db-01", "PUA", "Undefined", "Resolved", "Detect", "2025-08-11 11:00:00"},
			},
		},
	})
	return path
}

func genericWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.xlsx")
	writeWorkbook(t, path, []sheetFixture{
		{
			name: "Quarterly Numbers",
			rows: [][]any{
				{"Region", "Revenue"},
				{"North", "1200"},
				{"South", "900"},
				{"West", "1500"},
			},
		},
	})
	return path
}

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	c, err := NewCoordinator(st, config.DefaultConfig(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewCoordinator failed: %v", err)
	}
	return c, st
}

func TestProcessFile_EDRWorkbook(t *testing.T) {
	t.Parallel()

	c, st := newTestCoordinator(t)
	path := edrWorkbook(t)

	if err := st.CreateUpload("u1", "edr_threats_export.xlsx"); err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}

	result := c.ProcessFile(ProcessOptions{
		UploadID: "u1",
		FilePath: path,
		Filename: "edr_threats_export.xlsx",
		Activate: true,
	}, nil)

	if !result.Success {
		t.Fatalf("result not successful: %s", result.Error)
	}
	if result.FileType != "edr" {
		t.Fatalf("FileType = %s, want edr", result.FileType)
	}
	if result.KPIs["totalEndpoints"] != 3 {
		t.Errorf("totalEndpoints = %v, want 3", result.KPIs["totalEndpoints"])
	}
	if result.KPIs["totalThreats"] != 2 {
		t.Errorf("totalThreats = %v, want 2", result.KPIs["totalThreats"])
	}
	if _, ok := result.KPIs["securityScore"]; !ok {
		t.Error("securityScore missing")
	}
	if len(result.Details["endpoints"]) != 3 || len(result.Details["threats"]) != 2 {
		t.Errorf("detail rows = %d/%d, want 3/2",
			len(result.Details["endpoints"]), len(result.Details["threats"]))
	}
	if result.Metadata.SyntheticDates != nil {
		t.Errorf("dates are all present, SyntheticDates = %v", result.Metadata.SyntheticDates)
	}

	// 落库与激活
	u, err := st.GetUpload("u1")
	if err != nil {
		t.Fatalf("GetUpload failed: %v", err)
	}
	if u.Status != model.UploadDone || u.ToolType != "edr" {
		t.Errorf("upload = %s/%s, want done/edr", u.Status, u.ToolType)
	}
	if u.SheetCount != 2 || u.RowCount != 5 {
		t.Errorf("counts = %d/%d, want 2/5", u.SheetCount, u.RowCount)
	}
	if !u.Active {
		t.Error("upload should be active")
	}

	id, payload, err := st.ActiveResult("edr")
	if err != nil {
		t.Fatalf("ActiveResult failed: %v", err)
	}
	if id != "u1" {
		t.Errorf("active id = %s, want u1", id)
	}
	var stored map[string]any
	if err := json.Unmarshal(payload, &stored); err != nil {
		t.Fatalf("stored payload is not valid JSON: %v", err)
	}
	if stored["success"] != true {
		t.Errorf("stored success = %v, want true", stored["success"])
	}
}

func TestProcessFile_CorruptWorkbook(t *testing.T) {
	t.Parallel()

	c, st := newTestCoordinator(t)
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	if err := os.WriteFile(path, []byte("this is not a workbook"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if err := st.CreateUpload("u2", "broken.xlsx"); err != nil {
		t.Fatalf("CreateUpload failed: %v", err)
	}

	result := c.ProcessFile(ProcessOptions{
		UploadID: "u2",
		FilePath: path,
		Filename: "broken.xlsx",
		Activate: true,
	}, nil)

	if result.Success {
		t.Fatal("corrupt workbook should not succeed")
	}
	if result.Error == "" {
		t.Error("Error message should be set")
	}
	if result.FileType != "unknown" {
		t.Errorf("FileType = %s, want unknown", result.FileType)
	}

	u, err := st.GetUpload("u2")
	if err != nil {
		t.Fatalf("GetUpload failed: %v", err)
	}
	if u.Status != model.UploadFailed {
		t.Errorf("Status = %s, want failed", u.Status)
	}
	if u.Active {
		t.Error("failed upload must not be activated")
	}
	if _, err := st.GetResult("u2"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("result err = %v, want sql.ErrNoRows", err)
	}
}

func TestProcessFile_GenericWorkbook(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)

	result := c.ProcessFile(ProcessOptions{
		FilePath: genericWorkbook(t),
		Filename: "report.xlsx",
	}, nil)

	if !result.Success {
		t.Fatalf("result not successful: %s", result.Error)
	}
	if result.FileType != "generic" {
		t.Fatalf("FileType = %s, want generic", result.FileType)
	}
	if result.KPIs["sheetCount"] != 1 {
		t.Errorf("sheetCount = %v, want 1", result.KPIs["sheetCount"])
	}
	if len(result.Details["Quarterly Numbers"]) != 3 {
		t.Errorf("rows = %d, want 3", len(result.Details["Quarterly Numbers"]))
	}
}

func TestRun_StreamsProgressAndResult(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)

	events := c.Run(ProcessOptions{
		FilePath: edrWorkbook(t),
		Filename: "edr_threats_export.xlsx",
	})

	seen := map[string]bool{}
	var last model.ProgressEvent
	for ev := range events {
		seen[ev.Stage] = true
		last = ev
	}

	if !seen[model.StageOpen] || !seen[model.StageDone] {
		t.Errorf("missing progress stages, seen = %v", seen)
	}
	if last.Stage != model.StageResult || last.Percent != 100 {
		t.Fatalf("last event = %s/%d, want result/100", last.Stage, last.Percent)
	}
	result, ok := last.Data.(*model.Result)
	if !ok {
		t.Fatalf("result event Data has type %T", last.Data)
	}
	if !result.Success || result.FileType != "edr" {
		t.Errorf("result = %v/%s, want success edr", result.Success, result.FileType)
	}
}

func TestReconfigure_RowCapApplies(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t)

	engine := config.DefaultConfig().Engine
	engine.RowCap = 2
	c.Reconfigure(engine)

	result := c.ProcessFile(ProcessOptions{
		FilePath: genericWorkbook(t),
		Filename: "report.xlsx",
	}, nil)

	if !result.Success {
		t.Fatalf("result not successful: %s", result.Error)
	}
	if len(result.Details["Quarterly Numbers"]) != 2 {
		t.Errorf("rows = %d, want 2 after row cap", len(result.Details["Quarterly Numbers"]))
	}
}
