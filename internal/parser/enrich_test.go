package parser

import (
	"testing"

	"soccentral/internal/model"
)

func TestIsLowInfoID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"空串", "", true},
		{"兜底编号", "Endpoint-001", true},
		{"裸序列号", "DESKTOP5G7H2K1", true},
		{"短主机名", "web-01", false},
		{"带空格的人读名", "Finance Laptop", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isLowInfoID(tt.id, "Endpoint"); got != tt.want {
				t.Errorf("isLowInfoID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestBackfillNames_MajorityReadableLeavesTableAlone(t *testing.T) {
	t.Parallel()

	primary := []model.Record{
		{"endpointName": "Alice Laptop"},
		{"endpointName": "Bob Laptop"},
		{"endpointName": "FA1B2C3D4E5F"},
	}
	secondary := []model.Record{
		{"deviceName": "Some Device", "serial": "FA1B2C3D4E5F"},
	}

	filled := BackfillNames(primary, "endpointName", "Endpoint", secondary, "deviceName", 0.45, nil)
	if filled != 0 {
		t.Fatalf("filled want=0 got=%d", filled)
	}
	// 多数标识可读时整表不动，连 displayName 键都不加
	if _, exists := primary[0]["displayName"]; exists {
		t.Fatalf("displayName should not be added when table is left alone")
	}
}

func TestBackfillNames_SerialContainment(t *testing.T) {
	t.Parallel()

	primary := []model.Record{
		{"endpointName": "JGH5XYZQWERT"},
		{"endpointName": "AB12CD34EF56"},
	}
	secondary := []model.Record{
		{"deviceName": "Finance Laptop", "serial": "JGH5XYZQWERTPLUS"},
		{"deviceName": "HR Laptop", "serial": "AB12CD34EF56GH78"},
	}

	filled := BackfillNames(primary, "endpointName", "Endpoint", secondary, "deviceName", 0.45, nil)
	if filled != 2 {
		t.Fatalf("filled want=2 got=%d", filled)
	}
	if got := primary[0].GetString("displayName"); got != "Finance Laptop" {
		t.Fatalf("row 0 displayName want=Finance Laptop got=%q", got)
	}
	if got := primary[1].GetString("displayName"); got != "HR Laptop" {
		t.Fatalf("row 1 displayName want=HR Laptop got=%q", got)
	}
}

func TestBackfillNames_BelowConfidenceStaysEmpty(t *testing.T) {
	t.Parallel()

	primary := []model.Record{
		{"endpointName": "ZZZZ9999AAAA"},
	}
	secondary := []model.Record{
		{"deviceName": "Unrelated Device", "serial": "COMPLETELYDIFFERENT"},
	}

	filled := BackfillNames(primary, "endpointName", "Endpoint", secondary, "deviceName", 0.45, nil)
	if filled != 0 {
		t.Fatalf("filled want=0 got=%d", filled)
	}
	if got, exists := primary[0]["displayName"]; !exists || got != "" {
		t.Fatalf("unmatched low-info id want empty displayName got=%v", got)
	}
}

func TestBackfillNames_ReadableIDsKeepThemselves(t *testing.T) {
	t.Parallel()

	// 低信息量占多数触发回填，可读标识直接当显示名
	primary := []model.Record{
		{"endpointName": "AAAA11112222"},
		{"endpointName": "BBBB33334444"},
		{"endpointName": "Alice Laptop"},
	}
	secondary := []model.Record{
		{"deviceName": "First Device", "serial": "AAAA11112222XX"},
	}

	BackfillNames(primary, "endpointName", "Endpoint", secondary, "deviceName", 0.45, nil)

	if got := primary[2].GetString("displayName"); got != "Alice Laptop" {
		t.Fatalf("readable id want itself as displayName got=%q", got)
	}
	if got := primary[0].GetString("displayName"); got != "First Device" {
		t.Fatalf("row 0 displayName want=First Device got=%q", got)
	}
}

func TestBackfillNames_EmptyInputs(t *testing.T) {
	t.Parallel()

	if got := BackfillNames(nil, "id", "X", []model.Record{{"n": "a"}}, "n", 0.5, nil); got != 0 {
		t.Fatalf("nil primary want=0 got=%d", got)
	}
	if got := BackfillNames([]model.Record{{"id": "A1B2C3D4E5"}}, "id", "X", nil, "n", 0.5, nil); got != 0 {
		t.Fatalf("nil secondary want=0 got=%d", got)
	}
}
