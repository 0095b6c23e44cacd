package parser

import "testing"

func TestMapper_ExactMatch(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "endpointName", Type: TypeIdentifier, Aliases: []string{"endpoint name", "hostname"}},
		{Canonical: "osName", Type: TypeCategorical, Aliases: []string{"os", "operating system"}},
	}
	headers := []string{"Endpoint  Name", "Operating System", "Extra"}

	res := NewMapper(0.5).Map(headers, fields)

	if res.ByColumn[0] != "endpointName" {
		t.Fatalf("col 0 want=endpointName got=%q", res.ByColumn[0])
	}
	if res.ByColumn[1] != "osName" {
		t.Fatalf("col 1 want=osName got=%q", res.ByColumn[1])
	}
	if got := res.ByField["endpointName"]; got != 0 {
		t.Fatalf("endpointName want=0 got=%d", got)
	}
	if len(res.Unmapped) != 1 || res.Unmapped[0] != 2 {
		t.Fatalf("unmapped want=[2] got=%v", res.Unmapped)
	}
}

func TestMapper_AliasOrderBeatsHeaderOrder(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "deviceName", Type: TypeIdentifier, Aliases: []string{"device name", "name"}},
	}
	headers := []string{"Name", "Device Name"}

	res := NewMapper(0.5).Map(headers, fields)

	// 第一个别名命中就停，即使更靠前的表头能被后面的别名命中
	if got := res.ByField["deviceName"]; got != 1 {
		t.Fatalf("deviceName want=1 got=%d", got)
	}
}

func TestMapper_DuplicateHeader_OnlyFirstClaimed(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "endpointName", Type: TypeIdentifier, Aliases: []string{"name"}},
	}
	headers := []string{"Name", "Name"}

	res := NewMapper(0.5).Map(headers, fields)

	if got := res.ByField["endpointName"]; got != 0 {
		t.Fatalf("endpointName want=0 got=%d", got)
	}
	if len(res.Unmapped) != 1 || res.Unmapped[0] != 1 {
		t.Fatalf("second duplicate should stay unmapped, got=%v", res.Unmapped)
	}
}

func TestMapper_DuplicateHeader_SecondFieldConflictNote(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "endpointName", Type: TypeIdentifier, Aliases: []string{"name"}},
		{Canonical: "threatName", Type: TypeIdentifier, Aliases: []string{"name"}},
	}
	headers := []string{"Name", "Name"}

	res := NewMapper(0.5).Map(headers, fields)

	if res.ByColumn[0] != "endpointName" || res.ByColumn[1] != "threatName" {
		t.Fatalf("unexpected claims: %v", res.ByColumn)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0] != "Name" {
		t.Fatalf("conflicts want=[Name] got=%v", res.Conflicts)
	}
}

func TestMapper_PartialMatch_Containment(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "agentVersion", Type: TypeCategorical, Aliases: []string{"agent version"}},
	}
	headers := []string{"Agent Ver"}

	res := NewMapper(0.5).Map(headers, fields)

	if res.ByColumn[0] != "agentVersion" {
		t.Fatalf("partial match failed: %v", res.ByColumn)
	}
	// 得分 = len("agentver") / len("agentversion")
	want := 8.0 / 12.0
	if got := res.PartialScores[0]; got != want {
		t.Fatalf("partial score want=%v got=%v", want, got)
	}
}

func TestMapper_PartialMatch_ThresholdIsStrict(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "status", Type: TypeCategorical, Aliases: []string{"abcdef"}},
	}
	// "abc"/"abcdef" 得分恰好 0.5，必须严格大于阈值才接受
	res := NewMapper(0.5).Map([]string{"abc"}, fields)

	if len(res.ByColumn) != 0 {
		t.Fatalf("score at threshold should be rejected, got=%v", res.ByColumn)
	}
	if len(res.Unmapped) != 1 {
		t.Fatalf("unmapped want 1 col got=%v", res.Unmapped)
	}
}

func TestMapper_PartialMatch_TieIsConflict(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "fieldA", Type: TypeText, Aliases: []string{"abcdefgh"}},
		{Canonical: "fieldB", Type: TypeText, Aliases: []string{"abcdefij"}},
	}
	// "abcdef" 对两个字段都是 6/8，并列最高时宁可不映射
	res := NewMapper(0.5).Map([]string{"abcdef"}, fields)

	if len(res.ByColumn) != 0 {
		t.Fatalf("tie should not map, got=%v", res.ByColumn)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0] != "abcdef" {
		t.Fatalf("conflicts want=[abcdef] got=%v", res.Conflicts)
	}
}

func TestMapper_UnmappedAscending(t *testing.T) {
	t.Parallel()

	fields := []FieldAlias{
		{Canonical: "endpointName", Type: TypeIdentifier, Aliases: []string{"hostname"}},
	}
	headers := []string{"ZZZ", "Hostname", "QQQ", ""}

	res := NewMapper(0.5).Map(headers, fields)

	want := []int{0, 2, 3}
	if len(res.Unmapped) != len(want) {
		t.Fatalf("unmapped want=%v got=%v", want, res.Unmapped)
	}
	for i := range want {
		if res.Unmapped[i] != want[i] {
			t.Fatalf("unmapped want=%v got=%v", want, res.Unmapped)
		}
	}
}

func TestPartialScore_RuneAware(t *testing.T) {
	t.Parallel()

	if got := partialScore("状态", "设备状态"); got != 0.5 {
		t.Fatalf("rune score want=0.5 got=%v", got)
	}
	if got := partialScore("abc", "xyz"); got != 0 {
		t.Fatalf("no containment want=0 got=%v", got)
	}
	if got := partialScore("", "abc"); got != 0 {
		t.Fatalf("empty operand want=0 got=%v", got)
	}
}
