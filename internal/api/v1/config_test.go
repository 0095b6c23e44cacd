package v1

import (
	"testing"

	"soccentral/internal/config"
)

func TestApplyConfigUpdate_KnownKeys(t *testing.T) {
	t.Parallel()

	engine := config.DefaultConfig().Engine

	if !applyConfigUpdate(&engine, "rowCap", float64(1000)) {
		t.Fatal("rowCap should be accepted")
	}
	if engine.RowCap != 1000 {
		t.Errorf("RowCap = %d, want 1000", engine.RowCap)
	}

	if !applyConfigUpdate(&engine, "partialMatchThreshold", 0.6) {
		t.Fatal("partialMatchThreshold should be accepted")
	}
	if engine.PartialMatchThreshold != 0.6 {
		t.Errorf("PartialMatchThreshold = %v, want 0.6", engine.PartialMatchThreshold)
	}

	if !applyConfigUpdate(&engine, "criticalPenaltyMax", 30) {
		t.Fatal("criticalPenaltyMax should be accepted")
	}
	if engine.Score.CriticalPenaltyMax != 30 {
		t.Errorf("CriticalPenaltyMax = %v, want 30", engine.Score.CriticalPenaltyMax)
	}

	// JSON 解出来的数值是字符串时也要能吃
	if !applyConfigUpdate(&engine, "syntheticDateWindowDays", "30") {
		t.Fatal("string number should be accepted")
	}
	if engine.SyntheticDateWindowDays != 30 {
		t.Errorf("SyntheticDateWindowDays = %d, want 30", engine.SyntheticDateWindowDays)
	}
}

func TestApplyConfigUpdate_Rejections(t *testing.T) {
	t.Parallel()

	engine := config.DefaultConfig().Engine

	if applyConfigUpdate(&engine, "noSuchKey", 1.0) {
		t.Error("unknown key should be rejected")
	}
	if applyConfigUpdate(&engine, "rowCap", -5) {
		t.Error("negative value should be rejected")
	}
	if applyConfigUpdate(&engine, "rowCap", "not a number") {
		t.Error("non-numeric value should be rejected")
	}
	if engine.RowCap != config.DefaultConfig().Engine.RowCap {
		t.Errorf("RowCap changed to %d on rejected updates", engine.RowCap)
	}
}
