package analytics

import "testing"

func TestGroupByRiskPreservesOrderAndDropsUnknown(t *testing.T) {
	assessments := []RiskAssessment{
		{StudentID: "a", RiskLevel: RiskHigh},
		{StudentID: "b", RiskLevel: RiskLow},
		{StudentID: "c", RiskLevel: RiskHigh},
		{StudentID: "d", RiskLevel: RiskLevel("critical")},
		{StudentID: "e", RiskLevel: RiskMedium},
	}
	groups := GroupByRisk(assessments)
	if len(groups.High) != 2 || groups.High[0].StudentID != "a" || groups.High[1].StudentID != "c" {
		t.Fatalf("unexpected high bucket: %+v", groups.High)
	}
	if len(groups.Medium) != 1 || groups.Medium[0].StudentID != "e" {
		t.Fatalf("unexpected medium bucket: %+v", groups.Medium)
	}
	if len(groups.Low) != 1 || groups.Low[0].StudentID != "b" {
		t.Fatalf("unexpected low bucket: %+v", groups.Low)
	}
	if total := len(groups.High) + len(groups.Medium) + len(groups.Low); total != 4 {
		t.Fatalf("expected unknown level to be dropped, got %d grouped", total)
	}
}
