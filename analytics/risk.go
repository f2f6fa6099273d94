package analytics

// RiskGroups partitions assessments by level for display.
type RiskGroups struct {
	High   []RiskAssessment `json:"high"`
	Medium []RiskAssessment `json:"medium"`
	Low    []RiskAssessment `json:"low"`
}

// GroupByRisk splits assessments into per-level buckets, preserving the
// input order inside each bucket. Entries with a level outside the known
// enum are dropped rather than crashing the view; the server owns the enum
// and an unknown value is its contract violation, not ours.
func GroupByRisk(assessments []RiskAssessment) RiskGroups {
	var groups RiskGroups
	for _, assessment := range assessments {
		switch assessment.RiskLevel {
		case RiskHigh:
			groups.High = append(groups.High, assessment)
		case RiskMedium:
			groups.Medium = append(groups.Medium, assessment)
		case RiskLow:
			groups.Low = append(groups.Low, assessment)
		}
	}
	return groups
}
