package http

import "github.com/luaraperilli/classroom-feedback-analyzer/analytics"

// riskScore blends the rating average and the sentiment average into one
// severity number on [0, 1]. Ratings carry more weight than free text.
// A missing average counts as neutral rather than dragging the score up.
func riskScore(averageScore, averageSentiment *float64) float64 {
	ratingPart := 0.5
	if averageScore != nil {
		ratingPart = 1 - *averageScore
	}
	sentimentPart := 0.5
	if averageSentiment != nil {
		sentimentPart = (1 - *averageSentiment) / 2
	}
	score := 0.6*ratingPart + 0.4*sentimentPart
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func riskLevel(score float64) analytics.RiskLevel {
	switch {
	case score >= 0.7:
		return analytics.RiskHigh
	case score >= 0.4:
		return analytics.RiskMedium
	default:
		return analytics.RiskLow
	}
}

func riskRank(level analytics.RiskLevel) int {
	switch level {
	case analytics.RiskHigh:
		return 2
	case analytics.RiskMedium:
		return 1
	default:
		return 0
	}
}

// parseMinRisk resolves the min_risk query parameter. Absent means medium.
func parseMinRisk(raw string) (analytics.RiskLevel, bool) {
	switch raw {
	case "":
		return analytics.RiskMedium, true
	case string(analytics.RiskLow):
		return analytics.RiskLow, true
	case string(analytics.RiskMedium):
		return analytics.RiskMedium, true
	case string(analytics.RiskHigh):
		return analytics.RiskHigh, true
	default:
		return "", false
	}
}
