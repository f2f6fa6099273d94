package analytics

// Sentiment is the display bucket for a single compound score.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// DeadZone is the half-width of the neutral band around zero. Compounds at
// exactly +DeadZone classify positive and at exactly -DeadZone negative; the
// open interval between them is neutral.
const DeadZone = 0.05

func Classify(compound float64) Sentiment {
	switch {
	case compound >= DeadZone:
		return Positive
	case compound <= -DeadZone:
		return Negative
	default:
		return Neutral
	}
}
