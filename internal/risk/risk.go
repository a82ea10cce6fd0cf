// Package risk scores transactions against a small set of fraud
// heuristics and bands the result into a risk level.
package risk

type (
	// Transaction is the user-described payment under review. It holds
	// only serializable data; the text-generation client that explains
	// the score lives elsewhere.
	Transaction struct {
		Amount             float64 `json:"amount"`
		Location           string  `json:"location"`
		DeviceType         string  `json:"deviceType"`
		Timestamp          string  `json:"timestamp"`
		IPAddress          string  `json:"ipAddress"`
		CardUsageFrequency string  `json:"cardUsageFrequency"`
	}

	Level string
)

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Scoring thresholds.
const (
	largeAmountLimit = 10000

	largeAmountPoints   = 30
	unusualPlacePoints  = 20
	unknownDevicePoints = 20
	highUsagePoints     = 20
)

// Score sums the heuristic points for a transaction.
func Score(t Transaction) int {
	score := 0
	if t.Amount > largeAmountLimit {
		score += largeAmountPoints
	}
	if t.Location == "Unusual Location" {
		score += unusualPlacePoints
	}
	if t.DeviceType != "Trusted Device" {
		score += unknownDevicePoints
	}
	if t.CardUsageFrequency == "High" {
		score += highUsagePoints
	}
	return score
}

// Band maps a score to its risk level.
func Band(score int) Level {
	switch {
	case score >= 80:
		return LevelHigh
	case score >= 50:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Assess scores and bands in one step.
func Assess(t Transaction) (int, Level) {
	score := Score(t)
	return score, Band(score)
}
