package collision

import "boat-safety-go/pkg/models"

// Avoidance advice attached to alerts.
const (
	AdviceStopAndYield    = "stop and yield"
	AdviceHoldHeading     = "reduce speed immediately, hold heading"
	AdviceAlterStarboard  = "reduce speed, alter course to starboard"
	AdviceHoldPosition    = "reduce speed or hold position"
	AdviceResumeNormalWay = "resume normal passage"
)

// AlertLevelFor maps a predicted collision time to a severity. Thresholds
// are inclusive.
func AlertLevelFor(collisionTime float64, cfg models.SystemConfig) models.AlertLevel {
	switch {
	case collisionTime <= cfg.EmergencyThresholdS:
		return models.LevelEmergency
	case collisionTime <= cfg.WarningThresholdS:
		return models.LevelWarning
	default:
		return models.LevelNormal
	}
}

// MoreSevere returns the more severe of two levels.
func MoreSevere(a, b models.AlertLevel) models.AlertLevel {
	if b > a {
		return b
	}
	return a
}

// DecisionAdvice selects the avoidance advice for an alert. current is the
// status of the reporting vessel and counterpart the status of its most
// imminent counterpart; only that counterpart takes part in the right-of-way
// check.
func DecisionAdvice(alert models.CollisionAlert, current, counterpart models.BoatStatus) string {
	switch alert.Level {
	case models.LevelEmergency:
		if current.Priority() < counterpart.Priority() {
			return AdviceStopAndYield
		}
		return AdviceHoldHeading
	case models.LevelWarning:
		if len(alert.OncomingBoatIDs) > 0 {
			return AdviceAlterStarboard
		}
		return AdviceHoldPosition
	default:
		return AdviceResumeNormalWay
	}
}
