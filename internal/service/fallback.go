package service

import (
	"fmt"

	"github.com/noah-isme/skillforge-go-api/internal/models"
)

// Time-efficiency labels attached to the detailed analysis.
const (
	TimeEfficiencyVeryFast    = "Very Fast"
	TimeEfficiencyGoodPace    = "Good Pace"
	TimeEfficiencyAdequate    = "Adequate"
	TimeEfficiencySlow        = "Could Improve Speed"
	TimeEfficiencyNotRecorded = "Not recorded"
)

// FallbackEvaluation is the deterministic substitute for an AI-generated
// performance narrative. The same percentage band always yields the same
// content.
type FallbackEvaluation struct {
	PerformanceLevel string
	Narrative        string
	Strengths        []string
	ImprovementAreas []string
	Recommendations  []string
	TimeEfficiency   string
}

// FallbackEvaluate derives band-fixed narrative content from the score
// percentage. Pure function, no I/O, always succeeds.
func FallbackEvaluate(percentage float64, timeTakenMinutes *int, totalQuestions int) FallbackEvaluation {
	level := models.PerformanceLevelForPercentage(percentage)

	return FallbackEvaluation{
		PerformanceLevel: level,
		Narrative: fmt.Sprintf(
			"Performance level: %s (%.0f%%). This evaluation was generated offline from your score band.",
			level, percentage),
		Strengths:        strengthsForBand(level),
		ImprovementAreas: improvementAreasForBand(level),
		Recommendations:  recommendationsForBand(level),
		TimeEfficiency:   TimeEfficiencyLabel(timeTakenMinutes, totalQuestions),
	}
}

// TimeEfficiencyLabel rates the time taken against an expected two minutes
// per question.
func TimeEfficiencyLabel(timeTakenMinutes *int, totalQuestions int) string {
	if timeTakenMinutes == nil {
		return TimeEfficiencyNotRecorded
	}

	expected := 30
	if totalQuestions > 0 {
		expected = totalQuestions * 2
	}
	actual := float64(*timeTakenMinutes)

	switch {
	case actual < float64(expected)*0.7:
		return TimeEfficiencyVeryFast
	case actual < float64(expected):
		return TimeEfficiencyGoodPace
	case actual < float64(expected)*1.3:
		return TimeEfficiencyAdequate
	default:
		return TimeEfficiencySlow
	}
}

func strengthsForBand(level string) []string {
	switch level {
	case models.PerformanceExcellent:
		return []string{
			"Exceptional understanding of core concepts",
			"Strong problem-solving abilities",
			"Consistent high performance",
		}
	case models.PerformanceGood:
		return []string{
			"Good grasp of fundamental concepts",
			"Solid analytical skills",
			"Above-average performance",
		}
	case models.PerformanceAverage:
		return []string{
			"Basic understanding of key topics",
			"Competent in core areas",
		}
	default:
		return []string{
			"Shows effort and dedication",
			"Demonstrates interest in learning",
		}
	}
}

func improvementAreasForBand(level string) []string {
	switch level {
	case models.PerformanceExcellent:
		return []string{
			"Maintain current excellence",
			"Consider advanced topics",
		}
	case models.PerformanceGood:
		return []string{
			"Focus on mastering advanced concepts",
			"Pay attention to detail",
		}
	case models.PerformanceAverage:
		return []string{
			"Strengthen fundamental understanding",
			"Practice more problem-solving",
			"Review weak areas identified in exam",
		}
	default:
		return []string{
			"Revisit core concepts thoroughly",
			"Seek additional help and resources",
			"Increase study time and practice",
			"Focus on understanding over memorization",
		}
	}
}

func recommendationsForBand(level string) []string {
	switch level {
	case models.PerformanceExcellent:
		return []string{
			"Challenge yourself with advanced projects",
			"Consider mentoring peers",
			"Explore related advanced topics",
		}
	case models.PerformanceGood:
		return []string{
			"Practice with more challenging questions",
			"Review areas where you lost marks",
			"Engage in peer discussions",
		}
	case models.PerformanceAverage:
		return []string{
			"Schedule regular review sessions",
			"Work through practice problems daily",
			"Join study groups for collaborative learning",
		}
	default:
		return []string{
			"Attend additional tutoring sessions",
			"Create a structured study schedule",
			"Break down complex topics into smaller parts",
			"Don't hesitate to ask questions",
		}
	}
}
