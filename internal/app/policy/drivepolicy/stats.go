package drivepolicy

import (
	"math"
	"time"

	"github.com/Saravanans7/PlaceMate/internal/domain/models"
)

// FinalizeEvent is what a closing finalization contributes to company stats.
type FinalizeEvent struct {
	Placed int
	At     time.Time
}

// ApplyFinalize folds ev into stats. The average is rounded to two decimals.
func ApplyFinalize(stats models.CompanyStats, ev FinalizeEvent) models.CompanyStats {
	stats.TotalDrives++
	stats.TotalPlaced += ev.Placed
	stats.AvgPlacedPerDrive = round2(float64(stats.TotalPlaced) / float64(stats.TotalDrives))
	at := ev.At
	stats.LastDriveDate = &at
	return stats
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
