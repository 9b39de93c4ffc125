package domainmatch

import (
	"time"

	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/notice"
)

// Relevance implements "relevance(notice) = supersedes(previous_same_event)
// | significance if no previous; else drop" — the final check telling the
// monitor whether this particular occurrence of an already-matched domain
// is worth dispatching.
func Relevance(domain *models.Domain, n *models.Notice, now time.Time, throttle *notice.Throttle, shearTravelSeconds float64) (dispatch bool, reason string) {
	previous := domain.PreviousForEvent(n.Event.ID)
	if previous == nil {
		if n.Significance == models.SignificanceNone {
			return false, "no_significance"
		}
		return true, string(n.Significance)
	}
	if !domain.Updates {
		return false, "updates_disabled"
	}
	r := notice.Supersedes(n, previous, domain.Name, n.Event.ID, throttle, now, shearTravelSeconds)
	if r == notice.ReasonNone {
		return false, "not_superseding"
	}
	return true, string(r)
}
