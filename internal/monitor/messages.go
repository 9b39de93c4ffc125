package monitor

import (
	"fmt"

	"github.com/quakewatch/quakewatch/internal/models"
	"github.com/quakewatch/quakewatch/internal/sink"
)

// Stage names one step of the fixed message sequence a notice renders
// through (§4.7 step 3).
type Stage string

const (
	StageMinimal Stage = "minimal"
	StageWarning Stage = "warning"
	StageTsunami Stage = "tsunami"
	StageFelt    Stage = "felt"
	StageDetails Stage = "details"
	StageArrival Stage = "arrival"
)

var stageOrder = []Stage{StageMinimal, StageWarning, StageTsunami, StageFelt, StageDetails, StageArrival}

// MessageIterator lazily renders each stage for a notice, skipping any
// stage that has nothing to say. Callers pull one line at a time so a
// subscriber claiming the stream mid-way never pays for rendering stages
// it won't use.
type MessageIterator struct {
	notice *models.Notice
	style  sink.Style
	idx    int
}

func NewMessageIterator(n *models.Notice, style sink.Style) *MessageIterator {
	return &MessageIterator{notice: n, style: style}
}

// Next returns the next non-empty rendered line, or ok=false once every
// stage has been tried.
func (it *MessageIterator) Next() (line string, ok bool) {
	for it.idx < len(stageOrder) {
		stage := stageOrder[it.idx]
		it.idx++
		if rendered := renderStage(stage, it.notice, it.style); rendered != "" {
			return rendered, true
		}
	}
	return "", false
}

func renderStage(stage Stage, n *models.Notice, style sink.Style) string {
	switch stage {
	case StageMinimal:
		return renderMinimal(n, style)
	case StageWarning:
		if n.Timely != models.TimelyWarning && n.Timely != models.TimelyEmergency {
			return ""
		}
		return fmt.Sprintf("Warning: M%.1f earthquake detected near %s", n.Event.Mag.Value, n.RegionOrTsunami())
	case StageTsunami:
		if !n.HasTsunami {
			return ""
		}
		return fmt.Sprintf("Tsunami risk for %s", n.RegionOrTsunami())
	case StageFelt:
		witnesses := n.Event.Witnesses()
		if len(witnesses) == 0 {
			return ""
		}
		return fmt.Sprintf("%d people reported feeling this", len(witnesses))
	case StageDetails:
		return fmt.Sprintf("Depth %.0fkm, intensity %s, status %s", n.Event.Coords.DepthKm(), n.Event.Intensity.String(), n.Event.Status.Label)
	case StageArrival:
		if !n.Early {
			return ""
		}
		return "Shaking may not have arrived at your location yet"
	default:
		return ""
	}
}

func renderMinimal(n *models.Notice, style sink.Style) string {
	switch style {
	case sink.StyleMachine:
		return fmt.Sprintf(`{"event_id":"%s","mag":%.1f}`, n.Event.ID, n.Event.Mag.Value)
	case sink.StyleShort:
		return fmt.Sprintf("M%.1f %s", n.Event.Mag.Value, n.RegionOrTsunami())
	default:
		return fmt.Sprintf("M%.1f earthquake near %s", n.Event.Mag.Value, n.RegionOrTsunami())
	}
}
