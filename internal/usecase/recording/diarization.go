package recording

import (
	"go.uber.org/zap"

	"github.com/rmoh-git/kwik-med-emr-backend/internal/domain/entities"
)

// SpeakerMapper assigns domain speaker roles to transcript segments using
// interval overlap against provider speaker turns. A mapper is scoped to one
// recording: the label-to-role table is built incrementally as segments are
// walked in chronological order.
type SpeakerMapper struct {
	roles  map[string]entities.SpeakerRole
	logger *zap.Logger
}

// NewSpeakerMapper creates a fresh mapper for one recording
func NewSpeakerMapper(logger *zap.Logger) *SpeakerMapper {
	return &SpeakerMapper{
		roles:  make(map[string]entities.SpeakerRole),
		logger: logger,
	}
}

// Map assigns a speaker role to every segment. Segments with no overlapping
// turn, and all segments when the turn list is empty or malformed, degrade
// to the unknown speaker. Mapping never fails.
func (m *SpeakerMapper) Map(segments []entities.Segment, turns []entities.SpeakerTurn) []entities.Segment {
	mapped := make([]entities.Segment, len(segments))
	copy(mapped, segments)

	if len(turns) == 0 {
		for i := range mapped {
			mapped[i].Speaker = entities.SpeakerUnknown
		}
		if m.logger != nil && len(mapped) > 0 {
			m.logger.Warn("⚠️ No speaker turns available, all segments set to unknown",
				zap.Int("segment_count", len(mapped)),
			)
		}
		return mapped
	}

	for i := range mapped {
		label := dominantLabel(mapped[i], turns)
		if label == "" {
			mapped[i].Speaker = entities.SpeakerUnknown
			continue
		}
		mapped[i].Speaker = m.roleFor(label)
	}

	return mapped
}

// dominantLabel returns the turn label with the largest cumulative overlap
// for the segment. Ties are broken by first-encountered label in turn
// iteration order, which keeps the assignment deterministic. Returns the
// empty string when no turn overlaps the segment.
func dominantLabel(seg entities.Segment, turns []entities.SpeakerTurn) string {
	overlaps := make(map[string]float64)
	var order []string

	for _, t := range turns {
		if t.EndTime < t.StartTime {
			continue
		}
		start := seg.StartTime
		if t.StartTime > start {
			start = t.StartTime
		}
		end := seg.EndTime
		if t.EndTime < end {
			end = t.EndTime
		}
		overlap := end - start
		if overlap <= 0 {
			continue
		}
		if _, seen := overlaps[t.SpeakerLabel]; !seen {
			order = append(order, t.SpeakerLabel)
		}
		overlaps[t.SpeakerLabel] += overlap
	}

	best := ""
	bestOverlap := 0.0
	for _, label := range order {
		if overlaps[label] > bestOverlap {
			best = label
			bestOverlap = overlaps[label]
		}
	}
	return best
}

// roleFor maps a provider label to a domain role, assigning roles in order
// of first appearance: first label is the practitioner, second the patient,
// any later label is unknown. In a two-party consultation the practitioner
// is assumed to speak first; callers needing different semantics must remap
// afterwards.
func (m *SpeakerMapper) roleFor(label string) entities.SpeakerRole {
	if role, ok := m.roles[label]; ok {
		return role
	}

	var role entities.SpeakerRole
	switch len(m.roles) {
	case 0:
		role = entities.SpeakerPractitioner
	case 1:
		role = entities.SpeakerPatient
	default:
		role = entities.SpeakerUnknown
	}
	m.roles[label] = role
	return role
}
