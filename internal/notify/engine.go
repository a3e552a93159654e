package notify

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/jmcook/norway-alerts/internal/models"
)

// SeverityFloor selects which severity levels trigger notifications.
type SeverityFloor string

const (
	FloorAll        SeverityFloor = "all"
	FloorYellowPlus SeverityFloor = "yellow-plus"
	FloorOrangePlus SeverityFloor = "orange-plus"
	FloorRedOnly    SeverityFloor = "red-only"
)

// ParseFloor validates a configured severity floor.
func ParseFloor(s string) (SeverityFloor, error) {
	switch SeverityFloor(s) {
	case FloorAll, FloorYellowPlus, FloorOrangePlus, FloorRedOnly:
		return SeverityFloor(s), nil
	default:
		return "", fmt.Errorf("invalid notification severity: %q", s)
	}
}

// Threshold returns the minimum severity level the floor admits.
func (f SeverityFloor) Threshold() int {
	switch f {
	case FloorAll:
		return models.SeverityGreen
	case FloorOrangePlus:
		return models.SeverityOrange
	case FloorRedOnly:
		return models.SeverityRed
	default:
		return models.SeverityYellow
	}
}

type prevState struct {
	level  int
	source models.SourceType
	area   string
}

// Engine diffs each refresh snapshot against the previous one and emits
// new/escalated/resolved notifications. It is the only component retaining
// state across refreshes; the previous snapshot is replaced wholesale at
// the end of every Diff. Each monitored area owns its own Engine so
// multiple configurations stay independent.
type Engine struct {
	floor       SeverityFloor
	locationRef string // county id or a coordinate label, used in dedupe ids

	mu   sync.Mutex
	prev map[string]prevState
}

func NewEngine(floor SeverityFloor, locationRef string) *Engine {
	return &Engine{
		floor:       floor,
		locationRef: locationRef,
		prev:        make(map[string]prevState),
	}
}

// Diff classifies every current alert against the previous snapshot and
// returns the notifications to deliver. State transitions per alert id:
// absent -> active is "new"; active -> higher level is "escalated";
// active -> same-or-lower level is silent; active -> absent is "resolved".
// An id reappearing after being resolved counts as new again. The previous
// snapshot is replaced atomically before returning.
func (e *Engine) Diff(current []models.Alert) []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := make(map[string]prevState, len(current))
	var out []Notification

	for _, a := range current {
		area := displayArea(a)
		next[a.ID] = prevState{level: a.SeverityLevel, source: a.SourceType, area: area}

		if a.SeverityLevel < e.floor.Threshold() {
			continue
		}

		prev, seen := e.prev[a.ID]
		switch {
		case !seen:
			out = append(out, e.alertNotification(a, KindNew, area))
		case a.SeverityLevel > prev.level:
			out = append(out, e.alertNotification(a, KindEscalated, area))
		}
		// Unchanged or decreased severity stays silent; a decrease only
		// surfaces as "resolved" once the alert disappears entirely.
	}

	for id, prev := range e.prev {
		if _, still := next[id]; !still {
			out = append(out, e.resolvedNotification(id, prev))
		}
	}

	e.prev = next
	return out
}

// PreviousSize reports how many alert ids the engine is tracking.
func (e *Engine) PreviousSize() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.prev)
}

var levelEmoji = map[int]string{
	models.SeverityGreen:   "\U0001F7E2",
	models.SeverityYellow:  "\U0001F7E1",
	models.SeverityOrange:  "\U0001F7E0",
	models.SeverityRed:     "\U0001F534",
	models.SeverityExtreme: "⚫",
}

func (e *Engine) alertNotification(a models.Alert, kind Kind, area string) Notification {
	emoji, ok := levelEmoji[a.SeverityLevel]
	if !ok {
		emoji = "⚪"
	}
	status := "New"
	if kind == KindEscalated {
		status = "Escalated"
	}

	headline := a.Title
	// Truncate on rune boundaries; Norwegian titles are full of multi-byte
	// characters and a byte cut can split one.
	if runes := []rune(headline); len(runes) > 100 {
		headline = string(runes[:97]) + "..."
	}
	message := fmt.Sprintf("%s - %s danger level", area, titleCase(models.SeverityName(a.SeverityLevel)))
	if headline != "" {
		message += "\n\n" + headline
	}

	return Notification{
		ID:       uuid.NewString(),
		Kind:     kind,
		AlertID:  a.ID,
		Source:   a.SourceType,
		Area:     area,
		Level:    a.SeverityLevel,
		Title:    fmt.Sprintf("%s %s %s Warning", emoji, status, familyLabel(a.SourceType)),
		Message:  message,
		DedupeID: fmt.Sprintf("norway_alerts_%s_%s_%s", e.locationRef, a.SourceType, a.ID),
		At:       models.Clock().Now(),
	}
}

func (e *Engine) resolvedNotification(alertID string, prev prevState) Notification {
	return Notification{
		ID:       uuid.NewString(),
		Kind:     KindResolved,
		AlertID:  alertID,
		Source:   prev.source,
		Area:     prev.area,
		Level:    prev.level,
		Title:    fmt.Sprintf("✅ Resolved %s Warning", familyLabel(prev.source)),
		Message:  fmt.Sprintf("%s - Warning no longer active", prev.area),
		DedupeID: fmt.Sprintf("norway_alerts_resolved_%s_%s_%s", e.locationRef, prev.source, prev.area),
		At:       models.Clock().Now(),
	}
}

func displayArea(a models.Alert) string {
	if a.Extra != nil {
		if region, ok := a.Extra["region_name"].(string); ok && region != "" {
			return region
		}
	}
	if len(a.AffectedAreas) > 0 {
		return strings.Join(a.AffectedAreas, ", ")
	}
	return "Unknown area"
}

func familyLabel(source models.SourceType) string {
	s := string(source)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
