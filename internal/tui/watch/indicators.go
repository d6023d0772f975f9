package watch

import (
	"strings"
	"time"
)

const activityDots = 5

// Activity lights up when events arrive and fades one dot every two
// seconds of silence.
type Activity struct {
	dots      int
	lastEvent time.Time
}

func (a *Activity) OnEvent(at time.Time) {
	a.dots = activityDots
	a.lastEvent = at
}

// Decay fades the indicator based on time since the last event.
func (a *Activity) Decay(now time.Time) {
	if a.dots == 0 {
		return
	}
	left := activityDots - int(now.Sub(a.lastEvent)/(2*time.Second))
	if left < 0 {
		left = 0
	}
	if left < a.dots {
		a.dots = left
	}
}

func (a Activity) Render(theme Theme) string {
	var b strings.Builder
	for i := 0; i < activityDots; i++ {
		if i < a.dots {
			b.WriteString(theme.DotActive.Render("●"))
		} else {
			b.WriteString(theme.DotInactive.Render("○"))
		}
	}
	return b.String()
}

func (a Activity) LastEvent() time.Time {
	return a.lastEvent
}
