// Package directive recognises the inline @delete and @schedule directives
// authors may leave in item text and resolves them to absolute instants.
//
// Directives are hints, not commands: a text with a malformed directive is
// ordinary text and resolves to nothing.
package directive

import (
	"time"

	"github.com/aquilax/itemboard/timeunit"
)

// ISOFormat is the layout used when a relative schedule is frozen into text.
const ISOFormat = "2006-01-02T15:04:05.000Z07:00"

// Resolution is the outcome of resolving a directive in a text.
// At is only meaningful when OK is true.
type Resolution struct {
	Text string
	At   time.Time
	OK   bool
}

// HasDeleteMention reports whether the text mentions @delete at all.
func HasDeleteMention(text string) bool {
	return ContainsDeleteToken(text)
}

// HasScheduleMention reports whether the text mentions @schedule at all.
func HasScheduleMention(text string) bool {
	return ContainsScheduleToken(text)
}

// ResolveDelete returns the instant an `@delete in N unit` directive asks for.
// The text is never modified. An amount that lands outside the timestamp year
// range resolves to nothing.
func ResolveDelete(text string, now time.Time) Resolution {
	m := MatchDelete(text)
	if m.Kind != Matched {
		return Resolution{Text: text}
	}
	at, ok := timeunit.AddChecked(now, m.Unit, m.Number)
	if !ok {
		return Resolution{Text: text}
	}
	return Resolution{Text: text, At: at, OK: true}
}

// ResolveSchedule returns the publication instant of a @schedule directive.
//
// The absolute form wins over the relative one. A relative directive is
// rewritten to `@schedule on <instant>` so that resolving the stored text again
// later yields the same instant. A relative amount whose instant could not be
// written back as a four digit year resolves to nothing and leaves the text alone.
func ResolveSchedule(text string, now time.Time) Resolution {
	if m := MatchScheduleAbsolute(text); m.Kind == Matched {
		return Resolution{Text: text, At: m.At, OK: true}
	}
	m := MatchScheduleRelative(text)
	if m.Kind != Matched {
		return Resolution{Text: text}
	}
	at, ok := timeunit.AddChecked(now, m.Unit, m.Number)
	if !ok {
		return Resolution{Text: text}
	}
	at = at.Truncate(time.Millisecond)
	rewritten := text[:m.Start] + "@schedule on " + at.Format(ISOFormat) + text[m.End:]
	return Resolution{Text: rewritten, At: at, OK: true}
}
