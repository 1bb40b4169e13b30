package directive

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/aquilax/itemboard/timeunit"
)

const (
	deleteToken   = "@delete"
	scheduleToken = "@schedule"
)

// Kind tags the outcome of matching one directive shape against a text.
type Kind int

const (
	// NoMatch means the directive token does not appear in the text.
	NoMatch Kind = iota
	// Malformed means the token appears but no occurrence parses as this shape.
	Malformed
	// Matched means an occurrence parsed; the first one wins.
	Matched
)

func (k Kind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Matched:
		return "matched"
	}
	return "no match"
}

// Match is the result of matching a single directive shape.
// Start and End are the byte offsets of the whole phrase, token included.
type Match struct {
	Kind   Kind
	Number int
	Unit   timeunit.Unit
	// Timestamp is the raw timestamp text of an absolute directive and At its
	// parsed value in UTC, truncated to the millisecond.
	Timestamp string
	At        time.Time
	Start     int
	End       int
}

// MatchDelete matches `@delete in <N> <unit>`.
func MatchDelete(text string) Match {
	return matchFirst(text, deleteToken, (*scanner).relative)
}

// MatchScheduleRelative matches `@schedule in <N> <unit>`.
func MatchScheduleRelative(text string) Match {
	return matchFirst(text, scheduleToken, (*scanner).relative)
}

// MatchScheduleAbsolute matches `@schedule on|at|for <timestamp>`.
func MatchScheduleAbsolute(text string) Match {
	return matchFirst(text, scheduleToken, (*scanner).absolute)
}

// ContainsDeleteToken reports whether a bare @delete token appears at a
// directive boundary, whether or not the rest of the directive is valid.
func ContainsDeleteToken(text string) bool {
	return len(tokenOffsets(text, deleteToken)) > 0
}

// ContainsScheduleToken is the @schedule counterpart of ContainsDeleteToken.
func ContainsScheduleToken(text string) bool {
	return len(tokenOffsets(text, scheduleToken)) > 0
}

func matchFirst(text, token string, parse func(*scanner, *Match) bool) Match {
	offsets := tokenOffsets(text, token)
	if len(offsets) == 0 {
		return Match{Kind: NoMatch}
	}
	for _, start := range offsets {
		sc := &scanner{s: text, pos: start + len(token)}
		m := Match{Start: start}
		if parse(sc, &m) {
			m.Kind = Matched
			m.End = sc.pos
			return m
		}
	}
	return Match{Kind: Malformed}
}

// tokenOffsets returns the start of every case-insensitive occurrence of token
// that sits at the start of the text or after a non-word character. A backtick
// does not count, so directives quoted as code are ignored.
func tokenOffsets(text, token string) []int {
	var offsets []int
	for i := 0; i+len(token) <= len(text); {
		j := strings.IndexByte(text[i:], '@')
		if j < 0 {
			break
		}
		i += j
		if i+len(token) <= len(text) && strings.EqualFold(text[i:i+len(token)], token) && atBoundary(text, i) {
			offsets = append(offsets, i)
		}
		i++
	}
	return offsets
}

func atBoundary(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return r != '`' && !isWordChar(r)
}

func isWordChar(r rune) bool {
	return r == '_' || ('0' <= r && r <= '9') || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

type scanner struct {
	s   string
	pos int
}

func (sc *scanner) spaces() bool {
	start := sc.pos
	for sc.pos < len(sc.s) {
		r, size := utf8.DecodeRuneInString(sc.s[sc.pos:])
		if !unicode.IsSpace(r) {
			break
		}
		sc.pos += size
	}
	return sc.pos > start
}

func (sc *scanner) literal(w string) bool {
	end := sc.pos + len(w)
	if end > len(sc.s) || !strings.EqualFold(sc.s[sc.pos:end], w) {
		return false
	}
	sc.pos = end
	return true
}

// letters consumes a run of ASCII letters.
func (sc *scanner) letters() string {
	start := sc.pos
	for sc.pos < len(sc.s) {
		if c := sc.s[sc.pos] | 0x20; c < 'a' || c > 'z' {
			break
		}
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

func (sc *scanner) oneOf(words ...string) bool {
	for _, w := range words {
		if sc.literal(w) {
			return true
		}
	}
	return false
}

// digits consumes between min and max ASCII digits; max <= 0 means unbounded.
func (sc *scanner) digits(min, max int) (string, bool) {
	start := sc.pos
	for sc.pos < len(sc.s) && (max <= 0 || sc.pos-start < max) && '0' <= sc.s[sc.pos] && sc.s[sc.pos] <= '9' {
		sc.pos++
	}
	if sc.pos-start < min {
		sc.pos = start
		return "", false
	}
	return sc.s[start:sc.pos], true
}

func (sc *scanner) number(min, max, lo, hi int) (int, bool) {
	d, ok := sc.digits(min, max)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(d)
	if err != nil || n < lo || n > hi {
		return 0, false
	}
	return n, true
}

// relative parses `ws+ in ws+ <digits> ws+ <unit>[s]`; the unit must be a whole word.
func (sc *scanner) relative(m *Match) bool {
	if !sc.spaces() || !sc.literal("in") || !sc.spaces() {
		return false
	}
	d, ok := sc.digits(1, 0)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(d)
	if err != nil {
		return false
	}
	if !sc.spaces() {
		return false
	}
	u, ok := timeunit.ParseUnit(sc.letters())
	if !ok {
		return false
	}
	m.Number = n
	m.Unit = u
	return true
}

// absolute parses `ws+ (on|at|for) ws+ <timestamp>`.
func (sc *scanner) absolute(m *Match) bool {
	if !sc.spaces() || !sc.oneOf("on", "at", "for") || !sc.spaces() {
		return false
	}
	start := sc.pos
	at, ok := sc.timestamp()
	if !ok {
		return false
	}
	m.Timestamp = sc.s[start:sc.pos]
	m.At = at
	return true
}

// timestamp parses YYYY-MM-DDTHH:MM[:SS[.frac]](Z|±HH[:]MM).
func (sc *scanner) timestamp() (time.Time, bool) {
	year, ok := sc.number(4, 4, 0, 9999)
	if !ok || !sc.literal("-") {
		return time.Time{}, false
	}
	month, ok := sc.number(2, 2, 1, 12)
	if !ok || !sc.literal("-") {
		return time.Time{}, false
	}
	day, ok := sc.number(2, 2, 1, 31)
	if !ok || !sc.literal("t") {
		return time.Time{}, false
	}
	hour, ok := sc.number(1, 2, 0, 23)
	if !ok || !sc.literal(":") {
		return time.Time{}, false
	}
	minute, ok := sc.number(1, 2, 0, 59)
	if !ok {
		return time.Time{}, false
	}
	var second, nsec int
	if sc.literal(":") {
		if second, ok = sc.number(1, 2, 0, 59); !ok {
			return time.Time{}, false
		}
		if sc.literal(".") {
			frac, _ := sc.digits(0, 0)
			nsec = fractionNanos(frac)
		}
	}
	offset, ok := sc.zone()
	if !ok {
		return time.Time{}, false
	}
	loc := time.FixedZone("", offset)
	t := time.Date(year, time.Month(month), day, hour, minute, second, nsec, loc)
	if t.Day() != day || t.Month() != time.Month(month) {
		// e.g. February 30th
		return time.Time{}, false
	}
	return t.UTC().Truncate(time.Millisecond), true
}

func (sc *scanner) zone() (int, bool) {
	if sc.literal("z") {
		return 0, true
	}
	sign := 1
	switch {
	case sc.literal("+"):
	case sc.literal("-"):
		sign = -1
	default:
		return 0, false
	}
	hh, ok := sc.number(1, 2, 0, 23)
	if !ok {
		return 0, false
	}
	sc.literal(":")
	mm, ok := sc.number(1, 2, 0, 59)
	if !ok {
		return 0, false
	}
	return sign * (hh*60*60 + mm*60), true
}

func fractionNanos(frac string) int {
	if len(frac) > 9 {
		frac = frac[:9]
	}
	n := 0
	for i := 0; i < 9; i++ {
		n *= 10
		if i < len(frac) {
			n += int(frac[i] - '0')
		}
	}
	return n
}
