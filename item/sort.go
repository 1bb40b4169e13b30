package item

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aquilax/itemboard/timeunit"
)

type SortMode string

const (
	SortRecent SortMode = "recent"
	SortTop    SortMode = "top"
	SortHot    SortMode = "hot"
)

func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(s); m {
	case SortRecent, SortTop, SortHot:
		return m, nil
	}
	return "", fmt.Errorf("unknown sort mode %q", s)
}

// DefaultCommentSort picks how the comments of an item are ordered when the
// reader did not ask for anything. Pins read newest first, stale non-bio items
// rank by score since hot decays to nothing with age.
func DefaultCommentSort(pinned, bio bool, createdAt, now time.Time, oldItemDays int) SortMode {
	if pinned {
		return SortRecent
	}
	if !bio && createdAt.Before(timeunit.Add(now, timeunit.Day, -oldItemDays)) {
		return SortTop
	}
	return SortHot
}

const hotGravity = 1.8

// HotRank scores an item by votes decayed with its age in hours.
func HotRank(score int, createdAt, now time.Time) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}
	return float64(score+1) / math.Pow(hours+2, hotGravity)
}

// Sort orders list in place according to mode.
func Sort(list List, mode SortMode, now time.Time) {
	sort.SliceStable(list, func(a, b int) bool {
		x, y := list[a], list[b]
		switch mode {
		case SortTop:
			if x.Score != y.Score {
				return x.Score > y.Score
			}
		case SortHot:
			rx, ry := HotRank(x.Score, x.CreatedAt, now), HotRank(y.Score, y.CreatedAt, now)
			if rx != ry {
				return rx > ry
			}
		}
		return x.CreatedAt.After(y.CreatedAt)
	})
}
