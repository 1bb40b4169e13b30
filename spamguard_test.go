package main

import (
	"testing"
	"time"
)

func TestNewSpamGuard(t *testing.T) {
	t.Run("spamguard blocks too frequent posts", func(t *testing.T) {
		now := time.Date(2024, time.February, 18, 0, 0, 0, 0, time.UTC)
		var canPost bool
		sg := NewSpamGuard(time.Second, func() time.Time { return now })
		if canPost = sg.CanPost("test"); !canPost {
			t.Errorf("Expected to be allowed to make first post")
		}
		if canPost = sg.CanPost("test"); canPost {
			t.Errorf("Expected to be disallowed to make second post")
		}
		if canPost = sg.CanPost("other"); !canPost {
			t.Errorf("Expected other poster to be allowed")
		}
		now = now.Add(time.Hour)
		if canPost = sg.CanPost("test"); !canPost {
			t.Errorf("Expected to be allowed to make third post after time has passed")
		}
	})
	t.Run("expired entries are cleaned", func(t *testing.T) {
		now := time.Date(2024, time.February, 18, 0, 0, 0, 0, time.UTC)
		sg := NewSpamGuard(time.Second, func() time.Time { return now })
		sg.CanPost("a")
		sg.CanPost("b")
		sg.clean(now.Add(time.Minute))
		if len(sg.posts) != 0 {
			t.Errorf("Expected no tracked posters, got %d", len(sg.posts))
		}
	})
}
