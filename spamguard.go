package main

import (
	"sync"
	"time"
)

// SpamGuard allows one post per key within the block window.
type SpamGuard struct {
	duration time.Duration
	posts    map[string]time.Time
	mutex    *sync.Mutex
	now      func() time.Time
}

func NewSpamGuard(duration time.Duration, now func() time.Time) *SpamGuard {
	if now == nil {
		now = time.Now
	}
	return &SpamGuard{
		duration: duration,
		posts:    make(map[string]time.Time),
		mutex:    &sync.Mutex{},
		now:      now,
	}
}

func (sg *SpamGuard) CanPost(id string) bool {
	result := true
	now := sg.now()
	sg.mutex.Lock()
	defer sg.mutex.Unlock()
	sg.clean(now)
	expires, found := sg.posts[id]
	if found && expires.After(now) {
		// Blocked
		result = false
	} else {
		sg.posts[id] = now.Add(sg.duration)
	}
	return result
}

func (sg *SpamGuard) clean(now time.Time) {
	for key, expires := range sg.posts {
		if !expires.After(now) {
			delete(sg.posts, key)
		}
	}
}
