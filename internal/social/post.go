// Package social collects off-chain posts and condenses them into aura readings.
package social

import "time"

// Post is one social media message returned by the search API.
type Post struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Followers int       `json:"followers"`
	CreatedAt time.Time `json:"created_at"`
}

// Reading is the windowed aura aggregate for one keyword.
type Reading struct {
	Keyword  string
	Score    float64 // [-1, 1], follower-weighted mean post sentiment
	Mentions int
	Ts       time.Time
}
