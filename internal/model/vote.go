package model

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Lockup is a configured asset/duration bucket tracked by the vote snapshot.
type Lockup struct {
	ID         string  `json:"id" mapstructure:"id"`
	Type       string  `json:"type" mapstructure:"type"`
	Duration   string  `json:"duration" mapstructure:"duration"`
	Multiplier float64 `json:"multiplier" mapstructure:"multiplier"`
}

// VotePool is a pool referenced by an optimization's vote metadata.
type VotePool struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Optimization is one strategy alternative for a lockup bucket.
type Optimization struct {
	Bucket          string          `json:"bucket"`
	VotingPower     float64         `json:"votingPower"`
	ExpectedRewards float64         `json:"expectedRewards"`
	IsWorthChanging bool            `json:"isWorthChanging"`
	PotentialGain   float64         `json:"potentialGain"`
	Deviation       string          `json:"deviation"`
	Message         string          `json:"message"`
	ActiveVoted     json.RawMessage `json:"activeVoted"`
	NewVoted        json.RawMessage `json:"newVoted"`
	Pools           []VotePool      `json:"pools"`
}

// LockupSnapshot is the captured optimization state of one lockup bucket.
type LockupSnapshot struct {
	Type                string          `json:"type"`
	Duration            string          `json:"duration"`
	Multiplier          float64         `json:"multiplier"`
	Period              int             `json:"period"`
	VoteBefore          json.RawMessage `json:"voteBefore"`
	Calculated          json.RawMessage `json:"calculated"`
	VotingPower         float64         `json:"votingPower"`
	TotalExpectedReward float64         `json:"totalExpectedReward"`
	Optimizations       []Optimization  `json:"optimizations"`
}

// VoteSnapshot is one capture across all configured lockup buckets.
// A nil lockup entry records a bucket with no position or a failed fetch.
type VoteSnapshot struct {
	CapturedAt           string                                            `json:"capturedAt"`
	CapturedAtUnix       int64                                             `json:"capturedAtUnix"`
	Period               *int                                              `json:"period"`
	VoteBefore           json.RawMessage                                   `json:"voteBefore"`
	TotalExpectedRewards float64                                           `json:"totalExpectedRewards"`
	Lockups              *orderedmap.OrderedMap[string, *LockupSnapshot] `json:"lockups"`
}

// NewVoteSnapshot returns an empty snapshot with an initialised lockup map.
func NewVoteSnapshot(capturedAt string, capturedAtUnix int64) *VoteSnapshot {
	return &VoteSnapshot{
		CapturedAt:     capturedAt,
		CapturedAtUnix: capturedAtUnix,
		Lockups:        orderedmap.New[string, *LockupSnapshot](),
	}
}

// Succeeded returns the number of buckets holding a captured position.
func (s *VoteSnapshot) Succeeded() int {
	var n int
	for pair := s.Lockups.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value != nil {
			n++
		}
	}
	return n
}
