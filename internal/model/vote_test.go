package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVoteSnapshotJSONKeepsBucketOrderAndNulls(t *testing.T) {
	snap := NewVoteSnapshot("2025-01-06T00:00:00.000Z", 1736121600000)
	snap.Lockups.Set("arbluna-max", &LockupSnapshot{Type: "arbLUNA", Duration: "Max", Multiplier: 10, Period: 115})
	snap.Lockups.Set("ampluna-max", nil)
	snap.Lockups.Set("arbluna-12", &LockupSnapshot{Type: "arbLUNA", Duration: "3mo", Multiplier: 2, Period: 115})

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	text := string(data)

	first := strings.Index(text, `"arbluna-max"`)
	second := strings.Index(text, `"ampluna-max":null`)
	third := strings.Index(text, `"arbluna-12"`)
	if first < 0 || second < 0 || third < 0 {
		t.Fatalf("missing lockup keys: %s", text)
	}
	if !(first < second && second < third) {
		t.Fatalf("lockup order not preserved: %s", text)
	}
	if !strings.Contains(text, `"period":null`) || !strings.Contains(text, `"voteBefore":null`) {
		t.Fatalf("unset period fields should encode as null: %s", text)
	}
	if snap.Succeeded() != 2 {
		t.Fatalf("succeeded mismatch: %d", snap.Succeeded())
	}
}
