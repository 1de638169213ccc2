package domain

import (
	"testing"
	"time"
)

func TestHasPendingReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		reset *ResetToken
		want  bool
	}{
		{"no token", nil, false},
		{"live", &ResetToken{TokenHash: "digest", ExpiresAt: now.Add(time.Minute)}, true},
		{"expires now", &ResetToken{TokenHash: "digest", ExpiresAt: now}, false},
		{"expired", &ResetToken{TokenHash: "digest", ExpiresAt: now.Add(-time.Second)}, false},
		{"empty hash", &ResetToken{ExpiresAt: now.Add(time.Hour)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{Reset: tc.reset}
			if got := u.HasPendingReset(now); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	u := &User{Reset: &ResetToken{TokenHash: "digest", ExpiresAt: now.Add(time.Hour)}}
	u.ClearReset()
	if u.HasPendingReset(now) {
		t.Fatal("expected no pending reset after ClearReset")
	}
}
