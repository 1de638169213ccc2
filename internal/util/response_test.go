package util

import "testing"

func TestEnvelopeWithCopies(t *testing.T) {
	base := Error("invalid token")
	extended := base.With("valid", false)

	if _, ok := base["valid"]; ok {
		t.Fatalf("With must not mutate the receiver")
	}
	if extended["status"] != StatusError || extended["valid"] != false {
		t.Fatalf("unexpected envelope: %+v", extended)
	}
}
