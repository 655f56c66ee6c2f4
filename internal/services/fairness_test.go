package services_test

import (
	"strings"
	"testing"

	"xmr-arcade-backend/internal/services"
)

func TestGenerateRoundSecret(t *testing.T) {
	a := services.GenerateRoundSecret()
	b := services.GenerateRoundSecret()

	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if a == b {
		t.Error("Two generated secrets should not collide")
	}
}

func TestWinningSpotDeterministic(t *testing.T) {
	secret := strings.Repeat("a", 64)

	// 0xaa..a mod 4 = 2, so spot 3 wins with an empty spot secret
	win := services.WinningSpot(secret, "", 4)
	if win != 3 {
		t.Errorf("Expected winning spot 3, got %d", win)
	}

	for i := 0; i < 10; i++ {
		if services.WinningSpot(secret, "", 4) != win {
			t.Fatal("Winning spot should be stable across evaluations")
		}
	}
}

func TestWinningSpotRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		secret := services.GenerateRoundSecret()
		for _, spotCount := range []int{2, 4, 8} {
			win := services.WinningSpot(secret, "", spotCount)
			if win < 1 || win > spotCount {
				t.Fatalf("Winning spot %d out of range 1..%d", win, spotCount)
			}
		}
	}
}

func TestWinningSpotEmptySecrets(t *testing.T) {
	// no spots bought, no round secret: both evaluate as zero
	if win := services.WinningSpot("", "", 4); win != 1 {
		t.Errorf("Expected spot 1 for empty secrets, got %d", win)
	}
}

func TestSpotSecretDeterministic(t *testing.T) {
	secret := services.GenerateRoundSecret()
	now := int64(1700000000)

	frag1, bucket1 := services.SpotSecret(secret, 4, now)
	frag2, bucket2 := services.SpotSecret(secret, 4, now)

	if frag1 != frag2 || bucket1 != bucket2 {
		t.Error("Same inputs should derive the same fragment and bucket")
	}
	if bucket1 < 0 || bucket1 >= 100000 {
		t.Errorf("Time bucket %d out of range", bucket1)
	}
	if recomputed := services.FragmentForBucket(bucket1, 4); recomputed != frag1 {
		t.Errorf("Fragment should be recomputable from its bucket: %s != %s", recomputed, frag1)
	}
}

func TestFragmentLengths(t *testing.T) {
	secret := services.GenerateRoundSecret()

	for _, spotCount := range []int{2, 4, 8} {
		frag, _ := services.SpotSecret(secret, spotCount, 1700000000)
		if len(frag) != 64/spotCount {
			t.Errorf("Expected fragment of %d chars for %d spots, got %d",
				64/spotCount, spotCount, len(frag))
		}
	}
}
