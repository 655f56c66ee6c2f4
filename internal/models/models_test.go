package models_test

import (
	"testing"

	"xmr-arcade-backend/internal/models"
)

func TestRoundStateShapes(t *testing.T) {
	s := models.Waiting()
	if s.Phase != models.PhaseWaiting {
		t.Errorf("expected waiting phase, got %s", s.Phase)
	}

	s = models.Countdown(5)
	if s.Phase != models.PhaseCountdown || s.SecondsLeft != 5 {
		t.Errorf("unexpected countdown state: %+v", s)
	}

	s = models.Reveal(3, 2, 5.75)
	if s.WinningSpot != 2 || s.EndOffset != 5.75 {
		t.Errorf("unexpected reveal state: %+v", s)
	}

	s = models.Settled(4)
	if s.Phase != models.PhaseSettled || s.WinningSpot != 4 {
		t.Errorf("unexpected settled state: %+v", s)
	}
}

func TestLaneConfigs(t *testing.T) {
	if len(models.LaneConfigs) != 6 {
		t.Fatalf("expected 6 lanes, got %d", len(models.LaneConfigs))
	}

	for i, cfg := range models.LaneConfigs {
		if cfg.SpotCount != 2 && cfg.SpotCount != 4 {
			t.Errorf("lane %d: unexpected spot count %d", i+1, cfg.SpotCount)
		}
		if cfg.SpotCost <= 0 || cfg.Prize <= 0 {
			t.Errorf("lane %d: non-positive amounts %+v", i+1, cfg)
		}
		if cfg.Prize <= cfg.SpotCost {
			t.Errorf("lane %d: prize should exceed a single spot cost", i+1)
		}
	}

	// Lane 2 is the original two-spot coin-flip style lane.
	if models.LaneConfigs[1].SpotCount != 2 || models.LaneConfigs[1].Prize != 40_000_000_000 {
		t.Errorf("lane 2 config drifted: %+v", models.LaneConfigs[1])
	}
}

func TestWithdrawRequestValidate(t *testing.T) {
	req := &models.WithdrawCreateRequest{Address: "46abc", Amount: 0.5}
	if err := req.Validate(); err != nil {
		t.Errorf("valid request rejected: %v", err)
	}
	if req.AmountPiconero() != 500_000_000_000 {
		t.Errorf("expected 0.5 XMR in piconero, got %d", req.AmountPiconero())
	}

	dust := &models.WithdrawCreateRequest{Address: "46abc", Amount: 0.00005}
	if err := dust.Validate(); err == nil {
		t.Error("dust withdrawal should fail validation")
	}
}

func TestWithdrawTerminal(t *testing.T) {
	w := &models.WithdrawRequest{Status: models.WithdrawStatusInitiated}
	if w.Terminal() {
		t.Error("initiated request should not be terminal")
	}
	w.Status = models.WithdrawStatusSent
	if !w.Terminal() {
		t.Error("sent request should be terminal")
	}
}
