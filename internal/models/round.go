package models

import (
	"crypto/sha256"
	"encoding/hex"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseResolving Phase = "resolving"
	PhaseReveal    Phase = "reveal"
	PhaseSettled   Phase = "settled"
)

// RoundState is the round lifecycle as a tagged structure. Which payload
// fields are meaningful depends on Phase:
//
//	waiting    - none
//	countdown  - SecondsLeft
//	resolving  - SecondsLeft, EndOffset
//	reveal     - SecondsLeft, WinningSpot, EndOffset
//	settled    - WinningSpot
type RoundState struct {
	Phase       Phase   `json:"phase" redis:"phase"`
	SecondsLeft int     `json:"seconds_left,omitempty" redis:"seconds_left"`
	WinningSpot int     `json:"winning_spot,omitempty" redis:"winning_spot"`
	EndOffset   float64 `json:"end_offset,omitempty" redis:"end_offset"`
}

func Waiting() RoundState {
	return RoundState{Phase: PhaseWaiting}
}

func Countdown(seconds int) RoundState {
	return RoundState{Phase: PhaseCountdown, SecondsLeft: seconds}
}

func Resolving(seconds int, endOffset float64) RoundState {
	return RoundState{Phase: PhaseResolving, SecondsLeft: seconds, EndOffset: endOffset}
}

func Reveal(seconds, winningSpot int, endOffset float64) RoundState {
	return RoundState{Phase: PhaseReveal, SecondsLeft: seconds, WinningSpot: winningSpot, EndOffset: endOffset}
}

func Settled(winningSpot int) RoundState {
	return RoundState{Phase: PhaseSettled, WinningSpot: winningSpot}
}

type Round struct {
	ID     string     `json:"id" redis:"id"`
	Lane   int        `json:"lane" redis:"lane"`
	State  RoundState `json:"state" redis:"state"`
	Active bool       `json:"active" redis:"active"`

	// Secret is committed at creation and never changes. SpotSecret starts
	// empty and only grows, one fragment per purchased spot; it is frozen the
	// moment the round leaves the waiting phase.
	Secret     string `json:"secret" redis:"secret"`
	SpotSecret string `json:"spot_secret" redis:"spot_secret"`

	SpotCount int   `json:"spot_count" redis:"spot_count"`
	SpotCost  int64 `json:"spot_cost" redis:"spot_cost"`
	Prize     int64 `json:"prize" redis:"prize"`

	PrevRoundID string `json:"prev_round_id,omitempty" redis:"prev_round_id"`
	CreatedAt   int64  `json:"created_at" redis:"created_at"`
}

// SecretHash is the public commitment to the round secret, shown to players
// while the round is live. The secret itself is only disclosed after settle.
func (r *Round) SecretHash() string {
	sum := sha256.Sum256([]byte(r.Secret))
	return hex.EncodeToString(sum[:])
}

type Spot struct {
	ID       string `json:"id" redis:"id"`
	RoundID  string `json:"round_id" redis:"round_id"`
	SpotNum  int    `json:"spot_num" redis:"spot_num"`
	PlayerID string `json:"player_id" redis:"player_id"`

	// Secret is this purchase's fragment of the round's cumulative spot
	// secret; SecretTime is the time bucket it was derived from.
	Secret     string `json:"secret" redis:"secret"`
	SecretTime int64  `json:"secret_time" redis:"secret_time"`

	Cost      int64 `json:"cost" redis:"cost"`
	CreatedAt int64 `json:"created_at" redis:"created_at"`
}

// LaneConfig is the fixed configuration of one lane. Every round spawned on
// the lane inherits it unchanged.
type LaneConfig struct {
	Prize     int64
	SpotCount int
	SpotCost  int64
}

// LaneConfigs are the six parallel lanes, amounts in piconero.
var LaneConfigs = []LaneConfig{
	{Prize: 15_000_000_000, SpotCount: 4, SpotCost: 4_000_000_000},     // 0.015 / 0.004
	{Prize: 40_000_000_000, SpotCount: 2, SpotCost: 21_000_000_000},    // 0.04 / 0.021
	{Prize: 150_000_000_000, SpotCount: 4, SpotCost: 40_000_000_000},   // 0.15 / 0.04
	{Prize: 500_000_000_000, SpotCount: 4, SpotCost: 130_000_000_000},  // 0.5 / 0.13
	{Prize: 600_000_000_000, SpotCount: 2, SpotCost: 310_000_000_000},  // 0.6 / 0.31
	{Prize: 1_000_000_000_000, SpotCount: 4, SpotCost: 260_000_000_000}, // 1 / 0.26
}
