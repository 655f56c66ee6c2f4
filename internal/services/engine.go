package services

import (
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"xmr-arcade-backend/internal/models"
	"xmr-arcade-backend/internal/store"
)

const (
	countdownSeconds = 5
	resolvingSeconds = 3
	revealSeconds    = 3
	tickPeriod       = time.Second
)

// GameEngine runs every lane's round lifecycle and owns the spot
// reservation protocol. All mutation of a round and its spots happens under
// that lane's mutex, so two purchases can never both believe they bought
// the last spot and a scheduler tick can never race a purchase.
type GameEngine struct {
	store       store.Store
	ledger      *Ledger
	broadcaster Broadcaster

	laneMu []sync.Mutex
	stop   chan struct{}
}

func NewGameEngine(s store.Store, ledger *Ledger) *GameEngine {
	return &GameEngine{
		store:  s,
		ledger: ledger,
		laneMu: make([]sync.Mutex, len(models.LaneConfigs)),
		stop:   make(chan struct{}),
	}
}

// SetBroadcaster wires the websocket feed in after construction; the engine
// works without one.
func (ge *GameEngine) SetBroadcaster(b Broadcaster) {
	ge.broadcaster = b
}

func (ge *GameEngine) laneLock(lane int) *sync.Mutex {
	return &ge.laneMu[lane-1]
}

// EnsureLanes creates the first waiting round for any lane that has none.
// Called once at boot; on a restart the existing rounds are picked up as-is.
func (ge *GameEngine) EnsureLanes() error {
	for lane := 1; lane <= len(models.LaneConfigs); lane++ {
		_, err := ge.store.GetRoundByLane(lane)
		if err == nil {
			continue
		}
		if err != store.ErrNotFound {
			return err
		}
		if _, err := ge.spawnRound(lane, ""); err != nil {
			return fmt.Errorf("failed to start game %d: %v", lane, err)
		}
	}
	return nil
}

func (ge *GameEngine) spawnRound(lane int, prevRoundID string) (*models.Round, error) {
	cfg := models.LaneConfigs[lane-1]
	r := &models.Round{
		ID:          models.NewID(),
		Lane:        lane,
		State:       models.Waiting(),
		Active:      true,
		Secret:      GenerateRoundSecret(),
		SpotCount:   cfg.SpotCount,
		SpotCost:    cfg.SpotCost,
		Prize:       cfg.Prize,
		PrevRoundID: prevRoundID,
		CreatedAt:   models.Now(),
	}
	if err := ge.store.SaveRound(r); err != nil {
		return nil, err
	}
	ge.broadcastRound(r)
	return r, nil
}

// ReserveSpot buys one spot in a waiting round. Exactly one spot row and
// one debit per successful call; every failure path leaves no partial state.
func (ge *GameEngine) ReserveSpot(roundID string, spotNum int, playerID string) (*models.Spot, error) {
	r, err := ge.store.GetRound(roundID)
	if err != nil {
		return nil, err
	}

	mu := ge.laneLock(r.Lane)
	mu.Lock()
	defer mu.Unlock()

	// re-read under the lane lock, the round may have moved on
	r, err = ge.store.GetRound(roundID)
	if err != nil {
		return nil, err
	}
	if !r.Active || r.State.Phase != models.PhaseWaiting {
		return nil, ErrRoundClosed
	}
	if spotNum < 1 || spotNum > r.SpotCount {
		return nil, ErrInvalidSpot
	}

	spots, err := ge.store.GetSpots(r.ID)
	if err != nil {
		return nil, err
	}
	for _, sp := range spots {
		if sp.SpotNum == spotNum {
			return nil, ErrInvalidSpot
		}
	}

	lastSpot := len(spots) == r.SpotCount-1
	if lastSpot && allOwnedBy(spots, playerID) {
		return nil, ErrSelfSweepDenied
	}

	if err := ge.ledger.Debit(playerID, r.SpotCost); err != nil {
		return nil, err
	}

	fragment, bucket := SpotSecret(r.Secret, r.SpotCount, time.Now().Unix())
	spot := &models.Spot{
		ID:         models.NewID(),
		RoundID:    r.ID,
		SpotNum:    spotNum,
		PlayerID:   playerID,
		Secret:     fragment,
		SecretTime: bucket,
		Cost:       r.SpotCost,
		CreatedAt:  models.Now(),
	}
	if err := ge.store.CreateSpot(spot); err != nil {
		if cerr := ge.ledger.Credit(playerID, r.SpotCost); cerr != nil {
			log.Printf("failed to refund player %s after spot create error: %v", playerID, cerr)
		}
		if err == store.ErrSpotTaken {
			return nil, ErrInvalidSpot
		}
		return nil, err
	}

	r.SpotSecret += fragment
	if lastSpot {
		// last open spot sold: freeze the spot secret for good
		r.State = models.Countdown(countdownSeconds)
		log.Printf("game %d: round %s full, starting", r.Lane, r.ID)
	}
	if err := ge.store.SaveRound(r); err != nil {
		return nil, err
	}

	ge.broadcastRound(r)
	return spot, nil
}

func allOwnedBy(spots []*models.Spot, playerID string) bool {
	for _, sp := range spots {
		if sp.PlayerID != playerID {
			return false
		}
	}
	return true
}

// AdvanceRound moves one round a single tick through its lifecycle.
func (ge *GameEngine) AdvanceRound(roundID string) error {
	r, err := ge.store.GetRound(roundID)
	if err != nil {
		return err
	}

	mu := ge.laneLock(r.Lane)
	mu.Lock()
	defer mu.Unlock()

	r, err = ge.store.GetRound(roundID)
	if err != nil {
		return err
	}
	return ge.advance(r)
}

// advance implements the tick table. Caller holds the lane lock.
func (ge *GameEngine) advance(r *models.Round) error {
	switch r.State.Phase {
	case models.PhaseWaiting, models.PhaseSettled:
		return nil

	case models.PhaseCountdown:
		r.State.SecondsLeft--
		if r.State.SecondsLeft <= 0 {
			win := WinningSpot(r.Secret, r.SpotSecret, r.SpotCount)
			r.State = models.Resolving(resolvingSeconds, endOffset(win, r.SpotCount))
		}

	case models.PhaseResolving:
		r.State.SecondsLeft--
		if r.State.SecondsLeft <= 0 {
			win := WinningSpot(r.Secret, r.SpotSecret, r.SpotCount)
			r.State = models.Reveal(revealSeconds, win, r.State.EndOffset)
		}

	case models.PhaseReveal:
		r.State.SecondsLeft--
		if r.State.SecondsLeft <= 0 {
			if err := ge.settle(r); err != nil {
				return err
			}
			_, err := ge.spawnRound(r.Lane, r.ID)
			return err
		}
	}

	if err := ge.store.SaveRound(r); err != nil {
		return err
	}
	ge.broadcastRound(r)
	return nil
}

// settle deactivates the round and pays the winner once. The active flag is
// the idempotency guard: a second invocation is a no-op.
func (ge *GameEngine) settle(r *models.Round) error {
	if !r.Active {
		return nil
	}

	win := WinningSpot(r.Secret, r.SpotSecret, r.SpotCount)
	spot, err := ge.store.GetSpot(r.ID, win)
	if err != nil {
		return fmt.Errorf("round %s: winning spot %d has no owner: %v", r.ID, win, err)
	}

	r.Active = false
	r.State = models.Settled(win)
	if err := ge.store.SaveRound(r); err != nil {
		return err
	}

	if err := ge.ledger.Credit(spot.PlayerID, r.Prize); err != nil {
		return fmt.Errorf("round %s: failed to pay winner %s: %v", r.ID, spot.PlayerID, err)
	}
	log.Printf("game %d: spot %d wins %s XMR", r.Lane, win, models.FormatXMR(r.Prize))

	ge.broadcastRound(r)
	ge.broadcastBalance(spot.PlayerID)
	return nil
}

// Tick advances every round past the waiting phase. A failure on one round
// is logged and never stops the others.
func (ge *GameEngine) Tick() {
	rounds, err := ge.store.ActiveRounds()
	if err != nil {
		log.Printf("scheduler: failed to list active rounds: %v", err)
		return
	}

	for _, r := range rounds {
		if err := ge.advanceOne(r.ID); err != nil {
			log.Printf("scheduler: game %d round %s: %v", r.Lane, r.ID, err)
		}
	}
}

func (ge *GameEngine) advanceOne(roundID string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic advancing round: %v", rec)
		}
	}()
	return ge.AdvanceRound(roundID)
}

// Run drives the scheduler for the process lifetime.
func (ge *GameEngine) Run() {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ge.Tick()
		case <-ge.stop:
			return
		}
	}
}

func (ge *GameEngine) Stop() {
	close(ge.stop)
}

func (ge *GameEngine) broadcastRound(r *models.Round) {
	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastRound(r)
	}
}

func (ge *GameEngine) broadcastBalance(playerID string) {
	if ge.broadcaster == nil {
		return
	}
	bal, err := ge.ledger.Balance(playerID)
	if err != nil {
		log.Printf("failed to read balance for broadcast: %v", err)
		return
	}
	ge.broadcaster.BroadcastBalance(playerID, bal)
}

// endOffset is the wheel landing value the client animates toward. Purely
// cosmetic; the winning spot is already decided by the fairness math.
func endOffset(winningSpot, spotCount int) float64 {
	randEnd := (rand.Float64()*0.8)/float64(spotCount) + 0.1/float64(spotCount)
	base := float64(rand.Intn(3) + 5) // 5..7 full turns
	return math.Round((base+landingOffset(winningSpot, spotCount)+randEnd)*100) / 100
}

func landingOffset(winningSpot, spotCount int) float64 {
	switch spotCount {
	case 2:
		return [2]float64{0, 0.5}[winningSpot-1]
	case 4:
		return [4]float64{0, 0.75, 0.25, 0.5}[winningSpot-1]
	case 8:
		return [8]float64{0, 0.75, 0.125, 0.5, 0, 0.625, 0.125, 0.375}[winningSpot-1]
	}
	return 0
}
