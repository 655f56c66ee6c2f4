package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"xmr-arcade-backend/internal/models"
)

// MemoryStore keeps everything behind one mutex. It backs the hermetic
// tests and works as a single-process dev fallback when redis is absent.
type MemoryStore struct {
	mu          sync.Mutex
	players     map[string]*models.Player
	rounds      map[string]*models.Round
	laneRounds  map[int]string // lane -> active round id
	spots       map[string]map[int]*models.Spot
	txs         map[string]*models.DepositTransaction
	withdraws   map[string]*models.WithdrawRequest
	rateWindows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		players:     map[string]*models.Player{},
		rounds:      map[string]*models.Round{},
		laneRounds:  map[int]string{},
		spots:       map[string]map[int]*models.Spot{},
		txs:         map[string]*models.DepositTransaction{},
		withdraws:   map[string]*models.WithdrawRequest{},
		rateWindows: map[string]*rateWindow{},
	}
}

func (s *MemoryStore) CreatePlayer(p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; ok {
		return ErrDuplicate
	}
	cp := *p
	s.players[p.ID] = &cp
	return nil
}

func (s *MemoryStore) GetPlayer(id string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetPlayerByDisplay(display string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.Display == display {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetPlayerByFingerprint(fingerprint string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.Fingerprint == fingerprint {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetPlayerByAddressIndex(index uint64) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.HasDepositAddress() && p.AddressIndex == index {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetDepositAddress(playerID, address string, index uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return ErrNotFound
	}
	p.Address = address
	p.AddressIndex = index
	return nil
}

func (s *MemoryStore) DebitPlayer(playerID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return ErrNotFound
	}
	if p.Balance-amount < 0 {
		return ErrInsufficientBalance
	}
	p.Balance -= amount
	return nil
}

func (s *MemoryStore) CreditPlayer(playerID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return ErrNotFound
	}
	p.Balance += amount
	return nil
}

func (s *MemoryStore) SaveRound(r *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.rounds[r.ID] = &cp
	if r.Active {
		s.laneRounds[r.Lane] = r.ID
	} else if s.laneRounds[r.Lane] == r.ID {
		delete(s.laneRounds, r.Lane)
	}
	return nil
}

func (s *MemoryStore) GetRound(id string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *MemoryStore) GetRoundByLane(lane int) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.laneRounds[lane]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s.rounds[id]
	return &cp, nil
}

func (s *MemoryStore) CurrentRounds() ([]*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lanes := make([]int, 0, len(s.laneRounds))
	for lane := range s.laneRounds {
		lanes = append(lanes, lane)
	}
	sort.Ints(lanes)
	rounds := make([]*models.Round, 0, len(lanes))
	for _, lane := range lanes {
		cp := *s.rounds[s.laneRounds[lane]]
		rounds = append(rounds, &cp)
	}
	return rounds, nil
}

func (s *MemoryStore) ActiveRounds() ([]*models.Round, error) {
	current, err := s.CurrentRounds()
	if err != nil {
		return nil, err
	}
	active := current[:0]
	for _, r := range current {
		if r.State.Phase != models.PhaseWaiting {
			active = append(active, r)
		}
	}
	return active, nil
}

func (s *MemoryStore) CreateSpot(spot *models.Spot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	roundSpots, ok := s.spots[spot.RoundID]
	if !ok {
		roundSpots = map[int]*models.Spot{}
		s.spots[spot.RoundID] = roundSpots
	}
	if _, taken := roundSpots[spot.SpotNum]; taken {
		return ErrSpotTaken
	}
	cp := *spot
	roundSpots[spot.SpotNum] = &cp
	return nil
}

func (s *MemoryStore) GetSpots(roundID string) ([]*models.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	roundSpots := s.spots[roundID]
	spots := make([]*models.Spot, 0, len(roundSpots))
	for _, sp := range roundSpots {
		cp := *sp
		spots = append(spots, &cp)
	}
	sort.Slice(spots, func(i, j int) bool { return spots[i].SpotNum < spots[j].SpotNum })
	return spots, nil
}

func (s *MemoryStore) GetSpot(roundID string, spotNum int) (*models.Spot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.spots[roundID][spotNum]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *sp
	return &cp, nil
}

func (s *MemoryStore) InsertTransactions(txs []*models.DepositTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range txs {
		if _, ok := s.txs[tx.TxHash]; ok {
			continue // idempotent ingest
		}
		cp := *tx
		s.txs[tx.TxHash] = &cp
	}
	return nil
}

func (s *MemoryStore) GetTransaction(txHash string) (*models.DepositTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txHash]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (s *MemoryStore) ClaimTransactionCredit(txHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.txs[txHash]
	if !ok {
		return false, ErrNotFound
	}
	if tx.Credited {
		return false, nil
	}
	tx.Credited = true
	tx.Unlocked = true
	return true, nil
}

func (s *MemoryStore) CreateWithdraw(w *models.WithdrawRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.withdraws[w.ID]; ok {
		return ErrDuplicate
	}
	cp := *w
	s.withdraws[w.ID] = &cp
	return nil
}

func (s *MemoryStore) GetWithdraw(id string) (*models.WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdraws[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s *MemoryStore) MarkWithdrawSent(id string, fee int64, txHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdraws[id]
	if !ok {
		return false, ErrNotFound
	}
	if w.Terminal() {
		return false, nil
	}
	w.Status = models.WithdrawStatusSent
	w.Success = true
	w.Fee = fee
	w.TxHash = txHash
	return true, nil
}

func (s *MemoryStore) MarkWithdrawRefunded(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdraws[id]
	if !ok {
		return false, ErrNotFound
	}
	if w.Terminal() {
		return false, nil
	}
	w.Status = models.WithdrawStatusRefunded
	w.Refunded = true
	return true, nil
}

func (s *MemoryStore) StaleWithdrawals(olderThan time.Duration) ([]*models.WithdrawRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan).Unix()
	var stale []*models.WithdrawRequest
	for _, w := range s.withdraws {
		if !w.Terminal() && w.CreatedAt < cutoff {
			cp := *w
			stale = append(stale, &cp)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].CreatedAt < stale[j].CreatedAt })
	return stale, nil
}

func (s *MemoryStore) CheckRateLimit(key string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	win, ok := s.rateWindows[key]
	if !ok || now.After(win.resetAt) {
		s.rateWindows[key] = &rateWindow{count: 1, resetAt: now.Add(window)}
		return true, nil
	}
	win.count++
	return win.count <= limit, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)

// Seed creates a funded player directly, bypassing the ledger. Test helper.
func (s *MemoryStore) Seed(id, display string, balance int64) *models.Player {
	p := &models.Player{
		ID:        id,
		Display:   display,
		Balance:   balance,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.CreatePlayer(p); err != nil {
		panic(fmt.Sprintf("seed player %s: %v", id, err))
	}
	return p
}
