package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"xmr-arcade-backend/internal/config"
	"xmr-arcade-backend/internal/models"
)

// RedisStore is the production Store. Balances live in plain integer keys so
// debit/credit stay atomic (Lua check-and-decrement, native INCRBY); the
// entity rows are JSON blobs written only by their single logical owner.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisStore{client: client, ctx: ctx}, nil
}

var debitScript = redis.NewScript(`
	local bal = tonumber(redis.call("GET", KEYS[1]) or "0")
	local amount = tonumber(ARGV[1])

	if bal - amount < 0 then
		return redis.error_reply("insufficient balance")
	end

	redis.call("DECRBY", KEYS[1], amount)
	return "OK"
`)

var claimStatusScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) ~= ARGV[1] then
		return 0
	end
	redis.call("SET", KEYS[1], ARGV[2])
	return 1
`)

func (s *RedisStore) CreatePlayer(p *models.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(KeyPlayer, p.ID)
	ok, err := s.client.SetNX(s.ctx, key, data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}

	pipe := s.client.TxPipeline()
	pipe.Set(s.ctx, fmt.Sprintf(KeyPlayerBalance, p.ID), p.Balance, 0)
	pipe.Set(s.ctx, fmt.Sprintf(KeyPlayerByDisplay, p.Display), p.ID, 0)
	pipe.Set(s.ctx, fmt.Sprintf(KeyPlayerByFP, p.Fingerprint), p.ID, 0)
	_, err = pipe.Exec(s.ctx)
	return err
}

func (s *RedisStore) getPlayerByKey(key string) (*models.Player, error) {
	id, err := s.client.Get(s.ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetPlayer(id)
}

func (s *RedisStore) GetPlayer(id string) (*models.Player, error) {
	data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyPlayer, id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p models.Player
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %v", err)
	}

	bal, err := s.client.Get(s.ctx, fmt.Sprintf(KeyPlayerBalance, id)).Int64()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	p.Balance = bal

	return &p, nil
}

func (s *RedisStore) GetPlayerByDisplay(display string) (*models.Player, error) {
	return s.getPlayerByKey(fmt.Sprintf(KeyPlayerByDisplay, display))
}

func (s *RedisStore) GetPlayerByFingerprint(fingerprint string) (*models.Player, error) {
	return s.getPlayerByKey(fmt.Sprintf(KeyPlayerByFP, fingerprint))
}

func (s *RedisStore) GetPlayerByAddressIndex(index uint64) (*models.Player, error) {
	return s.getPlayerByKey(fmt.Sprintf(KeyPlayerByAddrIndex, index))
}

func (s *RedisStore) SetDepositAddress(playerID, address string, index uint64) error {
	p, err := s.GetPlayer(playerID)
	if err != nil {
		return err
	}
	p.Address = address
	p.AddressIndex = index

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(s.ctx, fmt.Sprintf(KeyPlayer, p.ID), data, 0)
	pipe.Set(s.ctx, fmt.Sprintf(KeyPlayerByAddrIndex, index), p.ID, 0)
	_, err = pipe.Exec(s.ctx)
	return err
}

func (s *RedisStore) DebitPlayer(playerID string, amount int64) error {
	if _, err := s.GetPlayer(playerID); err != nil {
		return err
	}
	key := fmt.Sprintf(KeyPlayerBalance, playerID)
	err := debitScript.Run(s.ctx, s.client, []string{key}, amount).Err()
	if err != nil && strings.Contains(err.Error(), "insufficient balance") {
		return ErrInsufficientBalance
	}
	return err
}

func (s *RedisStore) CreditPlayer(playerID string, amount int64) error {
	if _, err := s.GetPlayer(playerID); err != nil {
		return err
	}
	key := fmt.Sprintf(KeyPlayerBalance, playerID)
	return s.client.IncrBy(s.ctx, key, amount).Err()
}

func (s *RedisStore) SaveRound(r *models.Round) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	if err := s.client.Set(s.ctx, fmt.Sprintf(KeyRound, r.ID), data, 0).Err(); err != nil {
		return err
	}

	laneKey := fmt.Sprintf(KeyLaneRound, r.Lane)
	if r.Active {
		return s.client.Set(s.ctx, laneKey, r.ID, 0).Err()
	}

	// Drop the lane pointer only if it still points at this round; the
	// successor may already own it.
	current, err := s.client.Get(s.ctx, laneKey).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if current == r.ID {
		return s.client.Del(s.ctx, laneKey).Err()
	}
	return nil
}

func (s *RedisStore) GetRound(id string) (*models.Round, error) {
	data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyRound, id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var r models.Round
	if err := json.Unmarshal([]byte(data), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal round: %v", err)
	}
	return &r, nil
}

func (s *RedisStore) GetRoundByLane(lane int) (*models.Round, error) {
	id, err := s.client.Get(s.ctx, fmt.Sprintf(KeyLaneRound, lane)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.GetRound(id)
}

func (s *RedisStore) CurrentRounds() ([]*models.Round, error) {
	rounds := make([]*models.Round, 0, len(models.LaneConfigs))
	for lane := 1; lane <= len(models.LaneConfigs); lane++ {
		r, err := s.GetRoundByLane(lane)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, r)
	}
	return rounds, nil
}

func (s *RedisStore) ActiveRounds() ([]*models.Round, error) {
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

func (s *RedisStore) CreateSpot(spot *models.Spot) error {
	data, err := json.Marshal(spot)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(KeyRoundSpots, spot.RoundID)
	ok, err := s.client.HSetNX(s.ctx, key, strconv.Itoa(spot.SpotNum), data).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSpotTaken
	}
	return nil
}

func (s *RedisStore) GetSpots(roundID string) ([]*models.Spot, error) {
	fields, err := s.client.HGetAll(s.ctx, fmt.Sprintf(KeyRoundSpots, roundID)).Result()
	if err != nil {
		return nil, err
	}

	spots := make([]*models.Spot, 0, len(fields))
	for _, data := range fields {
		var sp models.Spot
		if err := json.Unmarshal([]byte(data), &sp); err != nil {
			return nil, fmt.Errorf("failed to unmarshal spot: %v", err)
		}
		spots = append(spots, &sp)
	}
	sortSpots(spots)
	return spots, nil
}

func (s *RedisStore) GetSpot(roundID string, spotNum int) (*models.Spot, error) {
	data, err := s.client.HGet(s.ctx, fmt.Sprintf(KeyRoundSpots, roundID), strconv.Itoa(spotNum)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var sp models.Spot
	if err := json.Unmarshal([]byte(data), &sp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal spot: %v", err)
	}
	return &sp, nil
}

func (s *RedisStore) InsertTransactions(txs []*models.DepositTransaction) error {
	for _, tx := range txs {
		data, err := json.Marshal(tx)
		if err != nil {
			return err
		}
		// first ingest wins, re-ingest is a no-op
		if err := s.client.SetNX(s.ctx, fmt.Sprintf(KeyTransaction, tx.TxHash), data, 0).Err(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) GetTransaction(txHash string) (*models.DepositTransaction, error) {
	data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyTransaction, txHash)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var tx models.DepositTransaction
	if err := json.Unmarshal([]byte(data), &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %v", err)
	}

	credited, err := s.client.Exists(s.ctx, fmt.Sprintf(KeyTransactionCredit, txHash)).Result()
	if err != nil {
		return nil, err
	}
	if credited > 0 {
		tx.Credited = true
		tx.Unlocked = true
	}
	return &tx, nil
}

func (s *RedisStore) ClaimTransactionCredit(txHash string) (bool, error) {
	exists, err := s.client.Exists(s.ctx, fmt.Sprintf(KeyTransaction, txHash)).Result()
	if err != nil {
		return false, err
	}
	if exists == 0 {
		return false, ErrNotFound
	}
	return s.client.SetNX(s.ctx, fmt.Sprintf(KeyTransactionCredit, txHash), 1, 0).Result()
}

func (s *RedisStore) CreateWithdraw(w *models.WithdrawRequest) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(s.ctx, fmt.Sprintf(KeyWithdraw, w.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}

	pipe := s.client.TxPipeline()
	pipe.Set(s.ctx, fmt.Sprintf(KeyWithdrawStatus, w.ID), string(models.WithdrawStatusInitiated), 0)
	pipe.ZAdd(s.ctx, KeyWithdrawsInitiated, redis.Z{Score: float64(w.CreatedAt), Member: w.ID})
	_, err = pipe.Exec(s.ctx)
	return err
}

func (s *RedisStore) GetWithdraw(id string) (*models.WithdrawRequest, error) {
	data, err := s.client.Get(s.ctx, fmt.Sprintf(KeyWithdraw, id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var w models.WithdrawRequest
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal withdraw request: %v", err)
	}

	status, err := s.client.Get(s.ctx, fmt.Sprintf(KeyWithdrawStatus, id)).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if status != "" {
		w.Status = models.WithdrawStatus(status)
	}
	return &w, nil
}

// claimWithdraw moves the status key from initiated to the target status.
// Only the winner of the claim may mutate the request row afterwards.
func (s *RedisStore) claimWithdraw(id string, to models.WithdrawStatus) (bool, error) {
	statusKey := fmt.Sprintf(KeyWithdrawStatus, id)
	res, err := claimStatusScript.Run(s.ctx, s.client, []string{statusKey},
		string(models.WithdrawStatusInitiated), string(to)).Int()
	if err != nil {
		return false, err
	}
	if res != 1 {
		return false, nil
	}
	return true, s.client.ZRem(s.ctx, KeyWithdrawsInitiated, id).Err()
}

func (s *RedisStore) MarkWithdrawSent(id string, fee int64, txHash string) (bool, error) {
	w, err := s.GetWithdraw(id)
	if err != nil {
		return false, err
	}

	won, err := s.claimWithdraw(id, models.WithdrawStatusSent)
	if err != nil || !won {
		return false, err
	}

	w.Status = models.WithdrawStatusSent
	w.Success = true
	w.Fee = fee
	w.TxHash = txHash
	data, err := json.Marshal(w)
	if err != nil {
		return true, err
	}
	return true, s.client.Set(s.ctx, fmt.Sprintf(KeyWithdraw, id), data, 0).Err()
}

func (s *RedisStore) MarkWithdrawRefunded(id string) (bool, error) {
	w, err := s.GetWithdraw(id)
	if err != nil {
		return false, err
	}

	won, err := s.claimWithdraw(id, models.WithdrawStatusRefunded)
	if err != nil || !won {
		return false, err
	}

	w.Status = models.WithdrawStatusRefunded
	w.Refunded = true
	data, err := json.Marshal(w)
	if err != nil {
		return true, err
	}
	return true, s.client.Set(s.ctx, fmt.Sprintf(KeyWithdraw, id), data, 0).Err()
}

func (s *RedisStore) StaleWithdrawals(olderThan time.Duration) ([]*models.WithdrawRequest, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	ids, err := s.client.ZRangeByScore(s.ctx, KeyWithdrawsInitiated, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return nil, err
	}

	var stale []*models.WithdrawRequest
	for _, id := range ids {
		w, err := s.GetWithdraw(id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !w.Terminal() {
			stale = append(stale, w)
		}
	}
	return stale, nil
}

func (s *RedisStore) CheckRateLimit(key string, limit int, window time.Duration) (bool, error) {
	rlKey := fmt.Sprintf(KeyRateLimit, key)

	count, err := s.client.Incr(s.ctx, rlKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		s.client.Expire(s.ctx, rlKey, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)

func sortSpots(spots []*models.Spot) {
	sort.Slice(spots, func(i, j int) bool { return spots[i].SpotNum < spots[j].SpotNum })
}
