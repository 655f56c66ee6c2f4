package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// The outcome of a round is a pure function of two committed values: the
// round secret, fixed at creation, and the cumulative spot secret, which
// grows by one fragment per purchase and freezes when the round leaves the
// waiting phase. Everything here is deterministic given those inputs so a
// settled round can be re-verified from stored values alone.

// timeBucketSpace bounds the per-purchase entropy. Deliberately small: the
// fragment must be reproducible from the stored bucket, and a buyer cannot
// know the exact second the final spot will be bought.
const timeBucketSpace = 100_000

// GenerateRoundSecret returns a fresh 64-hex-char committed secret.
func GenerateRoundSecret() string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s%d", uuid.New().String(), time.Now().UnixNano())))
	return hex.EncodeToString(sum[:])
}

// SpotSecret derives a purchase's secret fragment and the time bucket it
// came from. The bucket mixes the committed round secret with the purchase
// second; the fragment is the bucket's hash truncated so that spotCount
// fragments together fill 64 hex characters.
func SpotSecret(roundSecret string, spotCount int, now int64) (string, int64) {
	bucket := new(big.Int).Add(hexInt(roundSecret), big.NewInt(now))
	bucket.Mod(bucket, big.NewInt(timeBucketSpace))

	return FragmentForBucket(bucket.Int64(), spotCount), bucket.Int64()
}

// FragmentForBucket recomputes a fragment from its stored time bucket,
// used by players verifying a settled round.
func FragmentForBucket(bucket int64, spotCount int) string {
	sum := sha256.Sum256([]byte(strconv.FormatInt(bucket, 10)))
	return hex.EncodeToString(sum[:])[:64/spotCount]
}

// WinningSpot resolves the outcome from the two committed secrets. Repeated
// evaluation with the same inputs always returns the same spot in
// 1..spotCount.
func WinningSpot(roundSecret, spotSecret string, spotCount int) int {
	sum := new(big.Int).Add(hexInt(roundSecret), hexInt(spotSecret))
	sum.Mod(sum, big.NewInt(int64(spotCount)))
	return int(sum.Int64()) + 1
}

// hexInt parses a hex string as an unsigned big integer. An empty
// cumulative secret (no spots bought yet) evaluates as zero.
func hexInt(s string) *big.Int {
	if s == "" {
		return new(big.Int)
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return new(big.Int)
	}
	return n
}
