package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
)

// Most recent price from a top-3 exchange; good as a display estimate, not
// for settlement conversion.
const xmrTickerURL = "https://whitebit.com/api/v1/public/ticker?market=XMR_USDT"

// XMRRate caches the XMR/USD rate and refreshes it lazily once it is older
// than the configured leeway. On fetch failure the stale value keeps being
// served; the read path never fails.
type XMRRate struct {
	mu         sync.Mutex
	leeway     time.Duration
	price      float64
	updatedAt  time.Time
	httpClient *http.Client
	url        string
}

func NewXMRRate(leeway time.Duration) *XMRRate {
	return &XMRRate{
		leeway:     leeway,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        xmrTickerURL,
	}
}

func (r *XMRRate) Check() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if time.Since(r.updatedAt) > r.leeway {
		if err := r.update(); err != nil {
			log.Printf("failed to refresh xmr rate: %v", err)
		}
	}
	return r.price
}

func (r *XMRRate) update() error {
	resp, err := r.httpClient.Get(r.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body struct {
		Result struct {
			Last json.Number `json:"last"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}

	price, err := body.Result.Last.Float64()
	if err != nil {
		return fmt.Errorf("bad ticker price: %v", err)
	}

	r.price = price
	r.updatedAt = time.Now()
	return nil
}
