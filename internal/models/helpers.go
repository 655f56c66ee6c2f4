package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

func NewID() string {
	return uuid.New().String()
}

func Now() int64 {
	return time.Now().Unix()
}

// FormatXMR renders a piconero amount as a decimal XMR string for logs and
// API responses.
func FormatXMR(piconero int64) string {
	return fmt.Sprintf("%.12f", float64(piconero)/float64(Normalizer))
}

// ToUSD converts a piconero amount to USD at the given XMR rate.
func ToUSD(piconero int64, rate float64) float64 {
	return float64(piconero) / float64(Normalizer) * rate
}
