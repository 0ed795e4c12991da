// internal/round/daily.go
//
// Daily rounds: a sampler seeded from HMAC-SHA256(salt, UTC date), so
// every player draws the same items on the same day.

package round

import (
	"crypto/hmac"
	"crypto/sha256"
	"math/rand/v2"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DailySeed derives a ChaCha8 seed from HMAC-SHA256(salt, YYYY-MM-DD).
// Everyone sampling with the same salt on the same UTC day gets the same round.
func DailySeed(date time.Time, salt string) [32]byte {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	var seed [32]byte
	copy(seed[:], h.Sum(nil))
	return seed
}

// NewDailySampler returns a Sampler whose draws are fixed for date.
func NewDailySampler(date time.Time, salt string) *Sampler {
	return NewSampler(rand.New(rand.NewChaCha8(DailySeed(date, salt))))
}
