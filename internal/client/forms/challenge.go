package forms

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// ErrChallengeFailed is returned when a challenge answer is wrong, expired,
// already used, or was not issued by this Challenger.
var ErrChallengeFailed = errors.New("challenge failed")

const defaultChallengeTTL = 10 * time.Minute

// Challenge is a small arithmetic question. ID carries the operands and
// expiry under a MAC; the Challenger only remembers ids already solved.
type Challenge struct {
	Question string
	ID       string
}

// Challenger issues and checks bot challenges for the register form when
// no external captcha is configured.
type Challenger struct {
	key []byte
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	used map[string]int64 // mac -> expiry, until the id would expire anyway
}

func NewChallenger(key []byte) *Challenger {
	return &Challenger{key: key, ttl: defaultChallengeTTL, now: time.Now, used: make(map[string]int64)}
}

func (c *Challenger) Issue() Challenge {
	a, b := rand.IntN(9)+1, rand.IntN(9)+1
	exp := c.now().Add(c.ttl).Unix()
	nonce := hex.EncodeToString(common.GenerateRandByteArray(8))
	payload := fmt.Sprintf("%d.%d.%d.%s", a, b, exp, nonce)
	return Challenge{
		Question: fmt.Sprintf("What is %d + %d?", a, b),
		ID:       payload + "." + c.sign(payload),
	}
}

// Solve checks answer against the challenge id and returns the token to put
// in RegisterRequest.ChallengeToken.
func (c *Challenger) Solve(id, answer string) (string, error) {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return "", ErrChallengeFailed
	}
	payload, mac := id[:i], id[i+1:]
	if !hmac.Equal([]byte(mac), []byte(c.sign(payload))) {
		return "", ErrChallengeFailed
	}

	parts := strings.Split(payload, ".")
	if len(parts) != 4 {
		return "", ErrChallengeFailed
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	exp, errE := strconv.ParseInt(parts[2], 10, 64)
	if errA != nil || errB != nil || errE != nil {
		return "", ErrChallengeFailed
	}
	if c.now().Unix() > exp {
		return "", ErrChallengeFailed
	}
	got, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || got != a+b {
		return "", ErrChallengeFailed
	}
	if !c.consume(mac, exp) {
		return "", ErrChallengeFailed
	}
	return mac, nil
}

// consume marks a solved id as used. It reports false when it already was.
func (c *Challenger) consume(mac string, exp int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().Unix()
	for k, e := range c.used {
		if now > e {
			delete(c.used, k)
		}
	}
	if _, ok := c.used[mac]; ok {
		return false
	}
	c.used[mac] = exp
	return true
}

func (c *Challenger) sign(payload string) string {
	h := hmac.New(sha256.New, c.key)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
