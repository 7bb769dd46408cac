package quote

import (
	"math/rand/v2"
	"strings"
	"time"
)

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newNumber formats Q-YYYYMMDD-XXXX using the local calendar date of now and
// four random base36 characters.
func newNumber(now time.Time, intn func(int) int) string {
	var b strings.Builder
	b.Grow(len("Q-20060102-XXXX"))
	b.WriteString("Q-")
	b.WriteString(now.Format("20060102"))
	b.WriteByte('-')
	for range 4 {
		b.WriteByte(numberAlphabet[intn(len(numberAlphabet))])
	}
	return b.String()
}

func defaultIntN(n int) int { return rand.IntN(n) }
