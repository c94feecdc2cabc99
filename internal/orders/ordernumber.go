package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderNumberPrefix = "ORD"

var suffixAlphabet = []rune("0123456789ABCDEFGHJKMNPQRSTVWXYZ")

// newOrderNumber mints a human-readable order number. The random suffix keeps
// two orders minted in the same millisecond distinct; the unique index on the
// column is the actual guarantee, with the caller retrying on collision.
func newOrderNumber(now time.Time) string {
	suffix := make([]rune, 4)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			suffix[i] = suffixAlphabet[(now.Nanosecond()+i)%len(suffixAlphabet)]
			continue
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%d-%s", orderNumberPrefix, now.UnixMilli(), string(suffix))
}
