package orders

import (
	"crypto/rand"
	"math/big"
)

const (
	orderNumberCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	orderNumberLength  = 10
)

// GenerateOrderNumber returns a 10 character uppercase alphanumeric
// order reference. The caller re-checks for collisions; the
// orders.order_number unique index is the backstop.
func GenerateOrderNumber() (string, error) {
	buf := make([]byte, orderNumberLength)
	max := big.NewInt(int64(len(orderNumberCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = orderNumberCharset[n.Int64()]
	}
	return string(buf), nil
}
