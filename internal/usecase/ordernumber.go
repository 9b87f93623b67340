package usecase

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/polkiloo/paycore/internal/config"
)

var orderSerialSpace = big.NewInt(100_000_000)

// OrderNumberGenerator produces numbers of the form PREFIX-YYYY-NNNNNNNN.
type OrderNumberGenerator struct {
	prefix  string
	now     func() time.Time
	entropy io.Reader
}

// NewOrderNumberGenerator constructs a generator for prefix.
func NewOrderNumberGenerator(prefix string) *OrderNumberGenerator {
	return &OrderNumberGenerator{prefix: prefix, now: time.Now, entropy: rand.Reader}
}

func newOrderNumberGenerator(cfg *config.Config) *OrderNumberGenerator {
	return NewOrderNumberGenerator(cfg.OrderNumberPrefix)
}

// Next returns a fresh order number. Uniqueness is enforced by storage.
func (g *OrderNumberGenerator) Next() (string, error) {
	serial, err := rand.Int(g.entropy, orderSerialSpace)
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return fmt.Sprintf("%s-%04d-%08d", g.prefix, g.now().Year(), serial.Int64()), nil
}
