package synth

import (
	"encoding/binary"
	"math/rand"

	"github.com/cespare/xxhash/v2"
)

// Stream concerns. Each (concern, index) pair gets its own RNG so that
// changing one knob (e.g. num_customers) never shifts the draws of an
// unrelated concern, and per-customer generation is independent of
// execution order.
const (
	streamCustomer   = "customer"
	streamChurnQuota = "churn_quota"
	streamChurnDate  = "churn_date"
	streamTxns       = "transactions"
	streamSupport    = "support"
	streamUsage      = "usage"
)

// seeder derives independent rand sub-streams from the master seed via a
// keyed xxhash of (seed, concern, index).
type seeder struct {
	master uint64
}

func newSeeder(seed int64) seeder {
	return seeder{master: uint64(seed)}
}

func (s seeder) stream(concern string, index uint64) *rand.Rand {
	var buf [8]byte
	d := xxhash.New()
	binary.LittleEndian.PutUint64(buf[:], s.master)
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(concern)
	binary.LittleEndian.PutUint64(buf[:], index)
	_, _ = d.Write(buf[:])
	return rand.New(rand.NewSource(int64(d.Sum64())))
}
