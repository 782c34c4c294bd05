package challenge

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreCreateStampsRecord(t *testing.T) {
	s := NewStore(0)

	rec := s.Create(Record{Kind: KindOTP, Secret: "JBSWY3DP"}, 0)

	assert.True(t, strings.HasPrefix(rec.ID, "chal_"))
	assert.Len(t, rec.ID, len("chal_")+24)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.Equal(t, rec.CreatedAt.Add(DefaultTTL), rec.ExpiresAt)

	got, ok := s.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "JBSWY3DP", got.Secret)
}

func TestStoreGetUnknownID(t *testing.T) {
	s := NewStore(0)
	_, ok := s.Get("chal_000000000000000000000000")
	assert.False(t, ok)
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	rec := s.Create(Record{Kind: KindEmail, Code: "123456", Email: "a@b.c"}, 0)

	// Still live right at the expiry instant.
	s.now = func() time.Time { return base.Add(time.Minute) }
	_, ok := s.Get(rec.ID)
	assert.True(t, ok)

	// One tick past expiry it is gone, and evicted on the read.
	s.now = func() time.Time { return base.Add(time.Minute + time.Nanosecond) }
	_, ok = s.Get(rec.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	// Gone for good even if the clock rolls back.
	s.now = func() time.Time { return base }
	_, ok = s.Get(rec.ID)
	assert.False(t, ok)
}

func TestStoreCustomTTL(t *testing.T) {
	s := NewStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	rec := s.Create(Record{Kind: KindOTP, Secret: "x"}, 10*time.Minute)
	assert.Equal(t, base.Add(10*time.Minute), rec.ExpiresAt)
}

func TestStoreDeleteIdempotent(t *testing.T) {
	s := NewStore(0)
	rec := s.Create(Record{Kind: KindOTP, Secret: "x"}, 0)

	s.Delete(rec.ID)
	s.Delete(rec.ID)
	_, ok := s.Get(rec.ID)
	assert.False(t, ok)
}

func TestStoreConsume(t *testing.T) {
	s := NewStore(0)
	rec := s.Create(Record{Kind: KindEmail, Code: "123456", Email: "a@b.c"}, 0)

	// Wrong kind is indistinguishable from a missing record.
	res := s.Consume(rec.ID, KindOTP, func(Record) bool { return true })
	assert.Equal(t, ConsumeMissing, res)

	// A failed check retains the record for retry.
	res = s.Consume(rec.ID, KindEmail, func(r Record) bool { return r.Code == "000000" })
	assert.Equal(t, ConsumeRejected, res)
	_, ok := s.Get(rec.ID)
	assert.True(t, ok)

	// A passing check deletes it.
	res = s.Consume(rec.ID, KindEmail, func(r Record) bool { return r.Code == "123456" })
	assert.Equal(t, Consumed, res)

	// Replay fails.
	res = s.Consume(rec.ID, KindEmail, func(Record) bool { return true })
	assert.Equal(t, ConsumeMissing, res)
}

func TestStoreConsumeExpired(t *testing.T) {
	s := NewStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }
	rec := s.Create(Record{Kind: KindOTP, Secret: "x"}, 0)

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	res := s.Consume(rec.ID, KindOTP, func(Record) bool { return true })
	assert.Equal(t, ConsumeMissing, res)
	assert.Equal(t, 0, s.Len())
}

func TestStoreConsumeConcurrentSingleWinner(t *testing.T) {
	s := NewStore(0)

	for i := 0; i < 50; i++ {
		rec := s.Create(Record{Kind: KindEmail, Code: "123456", Email: "a@b.c"}, 0)

		const racers = 8
		var wg sync.WaitGroup
		results := make([]ConsumeResult, racers)
		for j := 0; j < racers; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				results[j] = s.Consume(rec.ID, KindEmail, func(r Record) bool {
					return r.Code == "123456"
				})
			}(j)
		}
		wg.Wait()

		consumed := 0
		for _, r := range results {
			if r == Consumed {
				consumed++
			}
		}
		assert.Equal(t, 1, consumed, "exactly one racer may consume")
	}
}

func TestStoreSweep(t *testing.T) {
	s := NewStore(time.Minute)
	base := time.Now()
	s.now = func() time.Time { return base }

	s.Create(Record{Kind: KindOTP, Secret: "a"}, 0)
	s.Create(Record{Kind: KindOTP, Secret: "b"}, 0)
	keep := s.Create(Record{Kind: KindOTP, Secret: "c"}, time.Hour)
	assert.Equal(t, 3, s.Len())

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	removed := s.Sweep()
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Len())

	_, ok := s.Get(keep.ID)
	assert.True(t, ok)

	assert.Equal(t, 0, s.Sweep())
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore(0)
	rec := s.Create(Record{Kind: KindBiometric, Reference: []float64{1, 0, 0}}, 0)

	got, ok := s.Get(rec.ID)
	require.True(t, ok)
	got.Reference[0] = 99

	again, ok := s.Get(rec.ID)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 0, 0}, again.Reference)
}
