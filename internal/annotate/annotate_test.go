package annotate

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sells-group/network-planner/internal/dataset"
	"github.com/sells-group/network-planner/internal/model"
	"github.com/sells-group/network-planner/pkg/geocode"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeReverser struct {
	mu       sync.Mutex
	answers  map[float64]*geocode.ReverseResult
	errs     map[float64]error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeReverser) Reverse(ctx context.Context, lat, _ float64) (*geocode.ReverseResult, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[lat]; ok {
		return nil, err
	}
	if res, ok := f.answers[lat]; ok {
		return res, nil
	}
	return nil, geocode.ErrNoResult
}

func regionsAt(lats ...float64) []model.Region {
	out := make([]model.Region, len(lats))
	for i, lat := range lats {
		out[i] = model.Region{ID: "R", Latitude: lat, Longitude: -100, CostKUSD: 60 + i, PriorityArea: model.AreaRural}
	}
	return out
}

func TestAnnotate_Mixed(t *testing.T) {
	f := &fakeReverser{
		answers: map[float64]*geocode.ReverseResult{
			31: {Address: "Austin, Texas, United States"},
			33: {Address: "   "},
		},
		errs: map[float64]error{32: assert.AnError},
	}
	in := regionsAt(31, 32, 33, 34)

	out := New(f).Annotate(context.Background(), in)
	require.Len(t, out, 4)

	names := make([]string, len(out))
	for i, r := range out {
		require.NotNil(t, r.LocationName)
		names[i] = *r.LocationName
	}
	assert.Equal(t, []string{"Austin, Texas, United States", UnknownLocation, UnknownLocation, UnknownLocation}, names)

	for i := range in {
		assert.Nil(t, in[i].LocationName, "input must not be mutated")
		got := out[i]
		got.LocationName = nil
		assert.Equal(t, in[i], got)
	}
}

func TestAnnotate_NilReverser(t *testing.T) {
	out := New(nil, WithSentinel("Somewhere")).Annotate(context.Background(), regionsAt(40, 41))
	for _, r := range out {
		assert.Equal(t, "Somewhere", r.LocationOrNA())
	}
}

func TestAnnotate_Empty(t *testing.T) {
	out := New(&fakeReverser{}).Annotate(context.Background(), nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAnnotate_Timeout(t *testing.T) {
	f := &fakeReverser{
		answers: map[float64]*geocode.ReverseResult{40: {Address: "late"}},
		delay:   time.Second,
	}
	a := New(f, WithTimeout(10*time.Millisecond))
	out := a.Annotate(context.Background(), regionsAt(40))
	assert.Equal(t, UnknownLocation, out[0].LocationOrNA())
}

func TestAnnotate_MalformedCoordinates(t *testing.T) {
	f := &fakeReverser{}
	a := New(f)
	assert.Equal(t, UnknownLocation, a.Name(context.Background(), math.NaN(), 0))
	assert.Equal(t, UnknownLocation, a.Name(context.Background(), 95, 0))
	assert.Equal(t, UnknownLocation, a.Name(context.Background(), 0, -181))
	assert.Zero(t, f.maxSeen.Load())
}

func TestAnnotate_ConcurrencyPreservesOrder(t *testing.T) {
	regions := dataset.Generate(42)
	answers := make(map[float64]*geocode.ReverseResult, len(regions))
	for _, r := range regions {
		answers[r.Latitude] = &geocode.ReverseResult{Address: r.ID}
	}
	f := &fakeReverser{answers: answers, delay: 5 * time.Millisecond}

	out := New(f, WithConcurrency(4)).Annotate(context.Background(), regions)
	require.Len(t, out, len(regions))
	for i, r := range out {
		assert.Equal(t, regions[i].ID, r.LocationOrNA())
	}
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(4))
	assert.Greater(t, f.maxSeen.Load(), int32(1))
}

func TestAnnotate_SequentialByDefault(t *testing.T) {
	f := &fakeReverser{delay: time.Millisecond}
	New(f).Annotate(context.Background(), regionsAt(30, 31, 32))
	assert.Equal(t, int32(1), f.maxSeen.Load())
}

func TestAnnotate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &fakeReverser{answers: map[float64]*geocode.ReverseResult{30: {Address: "x"}}, delay: time.Second}
	out := New(f).Annotate(ctx, regionsAt(30))
	assert.Equal(t, UnknownLocation, out[0].LocationOrNA())
}
