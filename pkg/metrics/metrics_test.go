package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	require.NoError(t, InitMetrics(""))
	t.Cleanup(func() { _ = Close() })

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Incr(PurchaseTotal, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1000), Counter(PurchaseTotal))
	assert.Equal(t, int64(0), Counter(RestockTotal))

	SetGauge(CatalogSize, 12)
	SetGauge(CatalogSize, 11.5)
	assert.Equal(t, 11.5, Gauge(CatalogSize))
	assert.Equal(t, 0.0, Gauge(CatalogUnits))

	snap := Take()
	assert.Equal(t, int64(1000), snap.Counters[PurchaseTotal])
	assert.Contains(t, snap.Counters, RestockTotal)
	assert.Equal(t, 11.5, snap.Gauges[CatalogSize])
	assert.NotContains(t, snap.Gauges, CatalogUnits)

	points, err := Series(CatalogSize, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 12.0, points[0].Value)
	assert.Less(t, points[0].Timestamp, points[1].Timestamp)
}

func TestMetricsPersistAcrossRestart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, InitMetrics(dir))
	Incr(RestockUnits, 7)
	SetGauge(CatalogUnits, 42)
	require.NoError(t, Close())

	require.NoError(t, InitMetrics(dir))
	t.Cleanup(func() { _ = Close() })
	assert.Equal(t, int64(7), Counter(RestockUnits))
	assert.Equal(t, 42.0, Gauge(CatalogUnits))
	assert.DirExists(t, dir+"/data/metrics")
}

func TestClosedStoreIsNoop(t *testing.T) {
	require.NoError(t, Close())
	Incr(PurchaseTotal, 1)
	SetGauge(CatalogSize, 1)
	assert.Zero(t, Counter(PurchaseTotal))
	assert.Empty(t, Take().Gauges)
}
