package metrics

import (
	"math"
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Counter names. A counter is stored as one point per increment and read
// back as the sum over the retention window.
const (
	PurchaseTotal    = "sweetshop_purchase_total"
	PurchaseUnits    = "sweetshop_purchase_units"
	PurchaseRejected = "sweetshop_purchase_rejected"
	AdjustRejected   = "sweetshop_adjust_rejected"
	RestockTotal     = "sweetshop_restock_total"
	RestockUnits     = "sweetshop_restock_units"
	SweetCreated     = "sweetshop_sweet_created"
	SweetUpdated     = "sweetshop_sweet_updated"
	SweetDeleted     = "sweetshop_sweet_deleted"
)

// Gauge names. A gauge reads back as its latest point.
const (
	CatalogSize         = "sweetshop_catalog_size"
	CatalogUnits        = "sweetshop_catalog_units"
	CatalogLowStock     = "sweetshop_catalog_low_stock"
	CatalogOutOfStock   = "sweetshop_catalog_out_of_stock"
	SystemCpuUsage      = "sweetshop_system_cpu_usage"
	SystemMemUsage      = "sweetshop_system_mem_usage"
	ProcessMemRss       = "sweetshop_process_mem_rss"
	ProcessNumGoroutine = "sweetshop_process_goroutines"
)

var (
	CounterNames = []string{
		PurchaseTotal, PurchaseUnits, PurchaseRejected, AdjustRejected,
		RestockTotal, RestockUnits, SweetCreated, SweetUpdated, SweetDeleted,
	}
	GaugeNames = []string{
		CatalogSize, CatalogUnits, CatalogLowStock, CatalogOutOfStock,
		SystemCpuUsage, SystemMemUsage, ProcessMemRss, ProcessNumGoroutine,
	}
)

const retention = 14 * 24 * time.Hour

// Known reports whether name is a registered counter or gauge
func Known(name string) bool {
	for _, names := range [][]string{CounterNames, GaugeNames} {
		for _, n := range names {
			if n == name {
				return true
			}
		}
	}
	return false
}

var (
	mu      sync.RWMutex
	storage tstorage.Storage
	lastTs  int64
)

// InitMetrics opens the metric store under workdir/data/metrics. An empty
// workdir keeps the points in memory only. A store opened earlier is closed.
func InitMetrics(workdir string) error {
	opts := []tstorage.Option{
		tstorage.WithTimestampPrecision(tstorage.Nanoseconds),
		tstorage.WithPartitionDuration(time.Hour),
		tstorage.WithRetention(retention),
	}
	if workdir != "" {
		opts = append(opts, tstorage.WithDataPath(path.Join(workdir, "data", "metrics")))
	}
	st, err := tstorage.NewStorage(opts...)
	if err != nil {
		return errors.Wrap(err, "open metric storage")
	}
	mu.Lock()
	old := storage
	storage = st
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

// Close flushes and closes the metric store
func Close() error {
	mu.Lock()
	st := storage
	storage = nil
	mu.Unlock()
	if st == nil {
		return nil
	}
	return st.Close()
}

// insert writes one point. Writes are serialized with strictly increasing
// timestamps, tstorage drops rows older than the head partition start.
func insert(name string, value float64) {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return
	}
	ts := time.Now().UnixNano()
	if ts <= lastTs {
		ts = lastTs + 1
	}
	lastTs = ts
	err := storage.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Value: value, Timestamp: ts},
	}})
	if err != nil {
		zap.L().Warn("metric write failed", zap.String("metric", name), zap.Error(err))
	}
}

// Point is one stored sample
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// Series returns the points of a metric within [start, end), oldest first.
// A metric with no points yields an empty slice.
func Series(name string, start, end time.Time) ([]Point, error) {
	mu.RLock()
	defer mu.RUnlock()
	if storage == nil {
		return []Point{}, nil
	}
	if !start.Before(end) {
		return nil, errors.New("start must be before end")
	}
	points, err := storage.Select(name, nil, start.UnixNano(), end.UnixNano())
	if errors.Is(err, tstorage.ErrNoDataPoints) {
		return []Point{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select %s", name)
	}
	out := make([]Point, 0, len(points))
	for _, p := range points {
		out = append(out, Point{Timestamp: p.Timestamp, Value: p.Value})
	}
	return out, nil
}

func all(name string) []Point {
	points, err := Series(name, time.Unix(0, 0), time.Unix(0, math.MaxInt64))
	if err != nil {
		zap.L().Warn("metric read failed", zap.String("metric", name), zap.Error(err))
		return nil
	}
	return points
}

// Incr records delta against the named counter
func Incr(name string, delta int64) {
	insert(name, float64(delta))
}

// Counter returns the sum of a counter's points
func Counter(name string) int64 {
	var total float64
	for _, p := range all(name) {
		total += p.Value
	}
	return int64(total)
}

// SetGauge records the latest value of a gauge
func SetGauge(name string, value float64) {
	insert(name, value)
}

// Gauge returns the latest value of a gauge, 0 when never set
func Gauge(name string) float64 {
	v, _ := latest(name)
	return v
}

func latest(name string) (float64, bool) {
	points := all(name)
	if len(points) == 0 {
		return 0, false
	}
	return points[len(points)-1].Value, true
}

// Snapshot holds every counter and the gauges that have a value
type Snapshot struct {
	Counters map[string]int64   `json:"counters"`
	Gauges   map[string]float64 `json:"gauges"`
}

func Take() Snapshot {
	s := Snapshot{Counters: map[string]int64{}, Gauges: map[string]float64{}}
	for _, name := range CounterNames {
		s.Counters[name] = Counter(name)
	}
	for _, name := range GaugeNames {
		if v, ok := latest(name); ok {
			s.Gauges[name] = v
		}
	}
	return s
}
