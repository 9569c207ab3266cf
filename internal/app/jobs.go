package app

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"github.com/talkincode/sweetshop/internal/query"
	"github.com/talkincode/sweetshop/pkg/metrics"
	"go.uber.org/zap"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// StartJobs starts the cron scheduler with the configured jobs
func (a *Application) StartJobs() error {
	loc, err := time.LoadLocation(a.appConfig.System.Location)
	if err != nil {
		loc = time.Local
	}
	a.sched = cron.New(cron.WithLocation(loc), cron.WithParser(cronParser))

	if spec := a.appConfig.Jobs.StockReport; spec != "" {
		if _, err := a.sched.AddFunc(spec, a.SchedStockReportTask); err != nil {
			zap.S().Errorf("init job error %s", err.Error())
			return err
		}
	}
	if spec := a.appConfig.Jobs.SystemMonitor; spec != "" {
		_, err := a.sched.AddFunc(spec, func() {
			go a.SchedSystemMonitorTask()
			go a.SchedProcessMonitorTask()
		})
		if err != nil {
			zap.S().Errorf("init job error %s", err.Error())
			return err
		}
	}

	a.sched.Start()
	// prime the gauges so /metrics is populated before the first tick
	go a.SchedStockReportTask()
	return nil
}

// SchedStockReportTask refreshes catalog gauges and logs sweets that are
// low or out of stock.
func (a *Application) SchedStockReportTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rows, err := a.inventory.Snapshot(ctx)
	if err != nil {
		zap.L().Error("stock report failed", zap.Error(err))
		return
	}

	var units, low, out int
	for _, s := range rows {
		units += s.Quantity
		switch a.inventory.Status(s.Quantity) {
		case query.OutOfStock:
			out++
			zap.L().Warn("sweet out of stock", zap.Int64("id", s.ID), zap.String("name", s.Name))
		case query.LowStock:
			low++
			zap.L().Info("sweet low on stock", zap.Int64("id", s.ID), zap.String("name", s.Name), zap.Int("quantity", s.Quantity))
		}
	}
	metrics.SetGauge(metrics.CatalogSize, float64(len(rows)))
	metrics.SetGauge(metrics.CatalogUnits, float64(units))
	metrics.SetGauge(metrics.CatalogLowStock, float64(low))
	metrics.SetGauge(metrics.CatalogOutOfStock, float64(out))
}

// SchedSystemMonitorTask system monitor
func (a *Application) SchedSystemMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	_cpuuse, err := cpu.Percent(0, false)
	if err == nil && len(_cpuuse) > 0 {
		metrics.SetGauge(metrics.SystemCpuUsage, _cpuuse[0])
	}

	_meminfo, err := mem.VirtualMemory()
	if err == nil {
		metrics.SetGauge(metrics.SystemMemUsage, _meminfo.UsedPercent)
	}
}

// SchedProcessMonitorTask app process monitor
func (a *Application) SchedProcessMonitorTask() {
	defer func() {
		if err := recover(); err != nil {
			zap.S().Error(err)
		}
	}()

	metrics.SetGauge(metrics.ProcessNumGoroutine, float64(runtime.NumGoroutine()))

	p, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // G115: PID is always within int32 range
	if err != nil {
		return
	}
	meminfo, err := p.MemoryInfo()
	if err == nil {
		metrics.SetGauge(metrics.ProcessMemRss, float64(meminfo.RSS/1024/1024))
	}
}
