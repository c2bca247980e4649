package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"estate-backend/internal/domain"
	"estate-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// Probe checks one external dependency; PingMs is nil when it is unreachable.
type Probe struct {
	Name  string
	Check func(ctx context.Context) (*int64, error)
}

// HTTPProbe reports the round trip of a GET to url.
func HTTPProbe(name, url string, timeout time.Duration) Probe {
	return Probe{Name: name, Check: func(ctx context.Context) (*int64, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		ms := time.Since(start).Milliseconds()
		return &ms, nil
	}}
}

// CollectResult is served by /health/json.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Ledgers      LedgerInfo           `json:"ledgers"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int              `json:"totalRequests"`
	SuccessCount    int              `json:"successCount"`
	FailedCount     int              `json:"failedCount"`
	SuccessRate     string           `json:"successRate"`
	AvgResponseTime interface{}      `json:"avgResponseTime"`
	LastRequest     interface{}      `json:"lastRequest"`
	Rejections      map[string]int64 `json:"rejections"`
}

// LedgerInfo summarizes the event log.
type LedgerInfo struct {
	LastSeq    int64            `json:"lastSeq"`
	EventCount map[string]int64 `json:"eventCount"`
}

type DepStatus struct {
	Status string      `json:"status"`
	PingMs interface{} `json:"pingMs"`
}

// Collector gathers health data from Redis, the database and optional probes.
type Collector struct {
	Rdb    redis.UniversalClient
	DB     *gorm.DB
	Pinger DBPinger
	Probes []Probe
}

// Collect builds the health report. Status is "ok" only when the database
// and (if configured) Redis respond.
func (col *Collector) Collect(ctx context.Context) CollectResult {
	result := CollectResult{
		Dependencies: make(map[string]DepStatus),
		Ledgers:      LedgerInfo{EventCount: map[string]int64{}},
	}

	dbStatus := "disconnected"
	var dbPingMs *int64
	if col.Pinger != nil {
		start := time.Now()
		if err := col.Pinger.Ping(); err == nil {
			ms := time.Since(start).Milliseconds()
			dbPingMs = &ms
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPingMs}

	if col.DB != nil && dbStatus == "connected" {
		result.Ledgers = ledgerInfo(ctx, col.DB)
	}

	redisStatus := "disabled"
	var redisPingMs *int64
	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100", Rejections: map[string]int64{}}
	startTimeMs := time.Now().UnixMilli()

	if col.Rdb != nil {
		redisStatus = "error"
		start := time.Now()
		if err := col.Rdb.Ping(ctx).Err(); err == nil {
			ms := time.Since(start).Milliseconds()
			redisPingMs = &ms
			redisStatus = "connected"
			startTimeMs = readTraffic(ctx, col.Rdb, &stats, startTimeMs)
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPingMs}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}
	result.Traffic = stats

	for _, p := range col.Probes {
		ms, err := p.Check(ctx)
		status := "reachable"
		if err != nil || ms == nil {
			status = "unreachable"
			ms = nil
		}
		result.Dependencies[p.Name] = DepStatus{Status: status, PingMs: ms}
	}

	if dbStatus == "connected" && redisStatus != "error" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

func readTraffic(ctx context.Context, rdb redis.UniversalClient, stats *TrafficInfo, startTimeMs int64) int64 {
	totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()
	rejects, _ := rdb.HGetAll(ctx, middleware.KeyRejects).Result()

	if startTimeStr != "" {
		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		}
	} else {
		rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	countSum, _ := strconv.Atoi(resCount)
	if countSum > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
		stats.LastRequest = lastReq
	}
	for kind, n := range rejects {
		v, _ := strconv.ParseInt(n, 10, 64)
		stats.Rejections[kind] = v
	}
	return startTimeMs
}

func ledgerInfo(ctx context.Context, db *gorm.DB) LedgerInfo {
	info := LedgerInfo{EventCount: map[string]int64{}}
	var rows []struct {
		Ledger string
		Count  int64
		MaxSeq int64
	}
	if err := db.WithContext(ctx).Model(&domain.LedgerEvent{}).
		Select("ledger, COUNT(*) AS count, MAX(seq) AS max_seq").
		Group("ledger").
		Scan(&rows).Error; err != nil {
		return info
	}
	for _, r := range rows {
		info.EventCount[r.Ledger] = r.Count
		if r.MaxSeq > info.LastSeq {
			info.LastSeq = r.MaxSeq
		}
	}
	return info
}
