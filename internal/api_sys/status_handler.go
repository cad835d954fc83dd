package sysapi

import (
	"runtime"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/database"
	"github.com/yockii/slide_stream/pkg/logger"
)

type StatusHandler struct {
	startedAt time.Time
}

func RegisterStatusHandler() {
	Handlers = append(Handlers, &StatusHandler{startedAt: time.Now()})
}

func (h *StatusHandler) RegisterRoutes(router fiber.Router, authMiddleware fiber.Handler) {
	router.Get("/health", h.Health)
	router.Get("/status", authMiddleware, h.Status)
}

// Health 存活检查
func (h *StatusHandler) Health(c *fiber.Ctx) error {
	return c.SendString("OK")
}

type HostStatus struct {
	Hostname      string  `json:"hostname"`
	OS            string  `json:"os"`
	Platform      string  `json:"platform"`
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryTotal   uint64  `json:"memoryTotal"`
	MemoryUsed    uint64  `json:"memoryUsed"`
	MemoryPercent float64 `json:"memoryPercent"`
}

type Status struct {
	Uptime     string      `json:"uptime"`
	StartedAt  int64       `json:"startedAt"`
	GoVersion  string      `json:"goVersion"`
	Goroutines int         `json:"goroutines"`
	HeapAlloc  uint64      `json:"heapAlloc"`
	Database   string      `json:"database"`
	Host       *HostStatus `json:"host,omitempty"`
}

// Status 运行状态，主机信息获取失败时省略
func (h *StatusHandler) Status(c *fiber.Ctx) error {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	status := &Status{
		Uptime:     time.Since(h.startedAt).Truncate(time.Second).String(),
		StartedAt:  h.startedAt.Unix(),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		Database:   databaseState(),
	}

	hostStatus := &HostStatus{}
	vm, err := mem.VirtualMemoryWithContext(c.Context())
	if err != nil {
		logger.Warn("获取内存信息失败", logger.F("err", err))
		hostStatus = nil
	} else {
		hostStatus.MemoryTotal = vm.Total
		hostStatus.MemoryUsed = vm.Used
		hostStatus.MemoryPercent = vm.UsedPercent
	}
	if hostStatus != nil {
		if info, err := host.InfoWithContext(c.Context()); err == nil {
			hostStatus.Hostname = info.Hostname
			hostStatus.OS = info.OS
			hostStatus.Platform = info.Platform
		}
		if percents, err := cpu.PercentWithContext(c.Context(), 0, false); err == nil && len(percents) > 0 {
			hostStatus.CPUPercent = percents[0]
		}
	}
	status.Host = hostStatus

	return c.JSON(service.OK(status))
}

func databaseState() string {
	db := database.GetDB()
	if db == nil {
		return "uninitialized"
	}
	sqlDB, err := db.DB()
	if err != nil || sqlDB.Ping() != nil {
		return "unavailable"
	}
	return "ok"
}
