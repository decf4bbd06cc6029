package rest

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/emundo/emubot/pkg/botmonitor"
	"github.com/emundo/emubot/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type monitorSummary struct {
	botmonitor.Stats
	Uptime    string `json:"uptime"`
	LastEvent string `json:"last_event,omitempty"`
	Inbound   string `json:"inbound_humanized"`
}

// InitRestMonitor serves the pipeline counters and recent events.
func InitRestMonitor(app fiber.Router, monitor *botmonitor.Monitor, startedAt time.Time) {
	app.Get("/monitor", func(c *fiber.Ctx) error {
		if monitor == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(utils.ResponseData{
				Status:  fiber.StatusServiceUnavailable,
				Code:    "MONITOR_DISABLED",
				Message: "Monitoring is disabled",
			})
		}

		stats := monitor.GetStats()
		summary := monitorSummary{
			Stats:   stats,
			Uptime:  strings.TrimSpace(humanize.RelTime(startedAt, time.Now(), "", "")),
			Inbound: humanize.Comma(stats.TotalInbound),
		}
		if n := len(stats.RecentEvents); n > 0 {
			summary.LastEvent = humanize.Time(stats.RecentEvents[n-1].Timestamp)
		}

		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Monitor statistics",
			Results: summary,
		})
	})
}
