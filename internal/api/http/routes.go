package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tanicerdas/weather-pipeline/internal/pipeline"
	"github.com/tanicerdas/weather-pipeline/internal/store"
)

// RegisterRoutes wires the operational HTTP handlers into the Fiber app.
// This surface is for operators only; the user-facing search/chat API is a
// separate service that consumes the filtered store read-only.
func RegisterRoutes(app *fiber.App, sched *pipeline.Scheduler, raw, filtered *store.FileStore) {
	v1 := app.Group("/api/v1")

	v1.Get("/status", func(c *fiber.Ctx) error {
		rawCount, err := raw.Count()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to inspect raw store")
		}
		filteredCount, err := filtered.Count()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to inspect filtered store")
		}

		return c.JSON(fiber.Map{
			"rawDocuments":      rawCount,
			"filteredDocuments": filteredCount,
			"lastPipelineRun":   sched.LastStats(),
		})
	})
}
