// handlers/progress_routes.go
package handlers

import (
	"errors"
	"strconv"

	"career-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressRoutes(app *fiber.App, engine *services.ProgressEngine, notifier *services.RewardNotifier) {
	app.Get("/s/user/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Params("id")

		prog, err := engine.EnsureProgressRecord(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load progress record",
				"cause": err.Error(),
			})
		}
		prog.Level = services.LevelForXP(prog.TotalXP)
		prog.Title = services.TitleForLevel(prog.Level)

		rows, err := engine.RewardProgressRows(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load reward progress",
				"cause": err.Error(),
			})
		}

		var rewards []fiber.Map
		for _, row := range rows {
			def, ok := engine.Registry.ByID(row.RewardID)
			if !ok {
				continue // definition retired from the catalog
			}
			rewards = append(rewards, fiber.Map{
				"reward_id":  row.RewardID,
				"name":       def.Name,
				"category":   def.Category,
				"rarity":     def.Rarity,
				"xp":         def.XP,
				"progress":   row.Progress,
				"granted_at": row.GrantedAt,
			})
		}

		return c.JSON(fiber.Map{
			"id":             prog.ID,
			"user_id":        prog.UserID,
			"total_xp":       prog.TotalXP,
			"level":          prog.Level,
			"title":          prog.Title,
			"current_streak": prog.CurrentStreak,
			"longest_streak": prog.LongestStreak,
			"rewards":        rewards,
		})
	})

	app.Get("/s/user/:id/badges", func(c *fiber.Ctx) error {
		userID := c.Params("id")

		rows, err := engine.GrantedRewards(c.Context(), userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}

		response := []fiber.Map{}
		for _, row := range rows {
			def, ok := engine.Registry.ByID(row.RewardID)
			if !ok {
				continue
			}
			response = append(response, fiber.Map{
				"reward_id":   def.ID,
				"name":        def.Name,
				"description": def.Description,
				"category":    def.Category,
				"rarity":      def.Rarity,
				"xp":          def.XP,
				"granted_at":  row.GrantedAt,
			})
		}
		return c.JSON(response)
	})

	app.Get("/s/user/:id/ledger", func(c *fiber.Ctx) error {
		userID := c.Params("id")
		page, _ := strconv.Atoi(c.Query("page", "1"))
		size, _ := strconv.Atoi(c.Query("size", "20"))
		if page < 1 {
			page = 1
		}
		if size < 1 || size > 100 {
			size = 20
		}

		entries, total, err := engine.LedgerPage(c.Context(), userID, page, size)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch ledger",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"entries":     entries,
			"page":        page,
			"size":        size,
			"total_items": total,
		})
	})

	app.Get("/s/user/:id/rewards/stream", notifier.StreamRewardsSSE)

	// Admin endpoints
	app.Post("/s/admin/recalculate/:id", func(c *fiber.Ctx) error {
		userID := c.Params("id")
		result, err := engine.RecalculateAll(c.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "recalculation failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"message": "recalculation complete",
			"granted": result.Granted,
			"deltas":  result.Deltas,
			"skipped": len(result.Failed),
		})
	})

	// Catalog is static; useful for UIs rendering locked badges.
	app.Get("/s/rewards/catalog", func(c *fiber.Ctx) error {
		return c.JSON(engine.Registry.All())
	})
}
