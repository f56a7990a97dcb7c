// handlers/activity_routes.go
package handlers

import (
	"career-progress-system/models"
	"career-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

// SetupActivityRoutes wires the activity-recording surface. Each endpoint
// persists a domain row and enqueues the matching event for the dispatcher.
func SetupActivityRoutes(app *fiber.App, activity *services.ActivityService, users *services.UserService, queue services.EventQueue) {
	app.Post("/s/users", users.CreateUser)
	app.Get("/s/users", users.SearchUsers)

	app.Post("/s/user/:id/cv", func(c *fiber.Ctx) error {
		var req struct {
			FileName string `json:"file_name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		doc, err := activity.UploadCV(c.Context(), c.Params("id"), req.FileName)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record CV", "cause": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	app.Post("/s/user/:id/analysis", func(c *fiber.Ctx) error {
		var req struct {
			CVID  string `json:"cv_id"`
			Score int    `json:"score"`
			Model string `json:"model"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Score < 0 || req.Score > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "score must be 0-100"})
		}
		analysis, err := activity.CompleteAnalysis(c.Context(), c.Params("id"), req.CVID, req.Score, req.Model)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record analysis", "cause": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(analysis)
	})

	app.Post("/s/user/:id/application", func(c *fiber.Ctx) error {
		var req struct {
			Company string `json:"company"`
			Role    string `json:"role"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		application, err := activity.SubmitApplication(c.Context(), c.Params("id"), req.Company, req.Role)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record application", "cause": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(application)
	})

	app.Post("/s/user/:id/skill", func(c *fiber.Ctx) error {
		var req struct {
			Name  string `json:"name"`
			Level string `json:"level"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "skill name is required"})
		}
		skill, err := activity.AddSkill(c.Context(), c.Params("id"), req.Name, req.Level)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record skill", "cause": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(skill)
	})

	app.Post("/s/user/:id/login", func(c *fiber.Ctx) error {
		prog, err := activity.RecordLogin(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record login", "cause": err.Error()})
		}
		return c.JSON(fiber.Map{
			"current_streak": prog.CurrentStreak,
			"longest_streak": prog.LongestStreak,
		})
	})

	app.Post("/s/user/:id/challenge", func(c *fiber.Ctx) error {
		var req struct {
			ChallengeID string `json:"challenge_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		cc, err := activity.CompleteChallenge(c.Context(), c.Params("id"), req.ChallengeID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record challenge", "cause": err.Error()})
		}
		return c.Status(fiber.StatusCreated).JSON(cc)
	})

	app.Put("/s/user/:id/profile", func(c *fiber.Ctx) error {
		var req models.Profile
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		profile, err := activity.UpsertProfile(c.Context(), c.Params("id"), req)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update profile", "cause": err.Error()})
		}
		return c.JSON(profile)
	})

	// Raw event intake for callers that already recorded their own rows.
	app.Post("/s/events", func(c *fiber.Ctx) error {
		var event models.ActivityEvent
		if err := c.BodyParser(&event); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if event.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "user_id is required"})
		}
		if !models.KnownEvent(event.Type) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown event type"})
		}
		queue.Enqueue(event)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"message": "event accepted"})
	})
}
