package services

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"career-progress-system/models"

	"github.com/gofiber/fiber/v2"
)

// RewardNotifier fans granted rewards out to per-user subscribers. The
// dispatcher publishes; SSE streams subscribe. Slow subscribers drop
// events rather than block a grant.
type RewardNotifier struct {
	mu   sync.RWMutex
	subs map[string]map[chan models.RewardDefinition]struct{}
}

func NewRewardNotifier() *RewardNotifier {
	return &RewardNotifier{subs: make(map[string]map[chan models.RewardDefinition]struct{})}
}

// Publish delivers granted definitions to every subscriber of the user.
func (n *RewardNotifier) Publish(userID string, defs ...models.RewardDefinition) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for ch := range n.subs[userID] {
		for _, def := range defs {
			select {
			case ch <- def:
			default:
				log.Printf("[Notifier] dropped reward event for %s (slow subscriber)", userID)
			}
		}
	}
}

// Subscribe registers a channel for one user; call the returned cancel when
// the consumer goes away.
func (n *RewardNotifier) Subscribe(userID string) (<-chan models.RewardDefinition, func()) {
	ch := make(chan models.RewardDefinition, 16)
	n.mu.Lock()
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[chan models.RewardDefinition]struct{})
	}
	n.subs[userID][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		delete(n.subs[userID], ch)
		if len(n.subs[userID]) == 0 {
			delete(n.subs, userID)
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

// StreamRewardsSSE streams reward grants for one user as server-sent events.
func (n *RewardNotifier) StreamRewardsSSE(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing user id"})
	}

	// SSE headers
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx

	events, cancel := n.Subscribe(userID)
	ctx := c.Context()

	// Use fasthttp stream writer (THIS replaces Flush)
	ctx.SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()

		// Initial keepalive (comment event)
		w.WriteString(":\n\n")
		w.Flush()

		for {
			select {
			case def := <-events:
				payload, _ := json.Marshal(def)
				fmt.Fprintf(w, "event: reward\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					// Client disconnected
					return
				}
			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-ctx.Done():
				// Client closed connection
				return
			}
		}
	})

	return nil
}
