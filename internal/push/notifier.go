package push

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/homeboardhq/homeboard/internal/model"
	"github.com/homeboardhq/homeboard/internal/store"
)

const notifyTimeout = 30 * time.Second

// Notifier pushes assignment notifications to a member's registered devices.
type Notifier struct {
	service *Service
	store   *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service *Service, st *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: service, store: st, logger: logger}
}

// TaskAssigned notifies the assignee of a new or reassigned task. Failures
// are logged, never surfaced: a dropped notification must not fail the
// mutation that triggered it. Expired subscriptions are pruned.
func (n *Notifier) TaskAssigned(task *model.Task) {
	if n == nil || n.service == nil || task.AssigneeID == nil {
		return
	}

	subs, err := n.store.ListByMember(*task.AssigneeID)
	if err != nil {
		n.logger.Error("list push subscriptions", "member_id", *task.AssigneeID, "error", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload := Payload{
		Title: "New task assigned",
		Body:  task.Title,
		Tag:   "task-" + task.ID,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()

		for i := range subs {
			sub := &subs[i]
			err := n.service.Send(ctx, sub, payload)
			if errors.Is(err, ErrExpired) {
				if delErr := n.store.Delete(sub.ID); delErr != nil {
					n.logger.Error("prune expired subscription", "id", sub.ID, "error", delErr)
				}
				continue
			}
			if err != nil {
				n.logger.Error("send push", "id", sub.ID, "error", err)
			}
		}
	}()
}
