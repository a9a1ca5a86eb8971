package tasks

import (
	"context"
	"fmt"

	"log/slog"

	"gorm.io/gorm"

	"leadpilot/internal/ai"
	"leadpilot/internal/campaigns"
	"leadpilot/internal/email"
	"leadpilot/internal/leads"
	"leadpilot/internal/messages"
)

// Processor drains the task queue. Task bodies are idempotent, so a task
// that was executed but crashed before being flagged processed is safe to
// run again.
type Processor struct {
	Logger      *slog.Logger
	AI          ai.Client
	Sender      email.Sender
	FromAddress string
	MaxAttempts int
	BatchSize   int
}

// ProcessPending executes pending tasks oldest-first and returns how many
// were processed. A failing task has its attempt counter bumped and is
// retried on the next run; once it exhausts MaxAttempts it is marked
// processed with the last error retained so the queue keeps moving.
func (p *Processor) ProcessPending(ctx context.Context, db *gorm.DB) (int, error) {
	pending, err := GetPendingTasks(db, p.BatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		task := &pending[i]

		if err := p.runTask(ctx, db, task); err != nil {
			p.Logger.Error("Task failed",
				slog.Uint64("task_id", uint64(task.ID)),
				slog.String("kind", task.Kind),
				slog.Int("attempt", task.Attempts+1),
				slog.String("error", err.Error()))

			if task.Attempts+1 >= p.MaxAttempts {
				// Out of attempts. Retire the task; sending falls back to
				// the plain template where personalization never landed.
				if markErr := markProcessed(p.Logger, db, task.ID, err.Error()); markErr != nil {
					return processed, markErr
				}
				processed++
				continue
			}
			if recErr := recordFailure(p.Logger, db, task.ID, err); recErr != nil {
				return processed, recErr
			}
			continue
		}

		if err := markProcessed(p.Logger, db, task.ID, ""); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// PersonalizeAssignment personalizes one assignment outside the queue.
// Used by operator tooling that wants synchronous fan-out.
func (p *Processor) PersonalizeAssignment(ctx context.Context, db *gorm.DB, assignmentID uint) error {
	return p.runPersonalize(ctx, db, assignmentID)
}

func (p *Processor) runTask(ctx context.Context, db *gorm.DB, task *Task) error {
	switch task.Kind {
	case KindPersonalize:
		return p.runPersonalize(ctx, db, task.AssignmentID)
	case KindSend:
		return email.Dispatch(p.Logger, db, p.Sender, p.FromAddress, task.AssignmentID)
	default:
		return fmt.Errorf("unknown task kind: %s", task.Kind)
	}
}

// runPersonalize fills an assignment's personalized text. Assignments that
// already carry text are skipped, which makes reruns harmless.
func (p *Processor) runPersonalize(ctx context.Context, db *gorm.DB, assignmentID uint) error {
	assignment, err := messages.GetAssignmentByID(db, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to load assignment: %w", err)
	}
	if assignment.PersonalizedMsg != "" {
		return nil
	}
	if p.AI == nil {
		return nil
	}

	message, err := messages.GetMessageByID(db, assignment.MessageID)
	if err != nil {
		return fmt.Errorf("failed to load message: %w", err)
	}

	cl, err := campaigns.GetCampaignLeadByID(db, assignment.CampaignLeadID)
	if err != nil {
		return fmt.Errorf("failed to load campaign lead: %w", err)
	}
	lead, err := leads.GetLeadByID(db, cl.LeadID)
	if err != nil {
		return fmt.Errorf("failed to load lead: %w", err)
	}

	text, err := p.AI.Personalize(ctx, message.Template(), ai.LeadProfile{
		FirstName:     lead.FirstName,
		Position:      lead.Position,
		CompanyName:   lead.CompanyName,
		Industry:      lead.Industry,
		EmployeeCount: lead.EmployeeCount,
	})
	if err != nil {
		return fmt.Errorf("personalization failed: %w", err)
	}

	return messages.SetPersonalizedMsg(p.Logger, db, assignment.ID, text)
}
