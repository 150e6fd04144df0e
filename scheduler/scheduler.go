package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"checkops/checklist"
)

// Deps bundles what the background jobs need.
type Deps struct {
	Templates           checklist.TemplateStore
	Instances           checklist.InstanceStore
	InstanceService     *checklist.InstanceService
	Notifier            checklist.Notifier
	Location            *time.Location
	MaterializeCron     string
	UpcomingLeadMinutes int
	Logger              *zap.Logger
}

// Scheduler runs the daily materialization sweep and the every-minute
// upcoming-window scan.
type Scheduler struct {
	deps  Deps
	cron  *cron.Cron
	clock func() time.Time
}

func New(deps Deps) *Scheduler {
	return &Scheduler{deps: deps, cron: cron.New(), clock: time.Now}
}

// Start registers the cron jobs and runs them on a background goroutine. The
// materialization sweep also runs once at startup so a restarted service
// catches up with the current day.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.deps.MaterializeCron, func() {
		s.MaterializeToday(context.Background())
	}); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("* * * * *", func() {
		s.ScanUpcoming(context.Background())
	}); err != nil {
		return err
	}

	go s.MaterializeToday(context.Background())

	s.cron.Start()
	s.deps.Logger.Info("scheduler started",
		zap.String("materialize_cron", s.deps.MaterializeCron),
		zap.Int("upcoming_lead_minutes", s.deps.UpcomingLeadMinutes))
	return nil
}

// Stop halts the cron loop; running jobs finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// MaterializeToday creates today's missing instances for every active
// template and assignment. Templates not scheduled today are skipped.
func (s *Scheduler) MaterializeToday(ctx context.Context) {
	now := s.clock()
	templates, err := s.deps.Templates.ListActive(ctx)
	if err != nil {
		s.deps.Logger.Error("materialization sweep failed to list templates", zap.Error(err))
		return
	}

	created := 0
	for i := range templates {
		tpl := &templates[i]
		for _, a := range tpl.Assignments {
			assignee := checklist.Assignee{Type: a.AssigneeType, ID: a.AssigneeID}
			_, err := s.deps.InstanceService.GetOrCreateForToday(
				ctx, tpl.OrgID, tpl.TemplateID, assignee, now, s.deps.Location)
			if err != nil {
				if errors.Is(err, checklist.ErrNotScheduledToday) {
					continue
				}
				s.deps.Logger.Warn("materialization failed",
					zap.String("template_id", tpl.TemplateID),
					zap.String("assignee", assignee.Type+":"+assignee.ID),
					zap.Error(err))
				continue
			}
			created++
		}
	}

	s.deps.Logger.Info("materialization sweep finished",
		zap.Int("templates", len(templates)), zap.Int("instances", created))
}

// ScanUpcoming pushes a reminder for pending instances whose window opens
// within the configured lead time. The notified stamp is claimed with a
// conditional update so overlapping scans push at most once per instance.
func (s *Scheduler) ScanUpcoming(ctx context.Context) {
	now := s.clock()
	local := now.In(s.deps.Location)
	date := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	instances, err := s.deps.Instances.ListUnnotified(ctx, date)
	if err != nil {
		s.deps.Logger.Error("upcoming scan failed to list instances", zap.Error(err))
		return
	}

	for i := range instances {
		inst := &instances[i]
		ws := checklist.IsWithinTimeWindow(inst, now, s.deps.Location)
		if ws.State != checklist.WindowBefore || ws.MinutesUntilStart > s.deps.UpcomingLeadMinutes {
			continue
		}

		claimed, err := s.deps.Instances.MarkUpcomingNotified(ctx, inst.InstanceID, now)
		if err != nil {
			s.deps.Logger.Warn("failed to stamp upcoming reminder",
				zap.String("instance_id", inst.InstanceID), zap.Error(err))
			continue
		}
		if !claimed {
			continue
		}

		if err := s.deps.Notifier.ChecklistUpcoming(ctx, inst, ws.MinutesUntilStart); err != nil {
			s.deps.Logger.Warn("upcoming notification failed",
				zap.String("instance_id", inst.InstanceID), zap.Error(err))
		}
	}
}
