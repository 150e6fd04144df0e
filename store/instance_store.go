package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"checkops/checklist"
	"checkops/model"
)

// Instances is the GORM-backed persistence for checklist instances and their
// item entries. All mutating methods run inside a transaction so a workflow
// transition is applied atomically or not at all.
type Instances struct {
	db *gorm.DB
}

func NewInstances(db *gorm.DB) *Instances {
	return &Instances{db: db}
}

func (s *Instances) GetByID(ctx context.Context, instanceID string) (*model.ChecklistInstance, error) {
	var inst model.ChecklistInstance
	err := s.db.WithContext(ctx).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("instance_id = ?", instanceID).
		First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, checklist.ErrInstanceNotFound
		}
		return nil, err
	}
	return &inst, nil
}

func (s *Instances) FindByKey(ctx context.Context, templateID string, assignee checklist.Assignee, date time.Time) (*model.ChecklistInstance, error) {
	var inst model.ChecklistInstance
	err := s.db.WithContext(ctx).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("template_id = ? AND assignee_type = ? AND assignee_id = ? AND execution_date = ?",
			templateID, assignee.Type, assignee.ID, date).
		First(&inst).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, checklist.ErrInstanceNotFound
		}
		return nil, err
	}
	return &inst, nil
}

func (s *Instances) CreateIfAbsent(ctx context.Context, inst *model.ChecklistInstance) (*model.ChecklistInstance, bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The unique key on (template, assignee, date) makes concurrent
		// materialization converge: losers see zero rows affected.
		res := tx.Omit("Template", "Entries").
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(inst)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		for i := range inst.Entries {
			inst.Entries[i].InstanceID = inst.InstanceID
		}
		if len(inst.Entries) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&inst.Entries).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		got, err := s.GetByID(ctx, inst.InstanceID)
		return got, true, err
	}
	got, err := s.FindByKey(ctx, inst.TemplateID, checklist.Assignee{Type: inst.AssigneeType, ID: inst.AssigneeID}, inst.Date)
	return got, false, err
}

func (s *Instances) ListForDate(ctx context.Context, orgID string, teamID *string, date time.Time) ([]model.ChecklistInstance, error) {
	query := s.db.WithContext(ctx).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("org_id = ? AND execution_date = ?", orgID, date)
	if teamID != nil {
		query = query.Where("team_id = ?", *teamID)
	}

	var instances []model.ChecklistInstance
	err := query.Order("created_at ASC").Find(&instances).Error
	return instances, err
}

func (s *Instances) ListForAssignees(ctx context.Context, orgID string, assignees []checklist.Assignee, date time.Time) ([]model.ChecklistInstance, error) {
	if len(assignees) == 0 {
		return nil, nil
	}

	cond := s.db.Session(&gorm.Session{NewDB: true})
	for _, a := range assignees {
		cond = cond.Or(s.db.Where("assignee_type = ? AND assignee_id = ?", a.Type, a.ID))
	}

	var instances []model.ChecklistInstance
	err := s.db.WithContext(ctx).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("org_id = ? AND execution_date = ?", orgID, date).
		Where(cond).
		Order("created_at ASC").
		Find(&instances).Error
	return instances, err
}

func (s *Instances) ListPendingVerification(ctx context.Context, orgID string) ([]model.ChecklistInstance, error) {
	var instances []model.ChecklistInstance
	err := s.db.WithContext(ctx).
		Preload("Template.Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Entries", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Joins("JOIN checklist_templates t ON t.template_id = checklist_instances.template_id").
		Where("checklist_instances.org_id = ? AND checklist_instances.status = ? AND t.require_verification = ?",
			orgID, model.InstanceCompleted, true).
		Order("checklist_instances.completed_at ASC").
		Find(&instances).Error
	return instances, err
}

func (s *Instances) ListHistory(ctx context.Context, orgID string, assignee checklist.Assignee, limit int) ([]model.ChecklistInstance, error) {
	var instances []model.ChecklistInstance
	err := s.db.WithContext(ctx).
		Preload("Template").
		Where("org_id = ? AND assignee_type = ? AND assignee_id = ?", orgID, assignee.Type, assignee.ID).
		Order("execution_date DESC, created_at DESC").
		Limit(limit).
		Find(&instances).Error
	return instances, err
}

func (s *Instances) UpdateWithEntries(ctx context.Context, inst *model.ChecklistInstance, entries []model.ChecklistExecutionItem, expectStatus ...string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current model.ChecklistInstance
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("instance_id", "status").
			Where("instance_id = ?", inst.InstanceID).
			First(&current).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return checklist.ErrInstanceNotFound
			}
			return err
		}

		ok := false
		for _, st := range expectStatus {
			if current.Status == st {
				ok = true
				break
			}
		}
		if !ok {
			return checklist.ErrInvalidState
		}

		if err := tx.Omit("Template", "Entries").Save(inst).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].InstanceID = inst.InstanceID
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "instance_id"}, {Name: "item_id"}},
				UpdateAll: true,
			}).Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Instances) ListUnnotified(ctx context.Context, date time.Time) ([]model.ChecklistInstance, error) {
	var instances []model.ChecklistInstance
	err := s.db.WithContext(ctx).
		Preload("Template").
		Where("execution_date = ? AND status = ? AND upcoming_notified_at IS NULL", date, model.InstancePending).
		Find(&instances).Error
	return instances, err
}

func (s *Instances) MarkUpcomingNotified(ctx context.Context, instanceID string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&model.ChecklistInstance{}).
		Where("instance_id = ? AND upcoming_notified_at IS NULL", instanceID).
		Update("upcoming_notified_at", at)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
