package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"checkops/checklist"
	"checkops/model"
)

// Templates is the GORM-backed read side for checklist templates.
type Templates struct {
	db *gorm.DB
}

func NewTemplates(db *gorm.DB) *Templates {
	return &Templates{db: db}
}

func (s *Templates) GetByID(ctx context.Context, orgID, templateID string) (*model.ChecklistTemplate, error) {
	var tpl model.ChecklistTemplate
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Assignments").
		Where("template_id = ? AND org_id = ?", templateID, orgID).
		First(&tpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, checklist.ErrTemplateNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (s *Templates) ListActive(ctx context.Context) ([]model.ChecklistTemplate, error) {
	var templates []model.ChecklistTemplate
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Assignments").
		Where("is_active = ?", true).
		Find(&templates).Error
	return templates, err
}

func (s *Templates) ListActiveForAssignees(ctx context.Context, orgID string, assignees []checklist.Assignee) ([]model.ChecklistTemplate, error) {
	if len(assignees) == 0 {
		return nil, nil
	}

	query := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Assignments").
		Joins("JOIN checklist_assignments ca ON ca.template_id = checklist_templates.template_id").
		Where("checklist_templates.org_id = ? AND checklist_templates.is_active = ?", orgID, true)

	cond := s.db.Session(&gorm.Session{NewDB: true})
	for _, a := range assignees {
		cond = cond.Or(s.db.Where("ca.assignee_type = ? AND ca.assignee_id = ?", a.Type, a.ID))
	}
	query = query.Where(cond)

	var templates []model.ChecklistTemplate
	err := query.Distinct("checklist_templates.*").Find(&templates).Error
	return templates, err
}
