package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Project struct {
	ID               int             `gorm:"primary_key" json:"id"`
	Name             string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Department       string          `gorm:"size:255;not null;index" json:"department" binding:"required"`
	Contractor       string          `gorm:"size:255" json:"contractor"`
	Location         string          `gorm:"size:255" json:"location"`
	SanctionedBudget decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"sanctioned_budget"`
	UtilizedAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"utilized_amount"`
	Status           ProjectStatus   `gorm:"type:enum('planned','ongoing','completed','stalled');not null;default:'planned';index" json:"status"`
	StartDate        *time.Time      `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
	CreatedBy        int             `gorm:"index" json:"created_by"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	Invoices []Invoice `gorm:"foreignKey:ProjectId" json:"invoices,omitempty"`
}

type NewProject struct {
	Name             string          `json:"name" binding:"required"`
	Department       string          `json:"department" binding:"required"`
	Contractor       string          `json:"contractor"`
	Location         string          `json:"location"`
	SanctionedBudget decimal.Decimal `json:"sanctioned_budget" binding:"required"`
	Status           *string         `json:"status"`
	StartDate        *time.Time      `json:"start_date"`
	EndDate          *time.Time      `json:"end_date"`
}

func (input *NewProject) validate() error {
	if input.SanctionedBudget.IsNegative() {
		return errors.New("sanctioned budget must not be negative")
	}
	if input.Status != nil {
		switch ProjectStatus(*input.Status) {
		case ProjectStatusPlanned, ProjectStatusOngoing, ProjectStatusCompleted, ProjectStatusStalled:
		default:
			return errors.New("invalid project status")
		}
	}
	if input.StartDate != nil && input.EndDate != nil && input.EndDate.Before(*input.StartDate) {
		return errors.New("end date must not precede start date")
	}
	return nil
}

func CreateProject(ctx context.Context, input *NewProject) (*Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	userId, _ := utils.GetUserIdFromContext(ctx)

	status := ProjectStatusPlanned
	if input.Status != nil {
		status = ProjectStatus(*input.Status)
	}

	db := config.GetDB()
	project := Project{
		Name:             input.Name,
		Department:       input.Department,
		Contractor:       input.Contractor,
		Location:         input.Location,
		SanctionedBudget: input.SanctionedBudget,
		UtilizedAmount:   decimal.Zero,
		Status:           status,
		StartDate:        input.StartDate,
		EndDate:          input.EndDate,
		CreatedBy:        userId,
	}
	if err := db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

func UpdateProject(ctx context.Context, id int, input *NewProject) (*Project, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	project, err := GetProjectById(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":             input.Name,
		"Department":       input.Department,
		"Contractor":       input.Contractor,
		"Location":         input.Location,
		"SanctionedBudget": input.SanctionedBudget,
		"StartDate":        input.StartDate,
		"EndDate":          input.EndDate,
	}
	if input.Status != nil {
		updates["Status"] = ProjectStatus(*input.Status)
	}
	if err := db.WithContext(ctx).Model(project).Updates(updates).Error; err != nil {
		return nil, err
	}

	return project, nil
}

func GetProjectById(ctx context.Context, id int) (*Project, error) {
	db := config.GetDB()

	var project Project
	if err := db.WithContext(ctx).First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &project, nil
}

// GetProjects lists projects newest-first, optionally filtered by status
// and/or department. This feeds the public dashboard, so no auth context is
// consulted here.
func GetProjects(ctx context.Context, status *string, department *string) ([]Project, error) {
	db := config.GetDB()

	q := db.WithContext(ctx).Model(&Project{}).Order("created_at DESC")
	if status != nil && *status != "" {
		q = q.Where("status = ?", *status)
	}
	if department != nil && *department != "" {
		q = q.Where("department = ?", *department)
	}

	var projects []Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// AddUtilizedAmount bumps a project's utilized total inside the caller's
// transaction when an invoice is recorded against it.
func AddUtilizedAmount(tx *gorm.DB, projectId int, amount decimal.Decimal) error {
	return tx.Model(&Project{}).
		Where("id = ?", projectId).
		Update("utilized_amount", gorm.Expr("utilized_amount + ?", amount)).Error
}
