package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Rithvik985/situated-learning-api/internal/models"
)

// RubricRepository defines persistence operations for rubrics.
type RubricRepository interface {
	GetByID(ctx context.Context, id string) (models.Rubric, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Rubric, error)
	Create(ctx context.Context, rubric *models.Rubric) error
	Update(ctx context.Context, rubric *models.Rubric) error
}

type rubricRepository struct {
	db *gorm.DB
}

// NewRubricRepository instantiates a GORM-backed repository.
func NewRubricRepository(db *gorm.DB) RubricRepository {
	return &rubricRepository{db: db}
}

func (r *rubricRepository) GetByID(ctx context.Context, id string) (models.Rubric, error) {
	var rubric models.Rubric
	if err := r.db.WithContext(ctx).First(&rubric, "id = ?", id).Error; err != nil {
		return models.Rubric{}, err
	}

	return rubric, nil
}

// ListByAssignment matches rubrics whose assignment id list contains the
// given id. The list is stored as a JSON array, so the match is a substring
// test on the serialized form; ids are UUIDs, which cannot collide partially.
func (r *rubricRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]models.Rubric, error) {
	var rubrics []models.Rubric
	pattern := "%\"" + assignmentID + "\"%"
	err := r.db.WithContext(ctx).
		Where("assignment_ids LIKE ?", pattern).
		Order("created_at DESC").
		Find(&rubrics).Error
	if err != nil {
		return nil, err
	}

	return rubrics, nil
}

func (r *rubricRepository) Create(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Create(rubric).Error
}

func (r *rubricRepository) Update(ctx context.Context, rubric *models.Rubric) error {
	return r.db.WithContext(ctx).Save(rubric).Error
}
