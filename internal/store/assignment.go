package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Assignment is the database contract of the assignment system of record.
// Rows are soft-deleted so the audit history survives; a deleted or skipped
// assignment releases its job back into the available pool through the job
// query filters.
type Assignment interface {
	Create(ctx context.Context, assignment model.Assignment) (*model.Assignment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error)
	List(ctx context.Context, filter *AssignmentQueryFilter, opts *AssignmentQueryOptions) (model.AssignmentList, error)
	Update(ctx context.Context, assignment model.Assignment) (*model.Assignment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	InitialMigration(ctx context.Context) error
}

type AssignmentStore struct {
	db *gorm.DB
}

// Make sure we conform to Assignment interface
var _ Assignment = (*AssignmentStore)(nil)

func NewAssignmentStore(db *gorm.DB) Assignment {
	return &AssignmentStore{db: db}
}

func (s *AssignmentStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Assignment{})
}

func (s *AssignmentStore) Create(ctx context.Context, assignment model.Assignment) (*model.Assignment, error) {
	result := s.getDB(ctx).Create(&assignment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating assignment: %w", result.Error)
	}
	return &assignment, nil
}

func (s *AssignmentStore) Get(ctx context.Context, id uuid.UUID) (*model.Assignment, error) {
	var assignment model.Assignment
	result := s.getDB(ctx).First(&assignment, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying assignment: %w", result.Error)
	}
	return &assignment, nil
}

func (s *AssignmentStore) List(ctx context.Context, filter *AssignmentQueryFilter, opts *AssignmentQueryOptions) (model.AssignmentList, error) {
	var assignments model.AssignmentList

	tx := s.getDB(ctx).Model(&model.Assignment{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Find(&assignments); result.Error != nil {
		return nil, fmt.Errorf("listing assignments: %w", result.Error)
	}
	return assignments, nil
}

func (s *AssignmentStore) Update(ctx context.Context, assignment model.Assignment) (*model.Assignment, error) {
	result := s.getDB(ctx).Model(&assignment).
		Clauses(clause.Returning{}).
		Select("assigned_to", "priority", "status", "due_date", "notes", "completed_at").
		Updates(&assignment)
	if result.Error != nil {
		return nil, fmt.Errorf("updating assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &assignment, nil
}

func (s *AssignmentStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.getDB(ctx).Delete(&model.Assignment{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("deleting assignment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *AssignmentStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
