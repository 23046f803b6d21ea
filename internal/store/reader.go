package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/scriptvoice/narration-planner/internal/store/model"
	"gorm.io/gorm"
)

type Reader interface {
	Create(ctx context.Context, reader model.Reader) (*model.Reader, error)
	GetByUsername(ctx context.Context, orgID, username string) (*model.Reader, error)
	List(ctx context.Context, filter *ReaderQueryFilter) (model.ReaderList, error)
	InitialMigration(ctx context.Context) error
}

type ReaderStore struct {
	db *gorm.DB
}

// Make sure we conform to Reader interface
var _ Reader = (*ReaderStore)(nil)

func NewReaderStore(db *gorm.DB) Reader {
	return &ReaderStore{db: db}
}

func (s *ReaderStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Reader{})
}

func (s *ReaderStore) Create(ctx context.Context, reader model.Reader) (*model.Reader, error) {
	result := s.getDB(ctx).Create(&reader)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("creating reader: %w", result.Error)
	}
	return &reader, nil
}

func (s *ReaderStore) GetByUsername(ctx context.Context, orgID, username string) (*model.Reader, error) {
	var reader model.Reader
	result := s.getDB(ctx).First(&reader, "org_id = ? AND username = ?", orgID, username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying reader: %w", result.Error)
	}
	return &reader, nil
}

func (s *ReaderStore) List(ctx context.Context, filter *ReaderQueryFilter) (model.ReaderList, error) {
	var readers model.ReaderList

	tx := s.getDB(ctx).Model(&model.Reader{})
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if result := tx.Order("name").Find(&readers); result.Error != nil {
		return nil, fmt.Errorf("listing readers: %w", result.Error)
	}
	return readers, nil
}

func (s *ReaderStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
