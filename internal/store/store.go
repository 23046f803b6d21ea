package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/scriptvoice/narration-planner/internal/store/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Job() Job
	Assignment() Assignment
	Reader() Reader
	InitialMigration(context.Context) error
	Seed(ctx context.Context) error
	Close() error
}

type DataStore struct {
	job        Job
	assignment Assignment
	reader     Reader
	db         *gorm.DB
	log        *zap.SugaredLogger
}

var _ Store = (*DataStore)(nil)

func NewStore(db *gorm.DB, log *zap.SugaredLogger) Store {
	return &DataStore{
		job:        NewJobStore(db),
		assignment: NewAssignmentStore(db),
		reader:     NewReaderStore(db),
		db:         db,
		log:        log,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Job() Job {
	return s.job
}

func (s *DataStore) Assignment() Assignment {
	return s.assignment
}

func (s *DataStore) Reader() Reader {
	return s.reader
}

func (s *DataStore) InitialMigration(ctx context.Context) error {
	if err := s.Job().InitialMigration(ctx); err != nil {
		return err
	}
	if err := s.Reader().InitialMigration(ctx); err != nil {
		return err
	}
	return s.Assignment().InitialMigration(ctx)
}

// Seed installs a default set of readers so a fresh deployment has
// someone to hand assignments to. Existing rows are left alone.
func (s *DataStore) Seed(ctx context.Context) error {
	readers := []model.Reader{
		{ID: uuid.New(), Username: "svetlana", Name: "Svetlana Morales", OrgID: "internal", Active: true},
		{ID: uuid.New(), Username: "dmitri", Name: "Dmitri Castellanos", OrgID: "internal", Active: true},
		{ID: uuid.New(), Username: "amara", Name: "Amara Okonkwo", OrgID: "internal", Active: true},
	}
	for _, reader := range readers {
		if _, err := s.Reader().GetByUsername(ctx, reader.OrgID, reader.Username); err == nil {
			continue
		}
		if _, err := s.Reader().Create(ctx, reader); err != nil {
			return err
		}
		s.log.Infof("seeded reader %q in org %q", reader.Username, reader.OrgID)
	}
	return nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
