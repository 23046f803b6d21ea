package store

import (
	"gorm.io/gorm"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByCreatedTime
	SortByUpdatedTime
	SortByPriority
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type JobQueryFilter BaseQuerier

func NewJobQueryFilter() *JobQueryFilter {
	return &JobQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *JobQueryFilter) ByOrgID(orgID string) *JobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", orgID)
	})
	return qf
}

func (qf *JobQueryFilter) ByCreatedBy(username string) *JobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("created_by = ?", username)
	})
	return qf
}

func (qf *JobQueryFilter) ByStatus(status string) *JobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return qf
}

// WithoutActiveAssignment keeps only jobs no non-skipped assignment
// references, the "available for assignment" pool.
func (qf *JobQueryFilter) WithoutActiveAssignment() *JobQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("NOT EXISTS (SELECT 1 FROM assignments WHERE assignments.job_id = jobs.id AND assignments.status <> 'skipped' AND assignments.deleted_at IS NULL)")
	})
	return qf
}

type AssignmentQueryFilter BaseQuerier

func NewAssignmentQueryFilter() *AssignmentQueryFilter {
	return &AssignmentQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *AssignmentQueryFilter) ByOrgID(orgID string) *AssignmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", orgID)
	})
	return qf
}

func (qf *AssignmentQueryFilter) ByAssignedTo(username string) *AssignmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("assigned_to = ?", username)
	})
	return qf
}

func (qf *AssignmentQueryFilter) ByStatus(status string) *AssignmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return qf
}

func (qf *AssignmentQueryFilter) ByType(assignmentType string) *AssignmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("assignment_type = ?", assignmentType)
	})
	return qf
}

func (qf *AssignmentQueryFilter) ByJobID(jobID string) *AssignmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("job_id = ?", jobID)
	})
	return qf
}

// ExcludeSkipped drops skipped assignments; used when checking whether a
// job still has an active assignment.
func (qf *AssignmentQueryFilter) ExcludeSkipped() *AssignmentQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status <> 'skipped'")
	})
	return qf
}

type AssignmentQueryOptions BaseQuerier

func NewAssignmentQueryOptions() *AssignmentQueryOptions {
	return &AssignmentQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *AssignmentQueryOptions) WithSortOrder(sort SortOrder) *AssignmentQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByCreatedTime:
			return tx.Order("created_at")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByPriority:
			return tx.Order("priority DESC, created_at, id")
		default:
			return tx
		}
	})
	return o
}

type ReaderQueryFilter BaseQuerier

func NewReaderQueryFilter() *ReaderQueryFilter {
	return &ReaderQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ReaderQueryFilter) ByOrgID(orgID string) *ReaderQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("org_id = ?", orgID)
	})
	return qf
}

func (qf *ReaderQueryFilter) OnlyActive() *ReaderQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("active = ?", true)
	})
	return qf
}
