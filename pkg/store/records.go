package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/luchenqun/lucky-dog/pkg/models"
)

// StaleAge is the server-side lease timeout. A CHECKING row older than
// this is considered abandoned and eligible for reclamation.
const StaleAge = time.Hour

// insertChunkSize keeps batched statements under SQLite's bound
// parameter limit.
const insertChunkSize = 500

// Candidate is the (id, passphrase) pair handed out in a lease.
type Candidate struct {
	ID  uint64 `json:"id"`
	Pwd string `json:"pwd"`
}

// StatusCounts is the aggregate progress snapshot over the store.
// Timeout counts CHECKING rows whose lease has exceeded StaleAge.
type StatusCounts struct {
	Uncheck  int64 `json:"uncheck"`
	Checking int64 `json:"checking"`
	Checked  int64 `json:"checked"`
	Timeout  int64 `json:"timeout"`
	Total    int64 `json:"total"`
}

// BatchSize returns the lease batch size for a worker advertising
// cpuCount cores: max(100, cpuCount*100). Non-positive counts are
// treated as a single core.
func BatchSize(cpuCount int) int {
	if cpuCount <= 0 {
		cpuCount = 1
	}
	n := cpuCount * 100
	if n < 100 {
		n = 100
	}
	return n
}

// Insert adds candidate passphrases with status UNCHECKED. Duplicates
// are silently ignored; the whole batch is applied in one transaction.
// Returns the number of rows actually inserted.
func (s *Store) Insert(ctx context.Context, pwds []string) (int64, error) {
	if len(pwds) == 0 {
		return 0, nil
	}

	now := s.now().Unix()
	records := make([]models.Record, 0, len(pwds))
	for _, pwd := range pwds {
		if pwd == "" {
			continue
		}
		records = append(records, models.Record{
			Pwd:       pwd,
			Status:    models.StatusUnchecked,
			UpdatedAt: now,
		})
	}

	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(&records, insertChunkSize)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// ReserveBatch selects up to n UNCHECKED rows ordered by id ascending
// and flips them to CHECKING in the same transaction. Transactions
// begin as immediate write transactions (_txlock on the DSN), so
// concurrent reservations queue on the write lock and can never return
// overlapping id sets.
//
// The flip uses an id-range update rather than a dynamic IN list: the
// selection is ordered and guarded by status=UNCHECKED, so every
// unchecked row between the first and last selected id is exactly the
// selected set.
func (s *Store) ReserveBatch(ctx context.Context, n int) ([]Candidate, error) {
	if n <= 0 {
		return nil, nil
	}

	var batch []Candidate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Record{}).
			Select("id", "pwd").
			Where("status = ?", models.StatusUnchecked).
			Order("id ASC").
			Limit(n).
			Find(&batch).Error; err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		first := batch[0].ID
		last := batch[len(batch)-1].ID
		return tx.Model(&models.Record{}).
			Where("status = ? AND id >= ? AND id <= ?", models.StatusUnchecked, first, last).
			Updates(map[string]any{
				"status":     models.StatusChecking,
				"updated_at": s.now().Unix(),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// MarkCheckedByPwd flips the rows whose passphrase appears in pwds to
// CHECKED. Unknown passphrases are no-ops. The whole set is applied in
// a single transaction, chunked to stay under the SQLite parameter
// limit. Returns the number of rows updated.
func (s *Store) MarkCheckedByPwd(ctx context.Context, pwds []string) (int64, error) {
	if len(pwds) == 0 {
		return 0, nil
	}

	now := s.now().Unix()
	var updated int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(pwds); start += insertChunkSize {
			end := start + insertChunkSize
			if end > len(pwds) {
				end = len(pwds)
			}
			result := tx.Model(&models.Record{}).
				Where("pwd IN ? AND status <> ?", pwds[start:end], models.StatusChecked).
				Updates(map[string]any{
					"status":     models.StatusChecked,
					"updated_at": now,
				})
			if result.Error != nil {
				return result.Error
			}
			updated += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// ReclaimStale returns CHECKING rows older than age to UNCHECKED and
// reports how many were reclaimed.
func (s *Store) ReclaimStale(ctx context.Context, age time.Duration) (int64, error) {
	now := s.now().Unix()
	cutoff := now - int64(age.Seconds())

	result := s.db.WithContext(ctx).Model(&models.Record{}).
		Where("status = ? AND updated_at < ?", models.StatusChecking, cutoff).
		Updates(map[string]any{
			"status":     models.StatusUnchecked,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

// ResetAll flips every row back to UNCHECKED. Callers must enforce the
// sample-store policy; the store itself applies no guard.
func (s *Store) ResetAll(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Record{}).
		Where("1 = 1").
		Updates(map[string]any{
			"status":     models.StatusUnchecked,
			"updated_at": s.now().Unix(),
		})
	return result.RowsAffected, result.Error
}

// CountByStatus produces the aggregate snapshot in a single scan.
func (s *Store) CountByStatus(ctx context.Context) (*StatusCounts, error) {
	cutoff := s.now().Add(-StaleAge).Unix()

	var counts StatusCounts
	err := s.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*)                                          AS total,
			COALESCE(SUM(status = ?), 0)                      AS uncheck,
			COALESCE(SUM(status = ?), 0)                      AS checking,
			COALESCE(SUM(status = ?), 0)                      AS checked,
			COALESCE(SUM(status = ? AND updated_at < ?), 0)   AS timeout
		FROM records`,
		models.StatusUnchecked, models.StatusChecking, models.StatusChecked,
		models.StatusChecking, cutoff,
	).Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return &counts, nil
}

// Count returns the total number of candidate rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Record{}).Count(&count).Error
	return count, err
}

// GetByID retrieves a record by its id.
func (s *Store) GetByID(ctx context.Context, id uint64) (*models.Record, error) {
	var record models.Record
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrRecordNotFound)
	}
	return &record, nil
}

// GetByPwd retrieves a record by its passphrase.
func (s *Store) GetByPwd(ctx context.Context, pwd string) (*models.Record, error) {
	var record models.Record
	if err := s.db.WithContext(ctx).Where("pwd = ?", pwd).First(&record).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrRecordNotFound)
	}
	return &record, nil
}

// GetRandom returns an arbitrary record, or ErrNoCandidates when the
// store is empty.
func (s *Store) GetRandom(ctx context.Context) (*models.Record, error) {
	var record models.Record
	if err := s.db.WithContext(ctx).Order("RANDOM()").First(&record).Error; err != nil {
		return nil, convertNotFoundError(err, models.ErrNoCandidates)
	}
	return &record, nil
}
