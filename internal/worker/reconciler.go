package worker

import (
	"time"

	"github.com/draworld/draworld-backend/internal/metrics"
	"github.com/draworld/draworld-backend/internal/models"
	"github.com/draworld/draworld-backend/pkg/logger"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reconcileBatchSize = 500

// Reconciler periodically re-derives every balance from the ledger and
// reports accounts where the cached credits field has drifted. Every write
// path updates both in one transaction, so any hit here means a bug or
// manual data surgery.
type Reconciler struct {
	db      *gorm.DB
	metrics *metrics.Metrics
}

func NewReconciler(db *gorm.DB, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		db:      db,
		metrics: m,
	}
}

// Start schedules the audit. The scheduler owns its own goroutines; callers
// just fire and forget.
func (r *Reconciler) Start(interval time.Duration) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		logger.L().Error("reconciler scheduler init failed", zap.Error(err))
		return
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.Run),
	)
	if err != nil {
		logger.L().Error("reconciler job registration failed", zap.Error(err))
		return
	}

	sched.Start()
}

// Run performs one full audit pass.
func (r *Reconciler) Run() {
	var lastID uint
	var checked, drifted int

	for {
		var users []models.User
		err := r.db.Where("id > ?", lastID).
			Order("id").
			Limit(reconcileBatchSize).
			Find(&users).Error
		if err != nil {
			logger.L().Error("reconciler user scan failed", zap.Error(err))
			return
		}
		if len(users) == 0 {
			break
		}

		for _, user := range users {
			var ledgerSum int64
			err := r.db.Model(&models.CreditTransaction{}).
				Where("user_id = ?", user.ID).
				Select("COALESCE(SUM(amount), 0)").
				Scan(&ledgerSum).Error
			if err != nil {
				logger.L().Error("reconciler ledger sum failed",
					zap.Uint("user_id", user.ID), zap.Error(err))
				continue
			}

			checked++
			if int(ledgerSum) != user.Credits {
				drifted++
				if r.metrics != nil {
					r.metrics.LedgerDrift.Inc()
				}
				logger.L().Error("balance does not match ledger",
					zap.Uint("user_id", user.ID),
					zap.Int("credits", user.Credits),
					zap.Int64("ledger_sum", ledgerSum))
			}
		}

		lastID = users[len(users)-1].ID
	}

	logger.L().Info("ledger reconciliation finished",
		zap.Int("accounts_checked", checked),
		zap.Int("accounts_drifted", drifted))
}
