package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nitish151/stock-market-simulator/internal/database"
)

// MaintenanceJob checkpoints the databases and runs the backup cycle.
type MaintenanceJob struct {
	databases []*database.DB
	backups   *BackupService
	keep      int
	log       zerolog.Logger
}

// NewMaintenanceJob creates the maintenance job. backups may be nil when
// no backup bucket is configured.
func NewMaintenanceJob(databases []*database.DB, backups *BackupService, keep int, log zerolog.Logger) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		backups:   backups,
		keep:      keep,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for the scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance cycle
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	for _, db := range j.databases {
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			// Not fatal, the next checkpoint will catch up
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}

	if j.backups != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := j.backups.CreateAndUploadBackup(ctx); err != nil {
			return err
		}
		if err := j.backups.RotateOldBackups(ctx, j.keep); err != nil {
			j.log.Error().Err(err).Msg("Backup rotation failed")
		}
	}

	j.log.Info().Dur("duration_ms", time.Since(startTime)).Msg("Maintenance completed")
	return nil
}
