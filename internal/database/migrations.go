package database

import (
	"fmt"

	"github.com/yukikurage/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// compositeIndexes are the multi-column indexes the report and change log
// queries rely on. Single-column indexes are declared on the models.
var compositeIndexes = []struct {
	model interface{}
	name  string
	sql   string
}{
	{&models.Task{}, "idx_tasks_team_status", "CREATE INDEX idx_tasks_team_status ON tasks (team_id, status)"},
	{&models.Task{}, "idx_tasks_status_due", "CREATE INDEX idx_tasks_status_due ON tasks (status, due_date)"},
	{&models.Notification{}, "idx_notifications_user_read", "CREATE INDEX idx_notifications_user_read ON notifications (user_id, is_read)"},
	{&models.ChangeLog{}, "idx_change_logs_type_created", "CREATE INDEX idx_change_logs_type_created ON change_logs (event_type, created_at)"},
}

// AddIndexes creates the composite indexes that do not exist yet.
func AddIndexes(db *gorm.DB) error {
	migrator := db.Migrator()
	for _, idx := range compositeIndexes {
		if migrator.HasIndex(idx.model, idx.name) {
			continue
		}

		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}
	return nil
}
