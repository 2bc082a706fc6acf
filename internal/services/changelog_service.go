package services

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"github.com/yukikurage/taskflow-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var ErrInvalidRetention = errors.New("retention must be at least one day")

// ChangeLogService records and queries the audit trail.
type ChangeLogService struct {
	repo repository.ChangeLogRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewChangeLogService(repo repository.ChangeLogRepository, log *zap.Logger) *ChangeLogService {
	return &ChangeLogService{repo: repo, log: log, now: time.Now}
}

// Entry is a change to record.
type Entry struct {
	EventType   string
	TargetType  string
	TargetID    *uint64
	Description string
	Details     map[string]interface{}
}

// Record stores an entry. Audit failures are logged and never fail the
// operation being audited.
func (s *ChangeLogService) Record(actor Actor, e Entry) {
	if s == nil {
		return
	}

	entry := &models.ChangeLog{
		EventType:   e.EventType,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		ActorID:     actor.actorID(),
		Description: e.Description,
		IPAddress:   actor.IP,
	}
	if len(e.Details) > 0 {
		raw, err := json.Marshal(e.Details)
		if err != nil {
			s.log.Warn("Failed to encode change log details", zap.String("event_type", e.EventType), zap.Error(err))
		} else {
			entry.Details = datatypes.JSON(raw)
		}
	}

	if err := s.repo.Create(entry); err != nil {
		s.log.Error("Failed to record change log entry",
			zap.String("event_type", e.EventType),
			zap.Error(err))
	}
}

// ChangeLogPage is one page of entries.
type ChangeLogPage struct {
	Logs       []models.ChangeLog `json:"logs"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"totalPages"`
	Page       int                `json:"page"`
}

func (s *ChangeLogService) List(filter repository.ChangeLogFilter) (*ChangeLogPage, error) {
	logs, total, err := s.repo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list change logs: %w", err)
	}
	if logs == nil {
		logs = []models.ChangeLog{}
	}
	return &ChangeLogPage{
		Logs:       logs,
		Total:      total,
		TotalPages: utils.TotalPages(total, filter.PageSize),
		Page:       filter.Page,
	}, nil
}

// ChangeLogStats summarizes the audit trail.
type ChangeLogStats struct {
	Total       int64                       `json:"total"`
	ByEventType []repository.EventTypeCount `json:"by_event_type"`
	TopUsers    []repository.ActorCount     `json:"top_users"`
}

func (s *ChangeLogService) Stats() (*ChangeLogStats, error) {
	total, err := s.repo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to count change logs: %w", err)
	}
	byType, err := s.repo.CountByEventType()
	if err != nil {
		return nil, fmt.Errorf("failed to group change logs: %w", err)
	}
	top, err := s.repo.TopActors(10)
	if err != nil {
		return nil, fmt.Errorf("failed to rank change log actors: %w", err)
	}
	if byType == nil {
		byType = []repository.EventTypeCount{}
	}
	if top == nil {
		top = []repository.ActorCount{}
	}
	return &ChangeLogStats{Total: total, ByEventType: byType, TopUsers: top}, nil
}

// EventTypes returns the default event types followed by any others present
// in the data, sorted.
func (s *ChangeLogService) EventTypes() ([]string, error) {
	present, err := s.repo.EventTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to list event types: %w", err)
	}

	seen := make(map[string]bool, len(models.DefaultEventTypes))
	types := make([]string, 0, len(models.DefaultEventTypes)+len(present))
	for _, t := range models.DefaultEventTypes {
		seen[t] = true
		types = append(types, t)
	}

	var extra []string
	for _, t := range present {
		if !seen[t] {
			seen[t] = true
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(types, extra...), nil
}

var csvHeader = []string{"Timestamp", "Event Type", "Target Type", "Target ID", "Actor", "Actor Email", "Description", "IP Address"}

// ExportCSV renders all matching entries as CSV and returns the data with a
// download filename.
func (s *ChangeLogService) ExportCSV(filter repository.ChangeLogFilter) ([]byte, string, error) {
	logs, err := s.repo.ListAll(filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load change logs: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, "", err
	}
	for _, l := range logs {
		targetID := ""
		if l.TargetID != nil {
			targetID = strconv.FormatUint(*l.TargetID, 10)
		}
		actor, email := "System", ""
		if l.Actor != nil {
			actor, email = l.Actor.FullName, l.Actor.Email
		}
		if err := w.Write([]string{
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.EventType,
			l.TargetType,
			targetID,
			actor,
			email,
			l.Description,
			l.IPAddress,
		}); err != nil {
			return nil, "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", fmt.Errorf("failed to write csv: %w", err)
	}

	filename := fmt.Sprintf("changelog-%d.csv", s.now().UnixMilli())
	return buf.Bytes(), filename, nil
}

// Clear deletes entries older than days and returns how many were removed.
func (s *ChangeLogService) Clear(days int) (int64, error) {
	if days < 1 {
		return 0, ErrInvalidRetention
	}
	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clear change logs: %w", err)
	}
	return deleted, nil
}
