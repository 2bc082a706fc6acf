package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/models"
	"github.com/yukikurage/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrImportEmpty    = errors.New("the uploaded file contains no user rows")
	ErrImportTooLarge = fmt.Errorf("a single import is limited to %d rows", constants.MaxBulkImportRows)
	ErrImportFormat   = errors.New("the uploaded file is not a readable xlsx workbook")
)

const (
	importSheet        = "Users"
	ImportTemplateName = "taskflow-user-import-template.xlsx"
	importHeaderFull   = "Full Name"
	importHeaderEmail  = "Email"
	importHeaderRole   = "Role"
	importHeaderTeam   = "Team"
	importHeaderPasswd = "Password"
)

var importHeaders = []string{importHeaderFull, importHeaderEmail, importHeaderRole, importHeaderTeam, importHeaderPasswd}

// BulkImportService creates many users from an uploaded workbook.
type BulkImportService struct {
	users      *UserService
	teamRepo   repository.TeamRepository
	changeLogs *ChangeLogService
}

func NewBulkImportService(users *UserService, teamRepo repository.TeamRepository, changeLogs *ChangeLogService) *BulkImportService {
	return &BulkImportService{users: users, teamRepo: teamRepo, changeLogs: changeLogs}
}

// Template returns an xlsx workbook with the expected header row and one
// example line.
func (s *BulkImportService) Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", importSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]interface{}, len(importHeaders))
	for i, h := range importHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(importSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write template header: %w", err)
	}
	example := []interface{}{"Jane Doe", "jane.doe@example.com", string(models.RoleMember), "Platform", ""}
	if err := f.SetSheetRow(importSheet, "A2", &example); err != nil {
		return nil, fmt.Errorf("failed to write template example: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create template style: %w", err)
	}
	if err := f.SetCellStyle(importSheet, "A1", "E1", style); err != nil {
		return nil, fmt.Errorf("failed to style template header: %w", err)
	}
	if err := f.SetColWidth(importSheet, "A", "E", 26); err != nil {
		return nil, fmt.Errorf("failed to size template columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write template: %w", err)
	}
	return buf.Bytes(), nil
}

// ImportRowResult reports the outcome of one spreadsheet row.
type ImportRowResult struct {
	Row       int    `json:"row"`
	Email     string `json:"email"`
	Created   bool   `json:"created"`
	UserID    uint64 `json:"user_id,omitempty"`
	EmailSent bool   `json:"email_sent"`
	Error     string `json:"error,omitempty"`
}

// ImportResult summarizes an import.
type ImportResult struct {
	Total   int               `json:"total"`
	Created int               `json:"created"`
	Failed  int               `json:"failed"`
	Rows    []ImportRowResult `json:"rows"`
}

type importRow struct {
	line     int
	fullName string
	email    string
	role     string
	team     string
	password string
}

// Import reads the first sheet of r and creates a user per data row. A
// failing row is reported and does not stop the others.
func (s *BulkImportService) Import(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error) {
	rows, err := readImportRows(r)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Total: len(rows), Rows: make([]ImportRowResult, 0, len(rows))}
	teams := make(map[string]*uint64)

	for _, row := range rows {
		outcome := ImportRowResult{Row: row.line, Email: models.NormalizeEmail(row.email)}

		teamID, err := s.resolveTeam(teams, row.team)
		if err == nil {
			var created *CreateUserResult
			created, err = s.users.CreateUser(ctx, actor, CreateUserInput{
				FullName: row.fullName,
				Email:    row.email,
				Password: row.password,
				Role:     models.Role(strings.ToLower(strings.TrimSpace(row.role))),
				TeamID:   teamID,
			})
			if err == nil {
				outcome.Created = true
				outcome.UserID = created.User.ID
				outcome.EmailSent = created.EmailSent
			}
		}

		if err != nil {
			outcome.Error = err.Error()
			result.Failed++
		} else {
			result.Created++
		}
		result.Rows = append(result.Rows, outcome)
	}

	s.changeLogs.Record(actor, Entry{
		EventType:   models.EventBulkImport,
		TargetType:  models.TargetUser,
		Description: fmt.Sprintf("Imported %d of %d users", result.Created, result.Total),
		Details: map[string]interface{}{
			"total":   result.Total,
			"created": result.Created,
			"failed":  result.Failed,
		},
	})
	return result, nil
}

func (s *BulkImportService) resolveTeam(cache map[string]*uint64, name string) (*uint64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}

	team, err := s.teamRepo.FindByName(name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTeamNotFound, name)
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	id := team.ID
	cache[key] = &id
	return &id, nil
}

func readImportRows(r io.Reader) ([]importRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, ErrImportFormat
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportEmpty
	}
	raw, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, ErrImportFormat
	}
	if len(raw) < 2 {
		return nil, ErrImportEmpty
	}

	cols := make(map[string]int)
	for i, h := range raw[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cell := func(row []string, header string) string {
		i, ok := cols[strings.ToLower(header)]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rows := make([]importRow, 0, len(raw)-1)
	for i, row := range raw[1:] {
		parsed := importRow{
			line:     i + 2,
			fullName: cell(row, importHeaderFull),
			email:    cell(row, importHeaderEmail),
			role:     cell(row, importHeaderRole),
			team:     cell(row, importHeaderTeam),
			password: cell(row, importHeaderPasswd),
		}
		if parsed.fullName == "" && parsed.email == "" {
			continue
		}
		rows = append(rows, parsed)
	}

	if len(rows) == 0 {
		return nil, ErrImportEmpty
	}
	if len(rows) > constants.MaxBulkImportRows {
		return nil, ErrImportTooLarge
	}
	return rows, nil
}
