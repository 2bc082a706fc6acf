package analytics

import (
	"sort"
	"time"

	"github.com/yukikurage/taskflow-api/internal/models"
)

// Options tunes Aggregate.
type Options struct {
	// IncludeUnassigned adds an UnassignedLabel row to AssigneePerformance
	// for tasks that have no assignees.
	IncludeUnassigned bool
}

// NameValue is one bucket of a distribution.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// AssigneeStat is the per-user rollup. A task with several assignees counts
// once for each of them.
type AssigneeStat struct {
	UserID         uint64 `json:"userId"`
	Name           string `json:"name"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	Overdue        int    `json:"overdue"`
	CompletionRate int    `json:"completionRate"`
}

// Pending is work that is neither completed nor overdue.
func (s AssigneeStat) Pending() int {
	if p := s.Total - s.Completed - s.Overdue; p > 0 {
		return p
	}
	return 0
}

// TeamStat is the per-team rollup.
type TeamStat struct {
	TeamID         uint64 `json:"teamId"`
	Name           string `json:"name"`
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	InProgress     int    `json:"inProgress"`
	Overdue        int    `json:"overdue"`
	CompletionRate int    `json:"completionRate"`
}

// Snapshot is the derived analytics view of a task list at one instant.
type Snapshot struct {
	TotalTasks           int            `json:"totalTasks"`
	CompletedTasks       int            `json:"completedTasks"`
	InProgressTasks      int            `json:"inProgressTasks"`
	OverdueTasks         int            `json:"overdueTasks"`
	CompletionRate       int            `json:"completionRate"`
	StatusDistribution   []NameValue    `json:"statusDistribution"`
	PriorityDistribution []NameValue    `json:"priorityDistribution"`
	TeamDistribution     []NameValue    `json:"teamDistribution"`
	AssigneePerformance  []AssigneeStat `json:"assigneePerformance"`
	TeamPerformance      []TeamStat     `json:"teamPerformance"`
	GeneratedAt          time.Time      `json:"generatedAt"`
}

// Aggregate computes the snapshot for tasks as of now.
func Aggregate(tasks []models.Task, now time.Time, opts Options) Snapshot {
	snap := Snapshot{
		TotalTasks:  len(tasks),
		GeneratedAt: now,
	}

	statusCounts := make(map[models.TaskStatus]int)
	priorityCounts := make(map[models.TaskPriority]int)
	teams := make(map[uint64]*TeamStat)
	assignees := make(map[uint64]*AssigneeStat)
	var unassigned *AssigneeStat

	for _, task := range tasks {
		done := task.Status == models.TaskStatusDone
		overdue := IsOverdue(task, now)

		switch {
		case done:
			snap.CompletedTasks++
		case task.Status == models.TaskStatusInProgress:
			snap.InProgressTasks++
		}
		if overdue {
			snap.OverdueTasks++
		}

		statusCounts[task.Status]++
		priorityCounts[task.Priority]++

		team := teamBucket(teams, task)
		team.Total++
		if done {
			team.Completed++
		}
		if task.Status == models.TaskStatusInProgress {
			team.InProgress++
		}
		if overdue {
			team.Overdue++
		}

		if len(task.Assignments) == 0 {
			if !opts.IncludeUnassigned {
				continue
			}
			if unassigned == nil {
				unassigned = &AssigneeStat{Name: UnassignedLabel}
			}
			accumulate(unassigned, done, overdue)
			continue
		}

		for _, a := range task.Assignments {
			stat, ok := assignees[a.UserID]
			if !ok {
				u := a.User
				if u.ID == 0 {
					u.ID = a.UserID
				}
				stat = &AssigneeStat{UserID: a.UserID, Name: UserName(u)}
				assignees[a.UserID] = stat
			}
			accumulate(stat, done, overdue)
		}
	}

	snap.CompletionRate = Percent(snap.CompletedTasks, snap.TotalTasks)
	snap.StatusDistribution = statusDistribution(statusCounts)
	snap.PriorityDistribution = priorityDistribution(priorityCounts)
	snap.TeamPerformance = teamPerformance(teams)
	snap.TeamDistribution = teamDistribution(snap.TeamPerformance)
	snap.AssigneePerformance = assigneePerformance(assignees, unassigned)

	return snap
}

func accumulate(stat *AssigneeStat, done, overdue bool) {
	stat.Total++
	if done {
		stat.Completed++
	}
	if overdue {
		stat.Overdue++
	}
}

// teamBucket keys tasks by team ID. Tasks whose team is missing or has a
// blank name all share the single NoTeamLabel bucket under ID 0.
func teamBucket(teams map[uint64]*TeamStat, task models.Task) *TeamStat {
	var id uint64
	name := TeamName(task)
	if name != NoTeamLabel && task.Team != nil {
		id = task.Team.ID
	}
	stat, ok := teams[id]
	if !ok {
		if id == 0 {
			name = NoTeamLabel
		}
		stat = &TeamStat{TeamID: id, Name: name}
		teams[id] = stat
	}
	return stat
}

func statusDistribution(counts map[models.TaskStatus]int) []NameValue {
	dist := make([]NameValue, 0, len(counts))
	for _, s := range models.TaskStatuses {
		if n := counts[s]; n > 0 {
			dist = append(dist, NameValue{Name: s.Label(), Value: n})
			delete(counts, s)
		}
	}
	// Values outside the enum only appear in hand-edited rows.
	extra := make([]NameValue, 0, len(counts))
	for s, n := range counts {
		extra = append(extra, NameValue{Name: s.Label(), Value: n})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
	return append(dist, extra...)
}

func priorityDistribution(counts map[models.TaskPriority]int) []NameValue {
	dist := make([]NameValue, 0, len(counts))
	for _, p := range models.TaskPriorities {
		if n := counts[p]; n > 0 {
			dist = append(dist, NameValue{Name: p.Label(), Value: n})
			delete(counts, p)
		}
	}
	extra := make([]NameValue, 0, len(counts))
	for p, n := range counts {
		extra = append(extra, NameValue{Name: p.Label(), Value: n})
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })
	return append(dist, extra...)
}

func teamPerformance(teams map[uint64]*TeamStat) []TeamStat {
	out := make([]TeamStat, 0, len(teams))
	for _, t := range teams {
		t.CompletionRate = Percent(t.Completed, t.Total)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func teamDistribution(perf []TeamStat) []NameValue {
	dist := make([]NameValue, len(perf))
	for i, t := range perf {
		dist[i] = NameValue{Name: t.Name, Value: t.Total}
	}
	return dist
}

func assigneePerformance(assignees map[uint64]*AssigneeStat, unassigned *AssigneeStat) []AssigneeStat {
	out := make([]AssigneeStat, 0, len(assignees)+1)
	for _, a := range assignees {
		a.CompletionRate = Percent(a.Completed, a.Total)
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Name < out[j].Name
	})
	if unassigned != nil {
		unassigned.CompletionRate = Percent(unassigned.Completed, unassigned.Total)
		out = append(out, *unassigned)
	}
	return out
}

// OverdueTasks returns the overdue subset of tasks, most overdue first.
func OverdueTasks(tasks []models.Task, now time.Time) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if IsOverdue(t, now) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(*out[j].DueDate)
	})
	return out
}
