package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/taskflow-api/internal/models"
)

type AIService struct {
	client *openai.Client
	now    func() time.Time
}

// GeneratedTask is a task drafted by the model. Drafts are returned to the
// caller for review and never stored directly.
type GeneratedTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
		now:    time.Now,
	}
}

const taskExtractionPrompt = `You are a task extraction assistant for a team task tracker. Extract concrete, actionable tasks from the text below.

Current time: %s

Text:
%s

Respond with a JSON array of tasks in this format:
[
  {
    "title": "short task title",
    "description": "details of the task",
    "priority": "one of low, medium, high, urgent",
    "due_date": "deadline in ISO8601, e.g. 2025-10-28T23:59:59Z, or null when none is stated"
  }
]

Rules:
- Return an empty array [] when the text contains no tasks
- Convert relative deadlines such as "tomorrow" or "next week" to absolute timestamps
- due_date must be an ISO8601 string or null
- Return only JSON with no commentary`

// GenerateTasksFromText analyzes text and extracts tasks using OpenAI GPT
func (s *AIService) GenerateTasksFromText(ctx context.Context, text string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	currentTime := s.now().Format("2006-01-02 15:04:05")
	prompt := fmt.Sprintf(taskExtractionPrompt, currentTime, text)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseGeneratedTasks(resp.Choices[0].Message.Content)
}

// parseGeneratedTasks decodes the model output, tolerating a fenced code block.
func parseGeneratedTasks(content string) ([]GeneratedTask, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	for i := range tasks {
		tasks[i].Priority = models.TaskPriority(strings.ToLower(string(tasks[i].Priority)))
	}

	return tasks, nil
}
