package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/google/uuid"

	"taskboard/domain"
)

type tableClient interface {
	NewListEntitiesPager(options *aztables.ListEntitiesOptions) *runtime.Pager[aztables.ListEntitiesResponse]
	UpsertEntity(ctx context.Context, entity []byte, options *aztables.UpsertEntityOptions) (aztables.UpsertEntityResponse, error)
	DeleteEntity(ctx context.Context, partitionKey, rowKey string, options *aztables.DeleteEntityOptions) (aztables.DeleteEntityResponse, error)
}

type queueClient interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// Storage persists tasks in Azure Tables, one partition per project, and
// publishes every applied change to the changes queue.
type Storage struct {
	taskTable    tableClient
	changesQueue queueClient
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, changesQueue string) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	cq, err := azqueue.NewQueueClientFromConnectionString(connStr, changesQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return &Storage{taskTable: svc.NewClient(tasksTable), changesQueue: cq}, nil
}

const edmDateTime = "Edm.DateTime"

type entityKeys struct {
	PartitionKey string `json:"PartitionKey"`
	RowKey       string `json:"RowKey"`
}

type taskEntity struct {
	entityKeys
	Title         string `json:"Title"`
	Description   string `json:"Description,omitempty"`
	Status        string `json:"Status"`
	Priority      string `json:"Priority"`
	OwnerID       string `json:"OwnerId"`
	DueDate       string `json:"DueDate,omitempty"`
	Tags          string `json:"Tags,omitempty"`
	Prompts       string `json:"Prompts,omitempty"`
	OutputFormat  string `json:"OutputFormat,omitempty"`
	CreatedAt     string `json:"CreatedAt"`
	CreatedAtType string `json:"CreatedAt@odata.type"`
	UpdatedAt     string `json:"UpdatedAt"`
	UpdatedAtType string `json:"UpdatedAt@odata.type"`
}

func toEntity(t domain.Task) (taskEntity, error) {
	ent := taskEntity{
		entityKeys:    entityKeys{PartitionKey: t.ProjectID, RowKey: t.ID},
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		OwnerID:       t.OwnerID,
		OutputFormat:  string(t.OutputFormat),
		CreatedAt:     t.CreatedAt.UTC().Format(time.RFC3339Nano),
		CreatedAtType: edmDateTime,
		UpdatedAt:     t.UpdatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAtType: edmDateTime,
	}
	if t.DueDate != nil {
		ent.DueDate = t.DueDate.Format(domain.DueDateLayout)
	}
	if len(t.Tags) > 0 {
		raw, err := json.Marshal(t.Tags)
		if err != nil {
			return taskEntity{}, err
		}
		ent.Tags = string(raw)
	}
	if len(t.Prompts) > 0 {
		raw, err := json.Marshal(t.Prompts)
		if err != nil {
			return taskEntity{}, err
		}
		ent.Prompts = string(raw)
	}
	return ent, nil
}

func fromEntity(data []byte) (domain.Task, error) {
	var ent taskEntity
	if err := json.Unmarshal(data, &ent); err != nil {
		return domain.Task{}, err
	}
	t := domain.Task{
		ID:           ent.RowKey,
		ProjectID:    ent.PartitionKey,
		Title:        ent.Title,
		Description:  ent.Description,
		Status:       domain.Status(ent.Status),
		Priority:     domain.Priority(ent.Priority),
		OwnerID:      ent.OwnerID,
		OutputFormat: domain.OutputFormat(ent.OutputFormat),
	}
	if !t.Status.Valid() {
		t.Status = domain.DefaultStatus
	}
	if !t.Priority.Valid() {
		t.Priority = domain.DefaultPriority
	}
	if !t.OutputFormat.Valid() {
		t.OutputFormat = domain.DefaultOutputFormat
	}
	var err error
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, ent.CreatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s createdAt: %w", ent.RowKey, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, ent.UpdatedAt); err != nil {
		return domain.Task{}, fmt.Errorf("task %s updatedAt: %w", ent.RowKey, err)
	}
	if t.DueDate, err = domain.ParseDueDate(ent.DueDate); err != nil {
		return domain.Task{}, fmt.Errorf("task %s: %w", ent.RowKey, err)
	}
	if ent.Tags != "" {
		if err := json.Unmarshal([]byte(ent.Tags), &t.Tags); err != nil {
			return domain.Task{}, fmt.Errorf("task %s tags: %w", ent.RowKey, err)
		}
	}
	if ent.Prompts != "" {
		if err := json.Unmarshal([]byte(ent.Prompts), &t.Prompts); err != nil {
			return domain.Task{}, fmt.Errorf("task %s prompts: %w", ent.RowKey, err)
		}
	}
	return t, nil
}

func partitionFilter(projectID string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(projectID, "'", "''") + "'"
}

// LoadTasks retrieves all tasks of a project, newest first.
func (s *Storage) LoadTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	filter := partitionFilter(projectID)
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			t, err := fromEntity(e)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, t)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// SaveTask creates or replaces a task entity.
func (s *Storage) SaveTask(ctx context.Context, t domain.Task) error {
	ent, err := toEntity(t)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(ent)
	if err == nil {
		_, err = s.taskTable.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	}
	return err
}

// DeleteTask removes a task entity. Missing entities are not an error.
func (s *Storage) DeleteTask(ctx context.Context, projectID, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, projectID, id, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == 404 {
			return nil
		}
	}
	return err
}

// Apply persists a board change and then enqueues it on the changes queue.
func (s *Storage) Apply(ctx context.Context, change domain.Change) error {
	var err error
	switch change.Op {
	case domain.TaskCreated, domain.TaskUpdated:
		err = s.SaveTask(ctx, change.Task)
	case domain.TaskDeleted:
		err = s.DeleteTask(ctx, change.Task.ProjectID, change.Task.ID)
	default:
		return fmt.Errorf("unknown change op %q", change.Op)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", change.Op, change.Task.ID, err)
	}
	if s.changesQueue == nil {
		return nil
	}
	env := domain.ChangeEnvelope{ID: uuid.NewString(), Change: change}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if _, err := s.changesQueue.EnqueueMessage(ctx, string(data), nil); err != nil {
		return fmt.Errorf("enqueue change %s: %w", env.ID, err)
	}
	return nil
}
