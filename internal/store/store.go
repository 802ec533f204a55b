package store

import (
	"context"

	"tasktracker/internal/models"
)

// Store defines the task tracker operations shared by the in-memory and
// file-backed implementations.
type Store interface {
	// Task operations
	AddTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context) ([]models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id int64) error
	DeleteAllTasks(ctx context.Context) error

	// Epic operations
	AddEpic(ctx context.Context, epic *models.Task) error
	GetEpic(ctx context.Context, id int64) (*models.Task, error)
	ListEpics(ctx context.Context) ([]models.Task, error)
	ListEpicSubtasks(ctx context.Context, epicID int64) ([]models.Task, error)
	UpdateEpic(ctx context.Context, epic *models.Task) error
	DeleteEpic(ctx context.Context, id int64) error
	DeleteAllEpics(ctx context.Context) error

	// Subtask operations
	AddSubtask(ctx context.Context, subtask *models.Task) error
	GetSubtask(ctx context.Context, id int64) (*models.Task, error)
	ListSubtasks(ctx context.Context) ([]models.Task, error)
	UpdateSubtask(ctx context.Context, subtask *models.Task) error
	DeleteSubtask(ctx context.Context, id int64) error
	DeleteAllSubtasks(ctx context.Context) error

	// History returns the viewed entities, oldest view first.
	History(ctx context.Context) ([]models.Task, error)
}
