package controller

import (
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"teamnest/models"
	"teamnest/utils"
)

type TaskController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTaskController(db *gorm.DB, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:     db,
		Logger: logger,
	}
}

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	UserID      *uint   `json:"user_id"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	UserID      *uint   `json:"user_id"`
	Unassign    bool    `json:"unassign"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *string `json:"due_date"`
}

func (tkc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tkc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, tkc.DB, team, user, models.PermissionContribute) {
		return nil
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	task := models.Task{
		TeamID:      team.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatusPending,
		Priority:    models.TaskPriorityMedium,
	}

	if req.Priority != "" {
		task.Priority = models.TaskPriority(req.Priority)
	}

	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "due_date must be RFC3339",
			})
		}
		task.DueDate = &due
	}

	if req.UserID != nil {
		assignee, ok := tkc.resolveAssignee(c, team, *req.UserID)
		if !ok {
			return nil
		}
		task.UserID = &assignee.ID
	}

	if err := tkc.DB.Create(&task).Error; err != nil {
		tkc.Logger.Printf("failed to create task in team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create task",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(task))
}

// ListTasks returns the team's tasks, optionally narrowed by the
// status, priority, overdue and assignee query filters.
func (tkc *TaskController) ListTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tkc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, tkc.DB, team, user, models.PermissionViewTeam) {
		return nil
	}

	query := tkc.DB.Where("team_id = ?", team.ID)

	if status := c.Query("status"); status != "" {
		if !models.TaskStatus(status).IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown task status",
			})
		}
		query = query.Where("status = ?", status)
	}

	if priority := c.Query("priority"); priority != "" {
		if !models.TaskPriority(priority).IsValid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unknown task priority",
			})
		}
		query = query.Where("priority = ?", priority)
	}

	if c.QueryBool("overdue") {
		query = query.Scopes(models.ScopeOverdue)
	}

	if assignee := c.QueryInt("assignee"); assignee > 0 {
		query = query.Where("user_id = ?", assignee)
	}

	var tasks []models.Task
	if err := query.Order("id").Find(&tasks).Error; err != nil {
		tkc.Logger.Printf("failed to list tasks for team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list tasks",
		})
	}

	return c.JSON(utils.SuccessResponse(tasks))
}

func (tkc *TaskController) GetTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, team, ok := tkc.fetchTask(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, tkc.DB, team, user, models.PermissionViewTeam) {
		return nil
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"task":    task,
		"overdue": task.IsOverdue(),
	}))
}

func (tkc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, team, ok := tkc.fetchTask(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, tkc.DB, team, user, models.PermissionContribute) {
		return nil
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := utils.ValidateStruct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "due_date must be RFC3339",
			})
		}
		updates["due_date"] = due
	}
	if req.Unassign {
		updates["user_id"] = nil
	} else if req.UserID != nil {
		assignee, ok := tkc.resolveAssignee(c, team, *req.UserID)
		if !ok {
			return nil
		}
		updates["user_id"] = assignee.ID
	}

	if len(updates) > 0 {
		if err := tkc.DB.Model(task).Updates(updates).Error; err != nil {
			tkc.Logger.Printf("failed to update task %d: %v", task.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update task",
			})
		}
	}

	return c.JSON(utils.SuccessResponse(task))
}

func (tkc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, team, ok := tkc.fetchTask(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, tkc.DB, team, user, models.PermissionContribute) {
		return nil
	}

	if err := tkc.DB.Delete(task).Error; err != nil {
		tkc.Logger.Printf("failed to delete task %d: %v", task.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete task",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Task deleted",
	})
}

// CompleteTask marks the task completed and stamps completed_at.
// Calling it on an already-completed task just refreshes the stamp.
func (tkc *TaskController) CompleteTask(c *fiber.Ctx) error {
	return tkc.transition(c, func(task *models.Task) error {
		return task.MarkAsCompleted(tkc.DB)
	})
}

func (tkc *TaskController) StartTask(c *fiber.Ctx) error {
	return tkc.transition(c, func(task *models.Task) error {
		return task.MarkAsInProgress(tkc.DB)
	})
}

func (tkc *TaskController) CancelTask(c *fiber.Ctx) error {
	return tkc.transition(c, func(task *models.Task) error {
		return task.Cancel(tkc.DB)
	})
}

func (tkc *TaskController) transition(c *fiber.Ctx, op func(*models.Task) error) error {
	user := c.Locals("user").(*models.User)

	task, team, ok := tkc.fetchTask(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, tkc.DB, team, user, models.PermissionContribute) {
		return nil
	}

	if err := op(task); err != nil {
		tkc.Logger.Printf("failed to transition task %d: %v", task.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update task status",
		})
	}

	return c.JSON(utils.SuccessResponse(task))
}

// resolveAssignee ensures the assignee exists and is part of the team,
// writing the error response and reporting ok=false when not.
func (tkc *TaskController) resolveAssignee(c *fiber.Ctx, team *models.Team, userID uint) (*models.User, bool) {
	var assignee models.User
	if err := tkc.DB.First(&assignee, userID).Error; err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Assignee not found",
		})
		return nil, false
	}

	hasUser, err := team.HasUser(tkc.DB, &assignee)
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve assignee",
		})
		return nil, false
	}
	if !hasUser {
		_ = c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Assignee is not a member of this team",
		})
		return nil, false
	}

	return &assignee, true
}

func (tkc *TaskController) fetchTeam(c *fiber.Ctx) (*models.Team, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team id",
		})
		return nil, false
	}

	var team models.Team
	if err := tkc.DB.First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Team not found",
			})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load team",
			})
		}
		return nil, false
	}

	return &team, true
}

// fetchTask loads the task addressed by :taskID together with its team,
// writing the error response and reporting ok=false when it cannot.
func (tkc *TaskController) fetchTask(c *fiber.Ctx) (*models.Task, *models.Team, bool) {
	id, err := c.ParamsInt("taskID")
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid task id",
		})
		return nil, nil, false
	}

	var task models.Task
	if err := tkc.DB.First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Task not found",
			})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load task",
			})
		}
		return nil, nil, false
	}

	var team models.Team
	if err := tkc.DB.First(&team, task.TeamID).Error; err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load task's team",
		})
		return nil, nil, false
	}

	return &task, &team, true
}
