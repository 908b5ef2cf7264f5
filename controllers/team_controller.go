package controller

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"teamnest/models"
	"teamnest/utils"
)

type TeamController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTeamController(db *gorm.DB, logger *log.Logger) *TeamController {
	return &TeamController{
		DB:     db,
		Logger: logger,
	}
}

type CreateTeamRequest struct {
	Name        string                 `json:"name" validate:"required,max=100"`
	Slug        string                 `json:"slug" validate:"omitempty,max=100"`
	Description string                 `json:"description" validate:"omitempty,max=500"`
	Settings    map[string]interface{} `json:"settings"`
}

type UpdateTeamRequest struct {
	Name        *string                `json:"name" validate:"omitempty,max=100"`
	Description *string                `json:"description" validate:"omitempty,max=500"`
	Settings    map[string]interface{} `json:"settings"`
}

type MemberRequest struct {
	UserID uint   `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"omitempty,oneof=admin member viewer"`
}

type MemberRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member viewer"`
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTeamRequest
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

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}

	settings := req.Settings
	if settings == nil {
		settings = map[string]interface{}{
			"allow_invitations": true,
			"visibility":        "private",
		}
	}

	team := models.Team{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		OwnerID:     user.ID,
		Settings:    datatypes.JSONMap(settings),
	}

	if err := tc.DB.Create(&team).Error; err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "A team with this slug already exists",
			})
		}
		tc.Logger.Printf("failed to create team: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create team",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(team))
}

// ListTeams returns every team the caller belongs to, joined teams
// first, then owned ones.
func (tc *TeamController) ListTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teams, err := user.AllTeams(tc.DB)
	if err != nil {
		tc.Logger.Printf("failed to list teams for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list teams",
		})
	}

	return c.JSON(utils.SuccessResponse(teams))
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !tc.requirePermission(c, team, user, models.PermissionViewTeam) {
		return nil
	}

	return c.JSON(utils.SuccessResponse(team))
}

func (tc *TeamController) UpdateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !tc.requirePermission(c, team, user, models.PermissionManageTeam) {
		return nil
	}

	var req UpdateTeamRequest
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
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Settings != nil {
		updates["settings"] = datatypes.JSONMap(req.Settings)
	}

	if len(updates) > 0 {
		if err := tc.DB.Model(team).Updates(updates).Error; err != nil {
			tc.Logger.Printf("failed to update team %d: %v", team.ID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to update team",
			})
		}
	}

	return c.JSON(utils.SuccessResponse(team))
}

// DeleteTeam removes the team with its tasks, memberships and
// invitations. Owner only.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !user.OwnsTeam(team) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Only the team owner can delete a team",
		})
	}

	if err := team.Delete(tc.DB); err != nil {
		tc.Logger.Printf("failed to delete team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete team",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Team deleted",
	})
}

func (tc *TeamController) SwitchTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if err := user.SwitchTeam(tc.DB, team); err != nil {
		if errors.Is(err, models.ErrNotTeamMember) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "User does not belong to this team",
			})
		}
		tc.Logger.Printf("failed to switch team for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to switch team",
		})
	}

	return c.JSON(utils.SuccessResponse(team))
}

// ListMembers returns the owner (derived, no membership record) followed
// by the explicit members.
func (tc *TeamController) ListMembers(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !tc.requirePermission(c, team, user, models.PermissionViewTeam) {
		return nil
	}

	var owner models.User
	if err := tc.DB.First(&owner, team.OwnerID).Error; err != nil {
		tc.Logger.Printf("failed to load owner of team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list members",
		})
	}

	var members []models.TeamMember
	if err := tc.DB.Preload("User").Where("team_id = ?", team.ID).Find(&members).Error; err != nil {
		tc.Logger.Printf("failed to list members of team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list members",
		})
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"owner":   fiber.Map{"user": owner, "role": models.RoleOwner},
		"members": members,
	}))
}

func (tc *TeamController) AddMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !tc.requirePermission(c, team, user, models.PermissionManageMembers) {
		return nil
	}

	var req MemberRequest
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

	var target models.User
	if err := tc.DB.First(&target, req.UserID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if target.ID == team.OwnerID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "The owner is already a member of the team",
		})
	}

	member, err := team.AddMember(tc.DB, &target, models.TeamRole(req.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already a member of this team",
			})
		}
		tc.Logger.Printf("failed to add member to team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add member",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(member))
}

func (tc *TeamController) RemoveMember(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !tc.requirePermission(c, team, user, models.PermissionManageMembers) {
		return nil
	}

	targetID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	target := models.User{ID: uint(targetID)}
	if err := team.RemoveMember(tc.DB, &target); err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Team member not found",
			})
		}
		tc.Logger.Printf("failed to remove member from team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to remove member",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member removed",
	})
}

// UpdateMemberRole changes an existing membership record's role. The
// owner has no record, so pointing this at the owner yields a 404.
func (tc *TeamController) UpdateMemberRole(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := tc.fetchTeam(c)
	if !ok {
		return nil
	}

	if !tc.requirePermission(c, team, user, models.PermissionManageMembers) {
		return nil
	}

	targetID, err := c.ParamsInt("userID")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var req MemberRoleRequest
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

	target := models.User{ID: uint(targetID)}
	if err := team.UpdateMemberRole(tc.DB, &target, models.TeamRole(req.Role)); err != nil {
		if errors.Is(err, models.ErrMemberNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Team member not found",
			})
		}
		tc.Logger.Printf("failed to update member role in team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update member role",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Member role updated",
	})
}

// fetchTeam loads the team addressed by the :id route param. On failure
// it writes the error response and reports ok=false; the caller must
// stop and return nil.
//
// Ctx.JSON returns nil on success, so the write result cannot serve as
// a short-circuit signal.
func (tc *TeamController) fetchTeam(c *fiber.Ctx) (*models.Team, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team id",
		})
		return nil, false
	}

	var team models.Team
	if err := tc.DB.First(&team, id).Error; err != nil {
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

// requirePermission reports whether the caller's role in the team grants
// the permission. A 403 has already been written when it returns false.
func (tc *TeamController) requirePermission(c *fiber.Ctx, team *models.Team, user *models.User, permission string) bool {
	return requireTeamPermission(c, tc.DB, team, user, permission)
}

func requireTeamPermission(c *fiber.Ctx, db *gorm.DB, team *models.Team, user *models.User, permission string) bool {
	role, err := team.UserRole(db, user)
	if err != nil {
		_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve team role",
		})
		return false
	}
	if role == "" || !role.HasPermission(permission) {
		_ = c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You do not have permission to perform this action",
		})
		return false
	}
	return true
}

// isUniqueViolation matches unique-index errors across postgres
// ("duplicate key value") and sqlite ("UNIQUE constraint failed").
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
