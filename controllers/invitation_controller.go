package controller

import (
	"errors"
	"log"

	"github.com/badoux/checkmail"
	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"teamnest/models"
	"teamnest/utils"
)

type InvitationController struct {
	DB     *gorm.DB
	Logger *log.Logger
	Mailer utils.InvitationMailer
}

func NewInvitationController(db *gorm.DB, logger *log.Logger, mailer utils.InvitationMailer) *InvitationController {
	return &InvitationController{
		DB:     db,
		Logger: logger,
		Mailer: mailer,
	}
}

type CreateInvitationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member viewer"`
}

// CreateInvitation issues a tokenized, time-limited invitation and
// emails it to the invitee. Owner invitations cannot be created; the
// owner role only ever derives from teams.owner_id.
func (ic *InvitationController) CreateInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := ic.fetchTeam(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, ic.DB, team, user, models.PermissionManageMembers) {
		return nil
	}

	if allow, ok := team.Settings["allow_invitations"].(bool); ok && !allow {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This team does not accept invitations",
		})
	}

	var req CreateInvitationRequest
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
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid email address",
		})
	}

	// Reject when the address already belongs to a team member
	var invitee models.User
	if err := ic.DB.Where("email = ?", req.Email).First(&invitee).Error; err == nil {
		hasUser, err := team.HasUser(ic.DB, &invitee)
		if err == nil && hasUser {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already a member of this team",
			})
		}
	}

	// One pending invitation per address per team
	var pending int64
	ic.DB.Model(&models.TeamInvitation{}).
		Where("team_id = ? AND email = ?", team.ID, req.Email).
		Count(&pending)
	if pending > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "An invitation for this email is already pending",
		})
	}

	invitation := models.TeamInvitation{
		TeamID:    team.ID,
		Email:     req.Email,
		Role:      models.TeamRole(req.Role),
		InvitedBy: user.ID,
	}
	if invitation.Role == "" {
		invitation.Role = models.RoleMember
	}

	if err := ic.DB.Create(&invitation).Error; err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "An invitation for this email is already pending",
			})
		}
		ic.Logger.Printf("failed to create invitation for team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create invitation",
		})
	}

	// Delivery failure does not fail invitation creation; the token can
	// still be shared out of band.
	if ic.Mailer != nil {
		if err := ic.Mailer.SendInvitationEmail(&invitation, team, user); err != nil {
			logrus.WithFields(logrus.Fields{
				"team_id":       team.ID,
				"invitation_id": invitation.ID,
				"email":         req.Email,
			}).WithError(err).Warn("failed to send invitation email")
			sentry.CaptureException(err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(invitation))
}

// ListInvitations returns the team's pending invitations. Expired ones
// are still rows, so they show up flagged.
func (ic *InvitationController) ListInvitations(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	team, ok := ic.fetchTeam(c)
	if !ok {
		return nil
	}

	if !requireTeamPermission(c, ic.DB, team, user, models.PermissionManageMembers) {
		return nil
	}

	var invitations []models.TeamInvitation
	if err := ic.DB.Where("team_id = ?", team.ID).Find(&invitations).Error; err != nil {
		ic.Logger.Printf("failed to list invitations for team %d: %v", team.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list invitations",
		})
	}

	type invitationView struct {
		models.TeamInvitation
		Expired bool `json:"expired"`
	}
	views := make([]invitationView, 0, len(invitations))
	for _, inv := range invitations {
		views = append(views, invitationView{TeamInvitation: inv, Expired: inv.IsExpired()})
	}

	return c.JSON(utils.SuccessResponse(views))
}

// AcceptInvitation joins the caller to the invitation's team and
// consumes the invitation. The token alone names the invitation; the
// caller must also be logged in as the invited address.
func (ic *InvitationController) AcceptInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	invitation, ok := ic.fetchInvitation(c)
	if !ok {
		return nil
	}

	if invitation.Email != user.Email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invitation was sent to a different email address",
		})
	}

	if err := invitation.Accept(ic.DB, user); err != nil {
		if errors.Is(err, models.ErrInvitationExpired) {
			return c.Status(fiber.StatusGone).JSON(fiber.Map{
				"error": "This invitation has expired",
			})
		}
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "User is already a member of this team",
			})
		}
		ic.Logger.Printf("failed to accept invitation %d: %v", invitation.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to accept invitation",
		})
	}

	var team models.Team
	if err := ic.DB.First(&team, invitation.TeamID).Error; err != nil {
		return c.JSON(fiber.Map{"message": "Invitation accepted"})
	}

	return c.JSON(utils.SuccessResponse(team))
}

// RejectInvitation deletes the invitation unconditionally, expired or
// not.
func (ic *InvitationController) RejectInvitation(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	invitation, ok := ic.fetchInvitation(c)
	if !ok {
		return nil
	}

	if invitation.Email != user.Email {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "This invitation was sent to a different email address",
		})
	}

	if err := invitation.Reject(ic.DB); err != nil {
		ic.Logger.Printf("failed to reject invitation %d: %v", invitation.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to reject invitation",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Invitation rejected",
	})
}

// fetchTeam loads the team addressed by :id, writing the error response
// and reporting ok=false when it cannot.
func (ic *InvitationController) fetchTeam(c *fiber.Ctx) (*models.Team, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid team id",
		})
		return nil, false
	}

	var team models.Team
	if err := ic.DB.First(&team, id).Error; err != nil {
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

// fetchInvitation loads the invitation addressed by :token, writing the
// error response and reporting ok=false when it cannot.
func (ic *InvitationController) fetchInvitation(c *fiber.Ctx) (*models.TeamInvitation, bool) {
	token := c.Params("token")
	if token == "" {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid invitation token",
		})
		return nil, false
	}

	var invitation models.TeamInvitation
	if err := ic.DB.Where("token = ?", token).First(&invitation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Invitation not found",
			})
		} else {
			_ = c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to load invitation",
			})
		}
		return nil, false
	}

	return &invitation, true
}
