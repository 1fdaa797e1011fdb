// File: careai/handlers/member.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"careai/models"
	"careai/services/appointment"
	"careai/services/conversation"
	"careai/utils"
)

// StartSession creates a new conversation session for a member.
func (hb *HandlerBundle) StartSession(c *gin.Context) {
	var input struct {
		User models.UserProfile `json:"user"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.User.ID == "" {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "user.id is required")
		return
	}

	view, err := hb.Conversation.StartSession(c.Request.Context(), input.User)
	if err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to start session", err.Error())
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetSession returns the current session view.
func (hb *HandlerBundle) GetSession(c *gin.Context) {
	view, err := hb.Conversation.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SendMessage handles a free-text member turn.
func (hb *HandlerBundle) SendMessage(c *gin.Context) {
	var input struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	view, err := hb.Conversation.HandleFreeText(c.Request.Context(), c.Param("id"), input.Text)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectIntent handles a root-menu selection.
func (hb *HandlerBundle) SelectIntent(c *gin.Context) {
	var input struct {
		Intent string `json:"intent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	view, err := hb.Conversation.HandleIntent(c.Request.Context(), c.Param("id"), input.Intent)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SelectSubIntent handles a sub-menu selection.
func (hb *HandlerBundle) SelectSubIntent(c *gin.Context) {
	var input struct {
		SubIntent string `json:"subIntent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	view, err := hb.Conversation.HandleSubIntent(c.Request.Context(), c.Param("id"), input.SubIntent)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Navigate handles the Main Menu / Go Back affordances.
func (hb *HandlerBundle) Navigate(c *gin.Context) {
	var input struct {
		Intent string `json:"intent" binding:"required"` // goBack | mainMenu
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	view, err := hb.Conversation.Navigate(c.Request.Context(), c.Param("id"), input.Intent)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AppointmentSelect books one of the offered slots.
func (hb *HandlerBundle) AppointmentSelect(c *gin.Context) {
	var input struct {
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	view, err := hb.Conversation.SelectSlot(c.Request.Context(), c.Param("id"), input.Time)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AppointmentNewDate asks for alternative dates.
func (hb *HandlerBundle) AppointmentNewDate(c *gin.Context) {
	view, err := hb.Conversation.ChooseAnotherDate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AppointmentReminder picks the reminder channel.
func (hb *HandlerBundle) AppointmentReminder(c *gin.Context) {
	var input struct {
		Preference models.ReminderPreference `json:"preference" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Preference != models.ReminderMobile && input.Preference != models.ReminderEmail {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "preference must be mobile or email")
		return
	}

	view, err := hb.Conversation.ChooseReminder(c.Request.Context(), c.Param("id"), input.Preference)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AppointmentConfirmContact answers the reminder contact confirmation.
func (hb *HandlerBundle) AppointmentConfirmContact(c *gin.Context) {
	var input struct {
		Confirmed *bool `json:"confirmed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	view, err := hb.Conversation.ConfirmContact(c.Request.Context(), c.Param("id"), *input.Confirmed)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EndSession archives the chat and opens the feedback window.
func (hb *HandlerBundle) EndSession(c *gin.Context) {
	view, err := hb.Conversation.EndSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitFeedback stores the post-chat ratings and discards the session.
func (hb *HandlerBundle) SubmitFeedback(c *gin.Context) {
	var fb models.PostChatFeedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}

	if err := hb.Conversation.SubmitFeedback(c.Request.Context(), c.Param("id"), fb); err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MessageFeedback records a thumbs rating on one message.
func (hb *HandlerBundle) MessageFeedback(c *gin.Context) {
	var input struct {
		Feedback models.MessageFeedback `json:"feedback" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if input.Feedback != models.FeedbackUp && input.Feedback != models.FeedbackDown {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", "feedback must be up or down")
		return
	}

	view, err := hb.Conversation.MessageFeedback(c.Request.Context(), c.Param("id"), c.Param("msgID"), input.Feedback)
	if err != nil {
		respondConversationError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func respondConversationError(c *gin.Context, err error) {
	var notFound *conversation.SessionNotFoundError
	var busy *conversation.BusyError
	var badStage *appointment.InvalidStageError
	var badSlot *appointment.UnknownSlotError

	switch {
	case errors.As(err, &notFound):
		utils.JSONError(c, http.StatusNotFound, "session not found", err.Error())
	case errors.As(err, &busy):
		utils.JSONError(c, http.StatusConflict, "session busy", err.Error())
	case errors.As(err, &badStage), errors.As(err, &badSlot):
		utils.JSONError(c, http.StatusBadRequest, "invalid appointment action", err.Error())
	default:
		getLogger(c).Error("Member request failed", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
