package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/services"
	"github.com/ozan/classpoint/internal/middleware"
)

// SessionController handles class session endpoints
type SessionController struct {
	sessionService *services.SessionService
}

// NewSessionController creates a new SessionController
func NewSessionController(sessionService *services.SessionService) *SessionController {
	return &SessionController{
		sessionService: sessionService,
	}
}

// CreateSession schedules a session in a course
// @Summary Schedule a session
// @Description Creates a session with a generated meeting link in a course owned by the caller
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CreateSessionRequest true "Session information"
// @Success 201 {object} dto.APIResponse{data=models.Session} "Session created"
// @Failure 400 {object} dto.ErrorResponse "End time not after start time"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /courses/{id}/sessions [post]
func (c *SessionController) CreateSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	session, err := c.sessionService.CreateSession(ctx.Request.Context(), courseID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewResponse(session))
}

// GetCourseSessions lists a course's sessions
// @Summary List course sessions
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Session} "Sessions"
// @Failure 403 {object} dto.ErrorResponse "Caller may not view the course"
// @Router /courses/{id}/sessions [get]
func (c *SessionController) GetCourseSessions(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	sessions, err := c.sessionService.GetCourseSessions(ctx.Request.Context(), courseID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(sessions, len(sessions)))
}

// GetSession retrieves one session
// @Summary Get session details
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.Session} "Session"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (c *SessionController) GetSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	session, err := c.sessionService.GetSession(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(session))
}

// UpdateSession reschedules a session
// @Summary Update a session
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body dto.UpdateSessionRequest true "Session fields"
// @Success 200 {object} dto.APIResponse{data=models.Session} "Updated session"
// @Failure 400 {object} dto.ErrorResponse "End time not after start time or session completed"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /sessions/{id} [put]
func (c *SessionController) UpdateSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	session, err := c.sessionService.UpdateSession(ctx.Request.Context(), id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(session))
}

// CompleteSession ends a session
// @Summary Complete a session
// @Description Marks the session completed, stores the recording link and closes open attendance records
// @Tags sessions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Param request body dto.CompleteSessionRequest true "Optional recording URL"
// @Success 200 {object} dto.APIResponse{data=models.Session} "Completed session"
// @Failure 400 {object} dto.ErrorResponse "Session already completed"
// @Router /sessions/{id}/complete [post]
func (c *SessionController) CompleteSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.CompleteSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	session, err := c.sessionService.CompleteSession(ctx.Request.Context(), id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(session))
}

// DeleteSession removes a session and its attendance records
// @Summary Delete a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse "Session deleted"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /sessions/{id} [delete]
func (c *SessionController) DeleteSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.sessionService.DeleteSession(ctx.Request.Context(), id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Session deleted successfully"))
}

// JoinSession records the calling student joining a live session
// @Summary Join a session
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceRecord} "Attendance record"
// @Failure 400 {object} dto.ErrorResponse "Session completed or student not enrolled"
// @Router /sessions/{id}/join [post]
func (c *SessionController) JoinSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	record, err := c.sessionService.JoinSession(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(record))
}

// LeaveSession records the calling student leaving a live session
// @Summary Leave a session
// @Description Closes the caller's open attendance record; a no-op when none is open
// @Tags sessions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse "Attendance record or no-op message"
// @Router /sessions/{id}/leave [post]
func (c *SessionController) LeaveSession(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	record, err := c.sessionService.LeaveSession(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if record == nil {
		ctx.JSON(http.StatusOK, dto.NewMessageResponse("No open attendance record to close"))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(record))
}
