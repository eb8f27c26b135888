package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/services"
	"github.com/ozan/classpoint/internal/middleware"
)

// AttendanceController handles attendance ledger endpoints
type AttendanceController struct {
	attendanceService *services.AttendanceService
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService *services.AttendanceService) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
	}
}

// MarkAttendance marks a single student's attendance
// @Summary Mark attendance
// @Description Upserts one student's record for a session. Only the owning teacher may mark.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MarkAttendanceRequest true "Mark information"
// @Success 201 {object} dto.APIResponse{data=models.AttendanceRecord} "Persisted record"
// @Failure 400 {object} dto.ErrorResponse "Student not actively enrolled"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the session's course"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance [post]
func (c *AttendanceController) MarkAttendance(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	record, err := c.attendanceService.MarkAttendance(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewResponse(record))
}

// MarkBulkAttendance marks many students at once
// @Summary Bulk mark attendance
// @Description Upserts a batch of records for one session. The whole batch is rejected if any student is not actively enrolled.
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.BulkMarkAttendanceRequest true "Batch of marks"
// @Success 200 {object} dto.APIResponse{data=dto.BulkMarkResult} "Batch counts"
// @Failure 400 {object} dto.ErrorResponse "A student in the batch is not actively enrolled"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the session's course"
// @Router /attendance/bulk [post]
func (c *AttendanceController) MarkBulkAttendance(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}

	var req dto.BulkMarkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	result, err := c.attendanceService.MarkBulkAttendance(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(result))
}

// GetSessionAttendance lists a session's records
// @Summary List session attendance
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=[]models.AttendanceRecord} "Records with student identity"
// @Failure 403 {object} dto.ErrorResponse "Caller may not view the course"
// @Router /attendance/session/{sessionId} [get]
func (c *AttendanceController) GetSessionAttendance(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	records, err := c.attendanceService.GetSessionAttendance(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(records, len(records)))
}

// GetStudentCourseAttendance lists a student's records across a course
// @Summary List a student's course attendance
// @Description Accessible to the owning teacher or the student themself
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.AttendanceRecord} "Records"
// @Failure 400 {object} dto.ErrorResponse "Student not actively enrolled"
// @Failure 403 {object} dto.ErrorResponse "Caller is neither the owner nor the student"
// @Router /attendance/student/{studentId}/course/{courseId} [get]
func (c *AttendanceController) GetStudentCourseAttendance(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	studentID, ok := parseIDParam(ctx, "studentId")
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	records, err := c.attendanceService.GetStudentCourseAttendance(ctx.Request.Context(), userID, studentID, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(records, len(records)))
}

// GetCourseAttendanceStats aggregates attendance across a course
// @Summary Course attendance statistics
// @Description Per-student status counts and attendance percentage across all sessions
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.CourseAttendanceStats} "Statistics"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /attendance/stats/course/{courseId} [get]
func (c *AttendanceController) GetCourseAttendanceStats(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "courseId")
	if !ok {
		return
	}

	stats, err := c.attendanceService.GetCourseAttendanceStats(ctx.Request.Context(), userID, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(stats))
}

// GetSessionAttendanceStats aggregates join data across a session
// @Summary Session attendance statistics
// @Description Unique students, average and max of per-student summed durations, and total joins
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param sessionId path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=dto.SessionAttendanceStats} "Statistics"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the session's course"
// @Router /attendance/stats/session/{sessionId} [get]
func (c *AttendanceController) GetSessionAttendanceStats(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	sessionID, ok := parseIDParam(ctx, "sessionId")
	if !ok {
		return
	}

	stats, err := c.attendanceService.GetSessionAttendanceStats(ctx.Request.Context(), userID, sessionID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(stats))
}

// UpdateAttendance corrects an existing record
// @Summary Correct an attendance record
// @Description Overwrites provided fields; duration is recomputed when both timestamps are set
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Attendance record ID"
// @Param request body dto.UpdateAttendanceRequest true "Fields to overwrite"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceRecord} "Updated record"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the session's course"
// @Failure 404 {object} dto.ErrorResponse "Record not found"
// @Router /attendance/{id} [put]
func (c *AttendanceController) UpdateAttendance(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	recordID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	record, err := c.attendanceService.UpdateAttendance(ctx.Request.Context(), userID, recordID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(record))
}
