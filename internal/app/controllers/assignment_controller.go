package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ozan/classpoint/internal/app/models/dto"
	"github.com/ozan/classpoint/internal/app/services"
	"github.com/ozan/classpoint/internal/middleware"
)

// AssignmentController handles assignment and submission endpoints
type AssignmentController struct {
	assignmentService *services.AssignmentService
	submissionService *services.SubmissionService
}

// NewAssignmentController creates a new AssignmentController
func NewAssignmentController(assignmentService *services.AssignmentService, submissionService *services.SubmissionService) *AssignmentController {
	return &AssignmentController{
		assignmentService: assignmentService,
		submissionService: submissionService,
	}
}

// CreateAssignment publishes an assignment to a course
// @Summary Create an assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param request body dto.CreateAssignmentRequest true "Assignment information"
// @Success 201 {object} dto.APIResponse{data=models.Assignment} "Assignment created"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /courses/{id}/assignments [post]
func (c *AssignmentController) CreateAssignment(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.CreateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	assignment, err := c.assignmentService.CreateAssignment(ctx.Request.Context(), courseID, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewResponse(assignment))
}

// GetCourseAssignments lists a course's assignments
// @Summary List course assignments
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Assignment} "Assignments"
// @Failure 403 {object} dto.ErrorResponse "Caller may not view the course"
// @Router /courses/{id}/assignments [get]
func (c *AssignmentController) GetCourseAssignments(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	assignments, err := c.assignmentService.GetCourseAssignments(ctx.Request.Context(), courseID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(assignments, len(assignments)))
}

// GetAssignment retrieves one assignment
// @Summary Get assignment details
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assignment} "Assignment"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id} [get]
func (c *AssignmentController) GetAssignment(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	assignment, err := c.assignmentService.GetAssignment(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(assignment))
}

// UpdateAssignment updates an assignment
// @Summary Update an assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Param request body dto.UpdateAssignmentRequest true "Assignment fields"
// @Success 200 {object} dto.APIResponse{data=models.Assignment} "Updated assignment"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /assignments/{id} [put]
func (c *AssignmentController) UpdateAssignment(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	assignment, err := c.assignmentService.UpdateAssignment(ctx.Request.Context(), id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(assignment))
}

// DeleteAssignment removes an assignment
// @Summary Delete an assignment
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse "Assignment deleted"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /assignments/{id} [delete]
func (c *AssignmentController) DeleteAssignment(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.assignmentService.DeleteAssignment(ctx.Request.Context(), id, userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewMessageResponse("Assignment deleted successfully"))
}

// SubmitAssignment uploads the calling student's answer file
// @Summary Submit an assignment
// @Description Uploads an answer file. Resubmitting replaces the previous file and clears any grade.
// @Tags submissions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Param file formData file true "Answer file"
// @Success 201 {object} dto.APIResponse{data=models.Submission} "Submission stored"
// @Failure 400 {object} dto.ErrorResponse "Missing file or student not enrolled"
// @Router /assignments/{id}/submissions [post]
func (c *AssignmentController) SubmitAssignment(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse("A file upload named 'file' is required"))
		return
	}

	submission, err := c.submissionService.SubmitAssignment(ctx.Request.Context(), assignmentID, userID, fileHeader)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewResponse(submission))
}

// GetAssignmentSubmissions lists every submission for an assignment
// @Summary List assignment submissions
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission} "Submissions with student identity"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /assignments/{id}/submissions [get]
func (c *AssignmentController) GetAssignmentSubmissions(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	submissions, err := c.submissionService.GetAssignmentSubmissions(ctx.Request.Context(), assignmentID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(submissions, len(submissions)))
}

// GetSubmission retrieves one submission
// @Summary Get submission details
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse{data=models.Submission} "Submission"
// @Failure 403 {object} dto.ErrorResponse "Caller is neither the submitter nor the owner"
// @Router /submissions/{id} [get]
func (c *AssignmentController) GetSubmission(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	submission, err := c.submissionService.GetSubmission(ctx.Request.Context(), id, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(submission))
}

// GradeSubmission records a grade on a submission
// @Summary Grade a submission
// @Tags submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Submission ID"
// @Param request body dto.GradeSubmissionRequest true "Grade and feedback"
// @Success 200 {object} dto.APIResponse{data=models.Submission} "Graded submission"
// @Failure 400 {object} dto.ErrorResponse "Grade outside the assignment point range"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /submissions/{id}/grade [put]
func (c *AssignmentController) GradeSubmission(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.GradeSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindingError(ctx, err)
		return
	}

	submission, err := c.submissionService.GradeSubmission(ctx.Request.Context(), id, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewResponse(submission))
}

// GetStudentCourseSubmissions lists a student's submissions across a course
// @Summary List a student's course submissions
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID"
// @Param courseId path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission} "Submissions"
// @Failure 403 {object} dto.ErrorResponse "Caller is neither the owner nor the student"
// @Router /submissions/student/{studentId}/course/{courseId} [get]
func (c *AssignmentController) GetStudentCourseSubmissions(ctx *gin.Context) {
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

	submissions, err := c.submissionService.GetStudentCourseSubmissions(ctx.Request.Context(), courseID, studentID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(submissions, len(submissions)))
}

// GetCourseGradeSummaries aggregates grades across a course
// @Summary Course grade summaries
// @Description Per-student graded submission counts and average grade percentage
// @Tags submissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.StudentGradeSummary} "Summaries"
// @Failure 403 {object} dto.ErrorResponse "Caller does not own the course"
// @Router /courses/{id}/grades [get]
func (c *AssignmentController) GetCourseGradeSummaries(ctx *gin.Context) {
	userID, ok := requireUserID(ctx)
	if !ok {
		return
	}
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	summaries, err := c.submissionService.GetCourseGradeSummaries(ctx.Request.Context(), courseID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewListResponse(summaries, len(summaries)))
}
