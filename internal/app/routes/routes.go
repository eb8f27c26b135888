package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/ozan/classpoint/internal/app/controllers"
	"github.com/ozan/classpoint/internal/app/models"
	"github.com/ozan/classpoint/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	sessionController *controllers.SessionController,
	attendanceController *controllers.AttendanceController,
	assignmentController *controllers.AssignmentController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// --- Public auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.POST("/verify-email", authController.VerifyEmail)
		auth.POST("/resend-verification", authController.ResendVerification)
		auth.POST("/forgot-password", authController.ForgotPassword)
		auth.POST("/reset-password", authController.ResetPassword)
	}

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// Profile stays reachable before email verification
	users := authenticated.Group("/users")
	{
		users.GET("/me", authController.GetProfile)
		users.PUT("/me", authController.UpdateProfile)
	}

	authenticated.POST("/auth/logout", authController.Logout)

	verified := authenticated.Group("")
	verified.Use(authMiddleware.EmailVerificationRequired())
	{
		// Course routes
		courses := verified.Group("/courses")
		{
			courses.GET("", courseController.GetAllCourses)
			courses.GET("/my", courseController.GetMyCourses)
			courses.GET("/:id", courseController.GetCourseByID)
			courses.GET("/:id/enrollments", courseController.GetEnrollments)
			courses.GET("/:id/sessions", sessionController.GetCourseSessions)
			courses.GET("/:id/assignments", assignmentController.GetCourseAssignments)

			coursesTeacher := courses.Group("")
			coursesTeacher.Use(authMiddleware.RoleRequired(string(models.RoleTeacher)))
			{
				coursesTeacher.POST("", courseController.CreateCourse)
				coursesTeacher.PUT("/:id", courseController.UpdateCourse)
				coursesTeacher.DELETE("/:id", courseController.DeleteCourse)
				coursesTeacher.POST("/:id/enrollments", courseController.EnrollStudent)
				coursesTeacher.PUT("/:id/enrollments/:studentId", courseController.UpdateEnrollmentStatus)
				coursesTeacher.DELETE("/:id/enrollments/:studentId", courseController.RemoveEnrollment)
				coursesTeacher.POST("/:id/sessions", sessionController.CreateSession)
				coursesTeacher.POST("/:id/assignments", assignmentController.CreateAssignment)
				coursesTeacher.GET("/:id/grades", assignmentController.GetCourseGradeSummaries)
			}
		}

		// Session routes
		sessions := verified.Group("/sessions")
		{
			sessions.GET("/:id", sessionController.GetSession)
			sessions.POST("/:id/join", sessionController.JoinSession)
			sessions.POST("/:id/leave", sessionController.LeaveSession)

			sessionsTeacher := sessions.Group("")
			sessionsTeacher.Use(authMiddleware.RoleRequired(string(models.RoleTeacher)))
			{
				sessionsTeacher.PUT("/:id", sessionController.UpdateSession)
				sessionsTeacher.POST("/:id/complete", sessionController.CompleteSession)
				sessionsTeacher.DELETE("/:id", sessionController.DeleteSession)
			}
		}

		// Attendance ledger routes
		attendance := verified.Group("/attendance")
		{
			attendance.GET("/session/:sessionId", attendanceController.GetSessionAttendance)
			attendance.GET("/student/:studentId/course/:courseId", attendanceController.GetStudentCourseAttendance)

			attendanceTeacher := attendance.Group("")
			attendanceTeacher.Use(authMiddleware.RoleRequired(string(models.RoleTeacher)))
			{
				attendanceTeacher.POST("", attendanceController.MarkAttendance)
				attendanceTeacher.POST("/bulk", attendanceController.MarkBulkAttendance)
				attendanceTeacher.GET("/stats/course/:courseId", attendanceController.GetCourseAttendanceStats)
				attendanceTeacher.GET("/stats/session/:sessionId", attendanceController.GetSessionAttendanceStats)
				attendanceTeacher.PUT("/:id", attendanceController.UpdateAttendance)
			}
		}

		// Assignment and submission routes
		assignments := verified.Group("/assignments")
		{
			assignments.GET("/:id", assignmentController.GetAssignment)
			assignments.POST("/:id/submissions", assignmentController.SubmitAssignment)

			assignmentsTeacher := assignments.Group("")
			assignmentsTeacher.Use(authMiddleware.RoleRequired(string(models.RoleTeacher)))
			{
				assignmentsTeacher.PUT("/:id", assignmentController.UpdateAssignment)
				assignmentsTeacher.DELETE("/:id", assignmentController.DeleteAssignment)
				assignmentsTeacher.GET("/:id/submissions", assignmentController.GetAssignmentSubmissions)
			}
		}

		submissions := verified.Group("/submissions")
		{
			submissions.GET("/:id", assignmentController.GetSubmission)
			submissions.GET("/student/:studentId/course/:courseId", assignmentController.GetStudentCourseSubmissions)

			submissionsTeacher := submissions.Group("")
			submissionsTeacher.Use(authMiddleware.RoleRequired(string(models.RoleTeacher)))
			{
				submissionsTeacher.PUT("/:id/grade", assignmentController.GradeSubmission)
			}
		}
	}
}
