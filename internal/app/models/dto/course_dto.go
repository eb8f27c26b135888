package dto

// CreateCourseRequest creates a new course owned by the calling teacher
type CreateCourseRequest struct {
	Code        string  `json:"code" binding:"required" example:"CS101"`
	Name        string  `json:"name" binding:"required" example:"Introduction to Programming"`
	Description *string `json:"description,omitempty"`
}

// UpdateCourseRequest updates an existing course
type UpdateCourseRequest struct {
	Code        string  `json:"code" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// EnrollStudentRequest enrolls a student into a course
type EnrollStudentRequest struct {
	StudentID int64 `json:"studentId" binding:"required" example:"42"`
}
