package dto

// APIResponse is the standard success envelope for all endpoints.
type APIResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Count   *int        `json:"count,omitempty" example:"3"`
	Message string      `json:"message,omitempty" example:"Operation completed successfully"`
}

// ErrorResponse is the standard error envelope. Stack is only populated
// when the server runs with debug_errors enabled.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"resource not found"`
	Stack   string `json:"stack,omitempty"`
}

// NewResponse creates a success envelope around data.
func NewResponse(data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
	}
}

// NewListResponse creates a success envelope with an item count.
func NewListResponse(data interface{}, count int) APIResponse {
	return APIResponse{
		Success: true,
		Data:    data,
		Count:   &count,
	}
}

// NewMessageResponse creates a success envelope carrying only a message.
func NewMessageResponse(message string) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
	}
}

// NewErrorResponse creates an error envelope.
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: message,
	}
}
