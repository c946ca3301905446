package commons

// Response is the uniform envelope every API handler returns. Offline
// clients poll over unreliable links, so the body always says whether
// the call worked without the caller inspecting the status code: Data
// is set only on success, Errors only on failure.
type Response[T any] struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    *T       `json:"data,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    &data,
	}
}

// ErrorResponse carries the human-readable detail lines a client shows
// the sender: validation text, "Insufficient balance", and the like.
func ErrorResponse[T any](message string, errors ...string) Response[T] {
	return Response[T]{
		Success: false,
		Message: message,
		Errors:  errors,
	}
}
