package models

type Response struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Error    string      `json:"error,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Başarılı response için helper
func SuccessResponse(data interface{}, message string) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// Başarılı ama best-effort yan etkileri başarısız olmuş response'lar için
func SuccessResponseWithWarnings(data interface{}, message string, warnings []string) Response {
	return Response{
		Success:  true,
		Message:  message,
		Data:     data,
		Warnings: warnings,
	}
}

// Hata response'u için helper
func ErrorResponse(err string) Response {
	return Response{
		Success: false,
		Error:   err,
	}
}
