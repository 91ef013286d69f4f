package apperr

// Response is the JSON error body returned by both services.
type Response struct {
	OK       bool     `json:"ok"`
	Error    Code     `json:"error"`
	Message  string   `json:"message"`
	Reasons  []string `json:"reasons,omitempty"`
	Coaching []string `json:"coaching,omitempty"`
}

// ToResponse maps any error to a status code and body. Errors outside the
// taxonomy become a 500 without leaking their text.
func ToResponse(err error) (int, Response) {
	code := CodeOf(err)
	resp := Response{Error: code}

	var e *Error
	if As(err, &e) {
		resp.Message = e.Message
		resp.Reasons = e.Reasons
		resp.Coaching = e.Coaching
	} else {
		resp.Message = "internal server error"
	}
	return HTTPStatus(code), resp
}
