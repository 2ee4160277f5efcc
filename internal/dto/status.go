package dto

// StatusResponse is the body returned by GET /api/status.
type StatusResponse struct {
	CurrentSource *string `json:"current_source"` // camera currently allowed to stream
}

// Source returns the reported camera id and whether the field was present.
func (s StatusResponse) Source() (string, bool) {
	if s.CurrentSource == nil {
		return "", false
	}
	return *s.CurrentSource, true
}
