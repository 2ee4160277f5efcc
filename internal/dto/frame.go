package dto

// FramePayload is the JSON body posted to /receive_camera_frame.
type FramePayload struct {
	CameraID string `json:"camera_id"`
	Frame    string `json:"frame"` // base64 encoded JPEG
}

// FrameAck is the server's answer to a frame upload.
type FrameAck struct {
	IsActive *bool `json:"is_active,omitempty"`
}

// Revoked reports whether the server explicitly withdrew activation.
// An absent is_active field is not a revocation.
func (a FrameAck) Revoked() bool {
	return a.IsActive != nil && !*a.IsActive
}
