package streamer

// Cause names what triggered an activation change.
type Cause string

const (
	CausePoll    Cause = "poll"    // status poll reported a different source
	CauseRevoked Cause = "revoked" // upload response carried is_active=false
)

// Observer receives loop events. Calls are made synchronously from the loop,
// so implementations must return quickly and never block.
type Observer interface {
	ActivationChanged(active bool, cause Cause)
	FrameCaptured(jpeg []byte)
	FrameUploaded(seq int)
	UploadFailed(err error)
}

// NopObserver implements Observer with no-ops; embed it to override a subset.
type NopObserver struct{}

func (NopObserver) ActivationChanged(bool, Cause) {}
func (NopObserver) FrameCaptured([]byte)          {}
func (NopObserver) FrameUploaded(int)             {}
func (NopObserver) UploadFailed(error)            {}
