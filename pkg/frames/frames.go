// Package frames produces JPEG still frames from the onboard camera.
package frames

// Provider produces the next camera frame as JPEG bytes. Blocking up
// to roughly one frame period is fine; the control loops budget for it.
type Provider interface {
	CaptureFrame() ([]byte, error)
}
