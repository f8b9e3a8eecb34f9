//go:build !darwin

package permissions

// PermissionChecker reports the microphone as authorized; access control
// on these platforms happens at the device level.
type PermissionChecker struct{}

// NewPermissionChecker creates a new permission checker
func NewPermissionChecker() *PermissionChecker {
	return &PermissionChecker{}
}

// MicrophoneStatus implements Authorizer
func (pc *PermissionChecker) MicrophoneStatus() PermissionStatus {
	return PermissionAuthorized
}

// RequestMicrophone implements Authorizer
func (pc *PermissionChecker) RequestMicrophone() error {
	return nil
}

// IsMicrophoneAuthorized returns whether microphone permission is granted
func (pc *PermissionChecker) IsMicrophoneAuthorized() bool {
	return true
}
