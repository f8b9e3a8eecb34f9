// Package permissions checks and requests microphone authorization.
package permissions

import (
	"context"
	"time"
)

// PermissionStatus represents the status of a system permission
type PermissionStatus int

const (
	// PermissionNotDetermined means the user hasn't been asked yet
	PermissionNotDetermined PermissionStatus = 0
	// PermissionRestricted means the permission is restricted by parental controls
	PermissionRestricted PermissionStatus = 1
	// PermissionDenied means the user has explicitly denied the permission
	PermissionDenied PermissionStatus = 2
	// PermissionAuthorized means the user has authorized the permission
	PermissionAuthorized PermissionStatus = 3
)

// PermissionStatus string representation
func (ps PermissionStatus) String() string {
	switch ps {
	case PermissionNotDetermined:
		return "NotDetermined"
	case PermissionRestricted:
		return "Restricted"
	case PermissionDenied:
		return "Denied"
	case PermissionAuthorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// Authorizer reports and requests microphone access
type Authorizer interface {
	MicrophoneStatus() PermissionStatus
	RequestMicrophone() error
}

// GetPermissionStatusMessage returns a human-readable message for a permission status
func GetPermissionStatusMessage(status PermissionStatus) string {
	switch status {
	case PermissionNotDetermined:
		return "Microphone access not yet requested"
	case PermissionRestricted:
		return "Microphone access restricted by parental controls"
	case PermissionDenied:
		return "Microphone access denied. Allow it in System Settings > Privacy & Security > Microphone"
	case PermissionAuthorized:
		return "Microphone access authorized"
	default:
		return "Unknown permission status"
	}
}

// Watch polls a for the microphone status and sends every change, starting
// with the current status. The channel is closed when ctx is done.
func Watch(ctx context.Context, a Authorizer, interval time.Duration) <-chan PermissionStatus {
	out := make(chan PermissionStatus, 1)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		last := PermissionStatus(-1)
		for {
			if status := a.MicrophoneStatus(); status != last {
				select {
				case out <- status:
					last = status
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
