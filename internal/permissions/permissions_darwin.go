//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c -fmodules -fblocks
#cgo LDFLAGS: -framework AVFoundation

#import <AVFoundation/AVFoundation.h>

int check_microphone_permission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void request_microphone_permission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

import (
	"os/exec"
)

// PermissionChecker checks macOS microphone permission through AVFoundation
type PermissionChecker struct{}

// NewPermissionChecker creates a new permission checker
func NewPermissionChecker() *PermissionChecker {
	return &PermissionChecker{}
}

// MicrophoneStatus implements Authorizer
func (pc *PermissionChecker) MicrophoneStatus() PermissionStatus {
	return PermissionStatus(C.check_microphone_permission())
}

// RequestMicrophone shows the system prompt the first time and opens
// System Settings once the user has answered
func (pc *PermissionChecker) RequestMicrophone() error {
	if pc.MicrophoneStatus() == PermissionNotDetermined {
		C.request_microphone_permission()
		return nil
	}

	url := "x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone"
	return exec.Command("open", url).Run()
}

// IsMicrophoneAuthorized returns whether microphone permission is granted
func (pc *PermissionChecker) IsMicrophoneAuthorized() bool {
	return pc.MicrophoneStatus() == PermissionAuthorized
}
