package notification

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Message string
	Type    NotificationType
}

// NotificationManager handles sending notifications to the user
type NotificationManager struct {
	appName string
	goos    string
	run     func(name string, args ...string) error
}

// NewNotificationManager creates a new notification manager
func NewNotificationManager(appName string) *NotificationManager {
	return &NotificationManager{
		appName: appName,
		goos:    runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// command builds the platform notifier invocation
func (nm *NotificationManager) command(n *Notification) (string, []string, error) {
	switch nm.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`,
			escapeAppleScript(n.Message), escapeAppleScript(n.Title))
		return "osascript", []string{"-e", script}, nil
	case "linux":
		urgency := "normal"
		if n.Type == TypeError {
			urgency = "critical"
		}
		return "notify-send", []string{"--app-name", nm.appName, "--urgency", urgency, n.Title, n.Message}, nil
	default:
		return "", nil, fmt.Errorf("notifications are not supported on %s", nm.goos)
	}
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// Send sends a notification to the user via the desktop notification service
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	name, args, err := nm.command(notification)
	if err != nil {
		return err
	}

	if err := nm.run(name, args...); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// SendInfo sends an informational notification
func (nm *NotificationManager) SendInfo(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeInfo})
}

// SendWarning sends a warning notification
func (nm *NotificationManager) SendWarning(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeWarning})
}

// SendError sends an error notification
func (nm *NotificationManager) SendError(title, message string) error {
	return nm.Send(&Notification{Title: title, Message: message, Type: TypeError})
}

// ListeningStarted tells the user the interpreter is listening
func (nm *NotificationManager) ListeningStarted() error {
	return nm.SendInfo(nm.appName, "Listening")
}

// ListeningStopped tells the user the interpreter stopped listening
func (nm *NotificationManager) ListeningStopped() error {
	return nm.SendInfo(nm.appName, "Stopped listening")
}

// MicrophonePermissionDenied asks the user to allow microphone access
func (nm *NotificationManager) MicrophonePermissionDenied() error {
	return nm.SendWarning(
		"Microphone access required",
		"Allow microphone access in System Settings to start listening",
	)
}

// DeviceUnavailable reports that the audio input could not be opened
func (nm *NotificationManager) DeviceUnavailable(reason string) error {
	return nm.SendError("Microphone unavailable", reason)
}

// ModelLoadFailed reports that the classifier model could not be loaded
func (nm *NotificationManager) ModelLoadFailed(modelPath, reason string) error {
	return nm.SendError(
		"Model could not be loaded",
		fmt.Sprintf("%s: %s", modelPath, reason),
	)
}
