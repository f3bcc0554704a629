package session

import (
	"errors"
	"fmt"
)

// NoticeKind classifies a user-facing notification.
type NoticeKind string

const (
	NoticeInfo        NoticeKind = "info"
	NoticePermission  NoticeKind = "permission"
	NoticeTransport   NoticeKind = "transport"
	NoticeApplication NoticeKind = "application"
	NoticePlayback    NoticeKind = "playback"
)

// Notice is one message the presentation layer must surface.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// IsError reports whether the notice describes a failure.
func (n Notice) IsError() bool {
	return n.Kind != NoticeInfo
}

// unreachable is implemented by transformer errors raised before any response arrived.
type unreachable interface {
	Unreachable() bool
}

// IsTransportFailure reports whether err means the service could not be reached.
func IsTransportFailure(err error) bool {
	var u unreachable
	return errors.As(err, &u) && u.Unreachable()
}

func permissionNotice(err error) Notice {
	return Notice{Kind: NoticePermission, Message: fmt.Sprintf("Error accessing microphone: %v", err), Err: err}
}

func uploadNotice(err error) Notice {
	if IsTransportFailure(err) {
		return Notice{
			Kind:    NoticeTransport,
			Message: "Unable to connect to the transformation service. Please ensure the server is running.",
			Err:     err,
		}
	}
	return Notice{Kind: NoticeApplication, Message: fmt.Sprintf("Error processing audio: %v", err), Err: err}
}

func playbackNotice(err error) Notice {
	return Notice{Kind: NoticePlayback, Message: fmt.Sprintf("Error loading the audio: %v", err), Err: err}
}

func completionNotice() Notice {
	return Notice{Kind: NoticeInfo, Message: "Thank you for using recast!"}
}
