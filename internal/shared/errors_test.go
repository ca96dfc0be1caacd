package shared

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestRemoteError(t *testing.T) {
	t.Run("matches sentinel and cause", func(t *testing.T) {
		err := NewRemoteError("nixplay.delete_items", 0, io.ErrUnexpectedEOF)

		if !errors.Is(err, ErrRemoteCallFailed) {
			t.Error("expected RemoteError to match ErrRemoteCallFailed")
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Error("expected RemoteError to match its cause")
		}
	})

	t.Run("status only", func(t *testing.T) {
		err := NewRemoteError("nixplay.insert_items", 500, nil)

		if !errors.Is(err, ErrRemoteCallFailed) {
			t.Error("expected RemoteError to match ErrRemoteCallFailed")
		}
		if !strings.Contains(err.Error(), "Internal Server Error") {
			t.Errorf("expected status text in message, got %q", err.Error())
		}
	})

	t.Run("errors.As through wrapping", func(t *testing.T) {
		wrapped := errors.Join(errors.New("context"), NewRemoteError("flickr.getPhotos", 502, nil))

		var remote *RemoteError
		if !errors.As(wrapped, &remote) {
			t.Fatal("expected errors.As to find RemoteError")
		}
		if remote.StatusCode != 502 {
			t.Errorf("expected status 502, got %d", remote.StatusCode)
		}
	})
}

func TestStatusLabel(t *testing.T) {
	if got := StatusLabel(201); got != "201 Created" {
		t.Errorf("StatusLabel(201) = %q", got)
	}
	if got := StatusLabel(799); got != "799" {
		t.Errorf("StatusLabel(799) = %q", got)
	}
}
