package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/set-night/captionbot/internal/config"
	"github.com/set-night/captionbot/internal/domain"
	"github.com/set-night/captionbot/internal/mocks"
	"github.com/set-night/captionbot/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	userID    = "42"
	channelID = "general"
)

var placeholder = domain.MessageRef{ChannelID: channelID, MessageID: "1001"}

type fixture struct {
	handler   *Handler
	tracker   *service.SessionTracker
	messenger *mocks.MockMessenger
	pipeline  *mocks.MockPipeline
	reporter  *mocks.MockErrorReporter
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		tracker:   service.NewSessionTracker(),
		messenger: mocks.NewMockMessenger(ctrl),
		pipeline:  mocks.NewMockPipeline(ctrl),
		reporter:  mocks.NewMockErrorReporter(ctrl),
	}
	f.handler = New(Deps{
		Tracker:       f.tracker,
		Pipeline:      f.pipeline,
		Dedup:         NewDedup(time.Minute),
		Reporter:      f.reporter,
		CommandPrefix: "!",
	})
	return f
}

var msgSeq int

func message(text string, attachments ...domain.Attachment) domain.Message {
	msgSeq++
	return domain.Message{
		ID:          fmt.Sprintf("m-%d", msgSeq),
		AuthorID:    userID,
		AuthorName:  "alice",
		ChannelID:   channelID,
		Text:        text,
		Attachments: attachments,
	}
}

func attachment(name string, payload []byte) domain.Attachment {
	return domain.Attachment{
		Filename: name,
		Size:     len(payload),
		Read: func(context.Context) ([]byte, error) {
			return payload, nil
		},
	}
}

func TestHandleMessage_IgnoresOwnMessages(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)

	msg := message("!help", attachment("cat.png", []byte("x")))
	msg.IsSelf = true
	f.handler.HandleMessage(context.Background(), f.messenger, msg)

	require.True(t, f.tracker.IsWaiting(userID), "own messages never touch the session")
}

func TestHandleMessage_Help(t *testing.T) {
	f := newFixture(t)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyHelp).Return(domain.MessageRef{}, nil)

	f.handler.HandleMessage(context.Background(), f.messenger, message("!help"))
	require.False(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_ImageArmsSessionIdempotently(t *testing.T) {
	f := newFixture(t)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyAskImage).Return(domain.MessageRef{}, nil).Times(2)

	f.handler.HandleMessage(context.Background(), f.messenger, message("!image"))
	f.handler.HandleMessage(context.Background(), f.messenger, message("!image"))

	require.True(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_ReminderWhileWaiting(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyReminder).Return(domain.MessageRef{}, nil)

	f.handler.HandleMessage(context.Background(), f.messenger, message("what now?"))

	require.True(t, f.tracker.IsWaiting(userID), "a reminder does not clear the session")
}

func TestHandleMessage_HelpWhileWaitingSendsNoReminder(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyHelp).Return(domain.MessageRef{}, nil)

	f.handler.HandleMessage(context.Background(), f.messenger, message("!help"))
	require.True(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_IdleTextIsIgnored(t *testing.T) {
	f := newFixture(t)

	f.handler.HandleMessage(context.Background(), f.messenger, message("hello there"))
	f.handler.HandleMessage(context.Background(), f.messenger, message("!unknown"))
}

func TestHandleMessage_RejectsNonImage(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyRejected).Return(domain.MessageRef{}, nil)

	f.handler.HandleMessage(context.Background(), f.messenger, message("", attachment("doc.pdf", []byte("%PDF"))))

	require.False(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_CaptionsImage(t *testing.T) {
	f := newFixture(t)
	payload := []byte("png-bytes")

	gomock.InOrder(
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil),
		f.pipeline.EXPECT().Process(gomock.Any(), payload).Return(&domain.CaptionResult{
			Caption: "a cat sitting on the mat",
			Tags:    []string{"cat", "sitting", "mat"},
		}, nil),
		f.messenger.EXPECT().EditText(gomock.Any(), placeholder,
			"**Caption:** a cat sitting on the mat\n\n**Tags:** cat, sitting, mat").Return(nil),
	)

	f.handler.HandleMessage(context.Background(), f.messenger, message("", attachment("Photo.JPG", payload)))
	require.False(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_RendersNoneWithoutTags(t *testing.T) {
	f := newFixture(t)

	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil)
	f.pipeline.EXPECT().Process(gomock.Any(), gomock.Any()).Return(&domain.CaptionResult{Caption: "a a a", Tags: []string{}}, nil)
	f.messenger.EXPECT().EditText(gomock.Any(), placeholder, "**Caption:** a a a\n\n**Tags:** none").Return(nil)

	f.handler.HandleMessage(context.Background(), f.messenger, message("", attachment("x.png", []byte("x"))))
}

func TestHandleMessage_PipelineFailures(t *testing.T) {
	tests := []struct {
		description string
		err         error
	}{
		{"Should hide decode errors behind the generic notice", fmt.Errorf("%w: truncated", domain.ErrDecode)},
		{"Should hide model errors behind the generic notice", fmt.Errorf("%w: CUDA out of memory", domain.ErrModel)},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			f := newFixture(t)
			f.tracker.BeginWaiting(userID)

			gomock.InOrder(
				f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil),
				f.pipeline.EXPECT().Process(gomock.Any(), gomock.Any()).Return(nil, tt.err),
				f.messenger.EXPECT().EditText(gomock.Any(), placeholder, ReplyFailure).Return(nil),
			)
			f.reporter.EXPECT().LogError(tt.err, gomock.Any())

			f.handler.HandleMessage(context.Background(), f.messenger, message("", attachment("cat.webp", []byte("x"))))
			require.False(t, f.tracker.IsWaiting(userID))
		})
	}
}

func TestHandleMessage_DownloadFailure(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)

	att := domain.Attachment{
		Filename: "cat.png",
		Read: func(context.Context) ([]byte, error) {
			return nil, errors.New("connection reset")
		},
	}

	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil)
	f.messenger.EXPECT().EditText(gomock.Any(), placeholder, ReplyFailure).Return(nil)
	f.reporter.EXPECT().LogError(gomock.Any(), gomock.Any()).Do(func(err error, _ string) {
		require.ErrorIs(t, err, domain.ErrDecode)
	})

	f.handler.HandleMessage(context.Background(), f.messenger, message("", att))
	require.False(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_PlaceholderFailureStillClears(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(domain.MessageRef{}, errors.New("forbidden"))

	f.handler.HandleMessage(context.Background(), f.messenger, message("", attachment("cat.png", []byte("x"))))
	require.False(t, f.tracker.IsWaiting(userID))
}

func TestHandleMessage_OnlyFirstAttachmentIsUsed(t *testing.T) {
	f := newFixture(t)
	first := []byte("first")

	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil)
	f.pipeline.EXPECT().Process(gomock.Any(), first).Return(&domain.CaptionResult{Caption: "a bird", Tags: []string{"bird"}}, nil)
	f.messenger.EXPECT().EditText(gomock.Any(), placeholder, gomock.Any()).Return(nil)

	f.handler.HandleMessage(context.Background(), f.messenger, message("",
		attachment("bird.png", first),
		attachment("notes.pdf", []byte("second")),
	))
}

func TestHandleMessage_CommandWithAttachment(t *testing.T) {
	f := newFixture(t)

	gomock.InOrder(
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyAskImage).Return(domain.MessageRef{}, nil),
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyRejected).Return(domain.MessageRef{}, nil),
	)

	f.handler.HandleMessage(context.Background(), f.messenger, message("!image", attachment("song.mp3", []byte("x"))))
	require.False(t, f.tracker.IsWaiting(userID), "the attachment clears the state the command armed")
}

func TestHandleMessage_DuplicateDeliveryIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyHelp).Return(domain.MessageRef{}, nil).Times(1)

	msg := message("!help")
	f.handler.HandleMessage(context.Background(), f.messenger, msg)
	f.handler.HandleMessage(context.Background(), f.messenger, msg)
}

func TestHandleMessage_TypingWhileCaptioning(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t)
	typer := mocks.NewMockTyper(ctrl)
	out := struct {
		*mocks.MockMessenger
		*mocks.MockTyper
	}{f.messenger, typer}

	stopped := false
	gomock.InOrder(
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil),
		typer.EXPECT().StartTyping(gomock.Any(), channelID).Return(func() { stopped = true }),
		f.pipeline.EXPECT().Process(gomock.Any(), gomock.Any()).Return(&domain.CaptionResult{Caption: "a tree"}, nil),
		f.messenger.EXPECT().EditText(gomock.Any(), placeholder, gomock.Any()).DoAndReturn(
			func(context.Context, domain.MessageRef, string) error {
				require.True(t, stopped, "typing stops before the result is shown")
				return nil
			}),
	)

	f.handler.HandleMessage(context.Background(), out, message("", attachment("tree.bmp", []byte("x"))))
}

func TestHandleMessage_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	image := []byte("valid-image")

	gomock.InOrder(
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyAskImage).Return(domain.MessageRef{}, nil),
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyRejected).Return(domain.MessageRef{}, nil),
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil),
		f.pipeline.EXPECT().Process(gomock.Any(), image).Return(&domain.CaptionResult{
			Caption: "a dog on a couch",
			Tags:    []string{"dog", "couch"},
		}, nil),
		f.messenger.EXPECT().EditText(gomock.Any(), placeholder, "**Caption:** a dog on a couch\n\n**Tags:** dog, couch").Return(nil),
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyAskImage).Return(domain.MessageRef{}, nil),
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil),
		f.pipeline.EXPECT().Process(gomock.Any(), image).Return(nil, fmt.Errorf("%w: timeout", domain.ErrModel)),
		f.messenger.EXPECT().EditText(gomock.Any(), placeholder, ReplyFailure).Return(nil),
	)
	f.reporter.EXPECT().LogError(gomock.Any(), gomock.Any())

	f.handler.HandleMessage(ctx, f.messenger, message("!image"))
	require.True(t, f.tracker.IsWaiting(userID))

	f.handler.HandleMessage(ctx, f.messenger, message("", attachment("report.pdf", []byte("%PDF"))))
	require.False(t, f.tracker.IsWaiting(userID))

	f.handler.HandleMessage(ctx, f.messenger, message("", attachment("dog.png", image)))
	require.False(t, f.tracker.IsWaiting(userID))

	f.handler.HandleMessage(ctx, f.messenger, message("!image"))
	f.handler.HandleMessage(ctx, f.messenger, message("", attachment("dog.png", image)))
	require.False(t, f.tracker.IsWaiting(userID))
}

func TestDispatch_SlowCaptionDoesNotBlockOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	unblock := make(chan struct{})
	helpSent := make(chan struct{})
	var once sync.Once

	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil)
	f.pipeline.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, []byte) (*domain.CaptionResult, error) {
		<-unblock
		return &domain.CaptionResult{Caption: "a slow cat"}, nil
	})
	f.messenger.EXPECT().EditText(gomock.Any(), placeholder, gomock.Any()).Return(nil)
	f.messenger.EXPECT().SendText(gomock.Any(), "other-channel", ReplyHelp).DoAndReturn(
		func(context.Context, string, string) (domain.MessageRef, error) {
			once.Do(func() { close(helpSent) })
			return domain.MessageRef{}, nil
		})

	f.handler.Dispatch(ctx, f.messenger, message("", attachment("cat.png", []byte("x"))))

	other := message("!help")
	other.AuthorID = "7"
	other.ChannelID = "other-channel"
	f.handler.Dispatch(ctx, f.messenger, other)

	select {
	case <-helpSent:
	case <-time.After(2 * time.Second):
		t.Fatal("help reply waited for another user's caption")
	}

	close(unblock)
	f.handler.Wait()
}

func TestDispatch_SameUserIsSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	started := make(chan struct{})
	unblock := make(chan struct{})

	gomock.InOrder(
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil),
		f.pipeline.EXPECT().Process(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, []byte) (*domain.CaptionResult, error) {
			close(started)
			<-unblock
			return &domain.CaptionResult{Caption: "a cat"}, nil
		}),
		f.messenger.EXPECT().EditText(gomock.Any(), placeholder, gomock.Any()).Return(nil),
		f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyAskImage).Return(domain.MessageRef{}, nil),
	)

	f.handler.Dispatch(ctx, f.messenger, message("", attachment("cat.png", []byte("x"))))
	<-started
	f.handler.Dispatch(ctx, f.messenger, message("!image"))

	close(unblock)
	f.handler.Wait()

	require.True(t, f.tracker.IsWaiting(userID), "the later !image is applied after the earlier attachment cleared the state")
}

func TestHandleMessage_HelpUsesConfiguredPrefix(t *testing.T) {
	f := newFixture(t)
	h := New(Deps{
		Tracker:       f.tracker,
		Pipeline:      f.pipeline,
		CommandPrefix: "/",
	})
	f.messenger.EXPECT().SendText(gomock.Any(), channelID,
		"Commands:\n/image → bot asks you to upload a picture\n/help  → show this message").Return(domain.MessageRef{}, nil)

	h.HandleMessage(context.Background(), f.messenger, message("/help"))
}

func TestHandleMessage_OversizedAttachmentIsNotDownloaded(t *testing.T) {
	f := newFixture(t)
	f.tracker.BeginWaiting(userID)

	att := domain.Attachment{
		Filename: "huge.png",
		Size:     config.MaxAttachmentBytes + 1,
		Read: func(context.Context) ([]byte, error) {
			t.Fatal("oversized attachment must not be downloaded")
			return nil, nil
		},
	}

	f.messenger.EXPECT().SendText(gomock.Any(), channelID, ReplyProcessing).Return(placeholder, nil)
	f.messenger.EXPECT().EditText(gomock.Any(), placeholder, ReplyFailure).Return(nil)
	f.reporter.EXPECT().LogError(gomock.Any(), gomock.Any()).Do(func(err error, _ string) {
		require.ErrorIs(t, err, domain.ErrDecode)
		require.ErrorIs(t, err, domain.ErrAttachmentTooLarge)
	})

	f.handler.HandleMessage(context.Background(), f.messenger, message("", att))
	require.False(t, f.tracker.IsWaiting(userID))
}
