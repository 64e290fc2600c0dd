package event

import (
	"fmt"
	"image"
	"time"
)

type Event interface {
	Message() string
	Image() image.Image
	Session() string
	OccurredAt() time.Time
}

type BaseEvent struct {
	message    string
	image      image.Image
	session    string
	occurredAt time.Time
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) Image() image.Image {
	return b.image
}

func (b BaseEvent) Session() string {
	return b.session
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func Text(session, message string) BaseEvent {
	return BaseEvent{
		message:    message,
		session:    session,
		occurredAt: time.Now(),
	}
}

func WithScreenshot(session, message string, img image.Image) BaseEvent {
	return BaseEvent{
		message:    message,
		image:      img,
		session:    session,
		occurredAt: time.Now(),
	}
}

type BotStartedEvent struct {
	BaseEvent
	Region  string
	Profile string
	Limit   time.Duration
}

func BotStarted(be BaseEvent, region, profile string, limit time.Duration) BotStartedEvent {
	return BotStartedEvent{BaseEvent: be, Region: region, Profile: profile, Limit: limit}
}

type BotStoppedEvent struct {
	BaseEvent
	Reason  string
	RunTime time.Duration
}

func BotStopped(be BaseEvent, reason string, runTime time.Duration) BotStoppedEvent {
	return BotStoppedEvent{BaseEvent: be, Reason: reason, RunTime: runTime}
}

type PopupDismissedEvent struct {
	BaseEvent
	X, Y int
}

func PopupDismissed(be BaseEvent, x, y int) PopupDismissedEvent {
	return PopupDismissedEvent{BaseEvent: be, X: x, Y: y}
}

type RecoveryTriggeredEvent struct {
	BaseEvent
	Reason string
}

func RecoveryTriggered(be BaseEvent, reason string) RecoveryTriggeredEvent {
	return RecoveryTriggeredEvent{BaseEvent: be, Reason: reason}
}

type LoopFailedEvent struct {
	BaseEvent
	Err error
}

func LoopFailed(be BaseEvent, err error) LoopFailedEvent {
	return LoopFailedEvent{BaseEvent: be, Err: err}
}

type NgrokTunnelEvent struct {
	BaseEvent
	URL string
}

func NgrokTunnel(url string) NgrokTunnelEvent {
	return NgrokTunnelEvent{
		BaseEvent: Text("", fmt.Sprintf("Status server available at %s", url)),
		URL:       url,
	}
}
