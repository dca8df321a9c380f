// Package twiml renders the small set of TwiML documents the webhook layer
// answers with.
package twiml

import "fmt"

const header = `<?xml version="1.0" encoding="UTF-8"?>`

// ContentType is the media type for TwiML responses.
const ContentType = "application/xml"

// Empty acknowledges a webhook without instructing the call.
func Empty() string {
	return header + `<Response></Response>`
}

// Hangup ends the call.
func Hangup() string {
	return header + `<Response><Hangup/></Response>`
}

// Pause holds the call for the given number of seconds. Used as the initial
// answer while asynchronous machine detection runs.
func Pause(seconds int) string {
	return header + fmt.Sprintf(`<Response><Pause length="%d"/></Response>`, seconds)
}

// JoinConference bridges the call into a named conference room. The room
// starts when the callee enters and tears down when they leave, so an
// operator joining late still lands in a live room.
func JoinConference(room string) string {
	return header + fmt.Sprintf(
		`<Response><Dial><Conference beep="false" startConferenceOnEnter="true" endConferenceOnExit="true">%s</Conference></Dial></Response>`,
		room,
	)
}
