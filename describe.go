package main

import (
	"strings"

	"aribridge/ari"
)

// eventSubject names what an event is about: the bridge name (or id when
// unnamed) followed by the channel name.
func eventSubject(ev *ari.Event) string {
	if ev == nil {
		return ""
	}
	var parts []string
	if b := ev.Bridge; b != nil {
		if b.Name != "" {
			parts = append(parts, b.Name)
		} else if b.ID != "" {
			parts = append(parts, b.ID)
		}
	}
	if ch := ev.Channel; ch != nil && ch.Name != "" {
		parts = append(parts, ch.Name)
	}
	return strings.Join(parts, " ")
}
