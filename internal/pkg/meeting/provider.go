// Package meeting abstracts third-party video-conference link generation.
// The core treats providers as opaque; only the generated URL is stored.
package meeting

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LinkProvider generates a join URL for a scheduled class session.
type LinkProvider interface {
	GenerateLink(courseCode, sessionTitle string) string
}

// RoomProvider derives meeting URLs from a base URL and a random room
// name, the way public Jitsi deployments work. It satisfies LinkProvider.
type RoomProvider struct {
	baseURL string
}

// NewRoomProvider creates a provider rooted at baseURL.
func NewRoomProvider(baseURL string) *RoomProvider {
	return &RoomProvider{baseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateLink builds a unique room URL. The course code keeps rooms
// recognizable in provider dashboards; the UUID keeps them unguessable.
func (p *RoomProvider) GenerateLink(courseCode, sessionTitle string) string {
	room := slugify(courseCode)
	if room == "" {
		room = "class"
	}
	return fmt.Sprintf("%s/%s-%s", p.baseURL, room, uuid.New().String())
}

func slugify(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
