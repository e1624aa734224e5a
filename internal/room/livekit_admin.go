package room

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
)

type RoomInfo struct {
	Name         string    `json:"name"`
	SID          string    `json:"sid"`
	Participants uint32    `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// Admin manages rooms on the media server.
type Admin interface {
	RemoveParticipant(ctx context.Context, room, identity string) error
	ListRooms(ctx context.Context) ([]RoomInfo, error)
}

type livekitAdmin struct {
	rs     *lksdk.RoomServiceClient
	prefix string
}

func NewLiveKitAdmin(url, apiKey, apiSecret, prefix string) Admin {
	return &livekitAdmin{
		rs:     lksdk.NewRoomServiceClient(url, apiKey, apiSecret),
		prefix: prefix,
	}
}

func (a *livekitAdmin) RemoveParticipant(ctx context.Context, room, identity string) error {
	_, err := a.rs.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     room,
		Identity: identity,
	})
	return err
}

func (a *livekitAdmin) ListRooms(ctx context.Context) ([]RoomInfo, error) {
	resp, err := a.rs.ListRooms(ctx, &livekit.ListRoomsRequest{})
	if err != nil {
		return nil, err
	}
	return callRooms(resp.GetRooms(), a.prefix), nil
}

func callRooms(rooms []*livekit.Room, prefix string) []RoomInfo {
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		if !strings.HasPrefix(r.GetName(), prefix) {
			continue
		}
		out = append(out, RoomInfo{
			Name:         r.GetName(),
			SID:          r.GetSid(),
			Participants: r.GetNumParticipants(),
			CreatedAt:    time.Unix(r.GetCreationTime(), 0).UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
