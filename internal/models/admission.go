package models

import "time"

// RoomGrant is the only capability an admission token ever carries.
type RoomGrant struct {
	RoomJoin bool   `json:"room_join"`
	Room     string `json:"room"`
}

type AdmissionToken struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	Room      string    `json:"room"`
	Grant     RoomGrant `json:"grant"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdmissionClaims is what a redeemed token proves about the joining party.
type AdmissionClaims struct {
	Identity    string
	Name        string
	Room        string
	ExpiresAt   time.Time
	Fingerprint string
}
