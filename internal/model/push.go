package model

import "time"

type PushSubscription struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"member_id"`
	Endpoint  string    `json:"endpoint"`
	P256dhKey string    `json:"-"`
	AuthKey   string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
