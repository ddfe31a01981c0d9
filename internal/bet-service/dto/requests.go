package dto

type PlaceWagerRequest struct {
	EventID    string `json:"eventId"`
	Pick       string `json:"pick"` // label do time escolhido
	StakeCents int64  `json:"stake_cents"`
}
