package db

type SessionTree struct {
	Session      string `json:"session"`
	MessageCount int64  `json:"message_count"`
	Degrees      string `json:"degrees"`
	Nodes        int64  `json:"nodes"`
	Depth        int64  `json:"depth"`
	MaxFanOut    int64  `json:"max_fan_out"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}
