package models

import "time"

// MarketTick is the complete market snapshot produced by one simulator tick
type MarketTick struct {
	Sequence uint64    `json:"sequence"`
	At       time.Time `json:"at"`
	Assets   []Asset   `json:"assets"`
	GasPrice int       `json:"gasPrice"`
}
