package server

import (
	"github.com/brk3/fifty/pkg/challenge"
)

type ProfileResponse struct {
	Profile   challenge.Profile `json:"profile"`
	DayNumber int               `json:"day_number"`
}

type DayResponse struct {
	Day      challenge.DayKey `json:"day"`
	Fields   map[string]any   `json:"fields"`
	Progress float64          `json:"progress"`
}

type ToggleResponse struct {
	Day      challenge.DayKey `json:"day"`
	Fields   map[string]any   `json:"fields"`
	Progress float64          `json:"progress"`
	Synced   bool             `json:"synced"`
}

type CalendarResponse struct {
	Month string                              `json:"month"`
	Days  map[challenge.DayKey]map[string]any `json:"days"`
}

type SyncResponse struct {
	Synced  int  `json:"synced"`
	Pending bool `json:"pending"`
}

type SyncStatusResponse struct {
	Pending bool               `json:"pending"`
	Days    []challenge.DayKey `json:"days"`
}
