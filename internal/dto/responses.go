package dto

import "github.com/mmoforge/skillstore/internal/models"

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

type LeaderboardResponse struct {
	Skill   string              `json:"skill"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
	Entries []models.PlayerStat `json:"entries"`
}

type RankResponse struct {
	Player  string         `json:"player"`
	Ranks   map[string]int `json:"ranks"`
	Overall int            `json:"overall"`
}

type PurgeResponse struct {
	Purged int `json:"purged"`
}

type RemoveUserResponse struct {
	Removed bool `json:"removed"`
}
