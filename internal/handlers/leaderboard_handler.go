package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mmoforge/skillstore/internal/dto"
	"github.com/mmoforge/skillstore/internal/models"
	"github.com/mmoforge/skillstore/internal/store"
)

type LeaderboardHandler struct {
	store *store.Store
}

func NewLeaderboardHandler(st *store.Store) *LeaderboardHandler {
	return &LeaderboardHandler{store: st}
}

// Leaderboard serves one page of a skill leaderboard. Skill "all" (or an
// empty path segment) selects the total column.
func (h *LeaderboardHandler) Leaderboard(c *fiber.Ctx) error {
	var skill models.Skill
	name := c.Params("skill")
	if name != "" && name != "all" {
		skill = models.ParseSkill(name)
		if skill == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Unknown skill: " + name,
			})
		}
	}

	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 10)
	if page < 1 || perPage < 1 || perPage > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid pagination",
		})
	}

	entries := h.store.ReadLeaderboard(skill, page, perPage)
	label := string(skill)
	if label == "" {
		label = "all"
	}
	return c.JSON(dto.LeaderboardResponse{
		Skill:   label,
		Page:    page,
		PerPage: perPage,
		Entries: entries,
	})
}

// Rank serves a player's per-skill and overall positions.
func (h *LeaderboardHandler) Rank(c *fiber.Ctx) error {
	player := c.Params("player")
	if player == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Player name required",
		})
	}

	ranks := h.store.ReadRank(player)
	out := make(map[string]int, len(ranks.Skills))
	for skill, rank := range ranks.Skills {
		out[string(skill)] = rank
	}
	return c.JSON(dto.RankResponse{
		Player:  player,
		Ranks:   out,
		Overall: ranks.Overall,
	})
}
