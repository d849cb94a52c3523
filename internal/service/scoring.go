package service

import (
	"fmt"
	"strings"

	"github.com/supportdesk/backend/internal/models"
)

// SkillMatch is a ticket keyword the agent could cover, with the resolved
// proficiency level.
type SkillMatch struct {
	Keyword string `json:"keyword"`
	Level   int    `json:"level"`
}

// ScoreBreakdown carries the individual weighted terms of an agent/ticket
// score. Total is their sum; magnitudes only mean anything relative to other
// agents scored for the same ticket.
type ScoreBreakdown struct {
	Skill         float64      `json:"skill"`
	Workload      float64      `json:"workload"`
	Experience    float64      `json:"experience"`
	Availability  float64      `json:"availability"`
	PriorityBonus float64      `json:"priority_bonus"`
	Total         float64      `json:"total"`
	Matches       []SkillMatch `json:"matched_skills"`
}

// ScoreAgent computes the compatibility score between an agent and a ticket
// against the given pool snapshot, plus a human-readable rationale for picking
// that agent. The pool supplies the workload and experience normalization
// baselines; the agent value itself may carry a trial workload that differs
// from its pool entry.
func ScoreAgent(agent models.Agent, ticket models.Ticket, pool []models.Agent, priority float64) (float64, string) {
	b := Breakdown(agent, ticket, pool, priority)
	rationale := buildRationale(agent, b, priority)
	return b.Total, rationale
}

// Breakdown computes the score terms without rendering a rationale.
func Breakdown(agent models.Agent, ticket models.Ticket, pool []models.Agent, priority float64) ScoreBreakdown {
	var b ScoreBreakdown

	// Skill component, weight 0.6 over average matched level plus a flat 1.0
	// bonus per match.
	keywords := ExtractKeywords(ticket)
	levelSum := 0
	for _, keyword := range keywords {
		level := ResolveSkillLevel(agent, keyword)
		if level > 0 {
			b.Matches = append(b.Matches, SkillMatch{Keyword: keyword, Level: level})
			levelSum += level
		}
	}
	if len(b.Matches) > 0 {
		avg := float64(levelSum) / float64(len(b.Matches))
		bonus := float64(len(b.Matches)) * 1.0
		b.Skill = (avg + bonus) * 0.6
	}

	// Workload component, scale 20: lower tracked load scores higher relative
	// to the pool's original load spread.
	maxLoad, minLoad := loadRange(pool)
	spread := maxLoad - minLoad
	if spread == 0 {
		spread = 1
	}
	b.Workload = float64(maxLoad-agent.CurrentLoad) / float64(spread) * 20

	// Experience component, scale 15, relative to the pool maximum.
	maxExp := 0
	for _, a := range pool {
		if a.ExperienceLevel > maxExp {
			maxExp = a.ExperienceLevel
		}
	}
	if maxExp > 0 {
		b.Experience = float64(agent.ExperienceLevel) / float64(maxExp) * 15
	}

	if agent.Availability == models.StatusAvailable {
		b.Availability = 5
	}

	b.PriorityBonus = priority * 0.5
	b.Total = b.Skill + b.Workload + b.Experience + b.Availability + b.PriorityBonus
	return b
}

func loadRange(pool []models.Agent) (maxLoad, minLoad int) {
	for i, a := range pool {
		if i == 0 {
			maxLoad, minLoad = a.CurrentLoad, a.CurrentLoad
			continue
		}
		if a.CurrentLoad > maxLoad {
			maxLoad = a.CurrentLoad
		}
		if a.CurrentLoad < minLoad {
			minLoad = a.CurrentLoad
		}
	}
	return maxLoad, minLoad
}

// buildRationale renders the deterministic explanation text. The skill-name
// lookup maps a matched level back to the first agent skill holding that
// level; when two skills share a level the cited name can be the wrong one.
// Known quirk, kept as-is: the text is display-only.
func buildRationale(agent models.Agent, b ScoreBreakdown, priority float64) string {
	var parts []string

	switch {
	case b.Skill > 6:
		details := skillDetails(agent, b.Matches, true)
		var skillText string
		if len(details) > 0 {
			skillText = "strong skills in " + strings.Join(clip(details, 2), " and ")
		} else {
			skillText = "relevant expertise in " + strings.Join(clip(matchLabels(b.Matches), 2), ", ")
		}
		parts = append(parts, fmt.Sprintf("Assigned to %s (%s) based on %s", agent.Name, agent.ID, skillText))
	case b.Skill > 3:
		details := skillDetails(agent, b.Matches, false)
		var skillText string
		if len(details) > 0 {
			skillText = "relevant skills in " + strings.Join(clip(details, 2), " and ")
		} else {
			skillText = "applicable skills in " + strings.Join(clip(matchLabels(b.Matches), 2), ", ")
		}
		parts = append(parts, fmt.Sprintf("Assigned to %s (%s) based on %s", agent.Name, agent.ID, skillText))
	default:
		parts = append(parts, fmt.Sprintf("Assigned to %s (%s) for general support", agent.Name, agent.ID))
	}

	var secondary []string
	if b.Workload > 15 {
		secondary = append(secondary, "low current workload")
	} else if b.Workload > 10 {
		secondary = append(secondary, "moderate workload")
	}
	if b.Experience > 15 {
		secondary = append(secondary, fmt.Sprintf("high experience level (%d)", agent.ExperienceLevel))
	} else if b.Experience > 10 {
		secondary = append(secondary, fmt.Sprintf("good experience (%d)", agent.ExperienceLevel))
	}
	if priority >= 4 {
		secondary = append(secondary, "high priority ticket")
	} else if priority >= 3 {
		secondary = append(secondary, "medium-high priority")
	}
	if len(secondary) > 0 {
		parts = append(parts, "considering "+strings.Join(secondary, ", "))
	}

	return strings.Join(parts, ". ") + "."
}

// skillDetails resolves matched levels back to agent skill names. The strict
// variant additionally requires name overlap between the keyword and the tag.
func skillDetails(agent models.Agent, matches []SkillMatch, strict bool) []string {
	var details []string
	for _, m := range matches {
		for _, tag := range agent.Skills.Tags() {
			level, _ := agent.Skills.Level(tag)
			if level != m.Level {
				continue
			}
			if strict {
				tagLower := strings.ToLower(tag)
				spaced := strings.ReplaceAll(tagLower, "_", " ")
				if !strings.Contains(tagLower, m.Keyword) && !strings.Contains(m.Keyword, spaced) {
					continue
				}
			}
			details = append(details, fmt.Sprintf("'%s' (%d)", tag, level))
			break
		}
	}
	return details
}

func matchLabels(matches []SkillMatch) []string {
	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, fmt.Sprintf("%s(%d)", m.Keyword, m.Level))
	}
	return labels
}

func clip(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	return values
}
