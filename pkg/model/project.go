// pkg/model/project.go
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Difficulty is the ordered project difficulty level (1..4)
type Difficulty int

const (
	DifficultyUnknown Difficulty = iota
	Beginner
	Intermediate
	Advanced
	Expert
)

// MinDifficulty and MaxDifficulty bound the ordinal range
const (
	MinDifficulty = Beginner
	MaxDifficulty = Expert
)

// String returns the display name of the level
func (d Difficulty) String() string {
	switch d {
	case Beginner:
		return "Beginner"
	case Intermediate:
		return "Intermediate"
	case Advanced:
		return "Advanced"
	case Expert:
		return "Expert"
	default:
		return "Unknown"
	}
}

// Valid reports whether d is one of the four levels
func (d Difficulty) Valid() bool {
	return d >= MinDifficulty && d <= MaxDifficulty
}

// ParseDifficulty maps a level name (case-insensitive) to its ordinal
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "beginner":
		return Beginner, nil
	case "intermediate":
		return Intermediate, nil
	case "advanced":
		return Advanced, nil
	case "expert":
		return Expert, nil
	default:
		return DifficultyUnknown, fmt.Errorf("unknown difficulty %q", s)
	}
}

// MarshalJSON encodes the level by name
func (d Difficulty) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts the level name or its ordinal; unknown levels decode to DifficultyUnknown
func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Difficulty(n)
		if !d.Valid() {
			*d = DifficultyUnknown
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("difficulty must be a string: %w", err)
	}
	parsed, err := ParseDifficulty(s)
	if err != nil {
		*d = DifficultyUnknown
		return nil
	}
	*d = parsed
	return nil
}

// Project is a catalog record
type Project struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Tech        []string   `json:"tech"`
	Datasets    []string   `json:"datasets"`
	Keywords    []string   `json:"keywords,omitempty"`
	Difficulty  Difficulty `json:"difficulty"`
	Domain      string     `json:"domain"`
	GithubURL   string     `json:"github_url,omitempty"`
}

// ProjectGroup is one domain section of the catalog file
type ProjectGroup struct {
	Domain   string    `json:"domain"`
	Projects []Project `json:"projects"`
}

// Validate checks the required fields of a record
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("project title is required")
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("project %q: description is required", p.Title)
	}
	if !p.Difficulty.Valid() {
		return fmt.Errorf("project %q: invalid difficulty", p.Title)
	}
	return nil
}
