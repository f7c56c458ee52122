package sources

import (
	"context"
	"fmt"
	"sort"
)

// Astronaut is a person currently in orbit.
type Astronaut struct {
	Name  string `json:"name"`
	Craft string `json:"craft"`
}

// Crew is the roster of people in space.
type Crew struct {
	Number int         `json:"number"`
	People []Astronaut `json:"people"`
}

// CraftGroup lists the people aboard one craft.
type CraftGroup struct {
	Craft  string
	People []string
}

// ByCraft groups the roster by craft, largest crew first, then by name.
func (c Crew) ByCraft() []CraftGroup {
	idx := make(map[string]int)
	var groups []CraftGroup
	for _, p := range c.People {
		i, ok := idx[p.Craft]
		if !ok {
			i = len(groups)
			idx[p.Craft] = i
			groups = append(groups, CraftGroup{Craft: p.Craft})
		}
		groups[i].People = append(groups[i].People, p.Name)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].People) != len(groups[j].People) {
			return len(groups[i].People) > len(groups[j].People)
		}
		return groups[i].Craft < groups[j].Craft
	})
	return groups
}

type crewResponse struct {
	Message string      `json:"message"`
	Number  int         `json:"number"`
	People  []Astronaut `json:"people"`
}

// Crew fetches the people currently in space.
func (c *Client) Crew(ctx context.Context) (Crew, error) {
	var r crewResponse
	if err := c.getJSON(ctx, c.endpoints.Crew, &r); err != nil {
		return Crew{}, err
	}
	if r.Message != "success" {
		return Crew{}, fmt.Errorf("crew payload message %q", r.Message)
	}

	number := r.Number
	if number == 0 {
		number = len(r.People)
	}
	return Crew{Number: number, People: r.People}, nil
}
