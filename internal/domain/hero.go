package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Hero is the normalized, display-ready record of one fetched character.
// Name is the uniqueness key inside a collection.
type Hero struct {
	Name         string `json:"name"`
	Intelligence int    `json:"intelligence"`
	Strength     int    `json:"strength"`
	ImageURL     string `json:"imageUrl"`
}

// StatValue accepts both JSON numbers and numeric strings. The upstream API
// sends stats as strings and uses "null" for unknown values, which map to 0.
type StatValue int

func (v *StatValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}

	*v = StatValue(parseStat(raw))
	return nil
}

func parseStat(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0
	}
	return int(f)
}

type PowerStats struct {
	Intelligence StatValue `json:"intelligence"`
	Strength     StatValue `json:"strength"`
}

type HeroImage struct {
	URL string `json:"url"`
}

// HeroResponse mirrors the fields of the superhero API payload this service
// reads. Pointers distinguish an absent object from an empty one.
type HeroResponse struct {
	Response   string      `json:"response,omitempty"`
	Error      string      `json:"error,omitempty"`
	ID         string      `json:"id,omitempty"`
	Name       string      `json:"name"`
	PowerStats *PowerStats `json:"powerstats"`
	Image      *HeroImage  `json:"image"`
}

// MissingField names the first required field absent from the payload, or
// returns "" when a hero can be built from it.
func (r *HeroResponse) MissingField() string {
	switch {
	case r.PowerStats == nil:
		return "powerstats"
	case r.Image == nil:
		return "image"
	case strings.TrimSpace(r.Image.URL) == "":
		return "image.url"
	case strings.TrimSpace(r.Name) == "":
		return "name"
	}
	return ""
}

// ToHero builds the record. Callers check MissingField first.
func (r *HeroResponse) ToHero() Hero {
	return Hero{
		Name:         r.Name,
		Intelligence: int(r.PowerStats.Intelligence),
		Strength:     int(r.PowerStats.Strength),
		ImageURL:     r.Image.URL,
	}
}
