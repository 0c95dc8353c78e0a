// Package models contains shared data models used across the autodesign codebase.
package models

import (
	"fmt"
	"slices"
)

// Layout types offered by the form. Only LayoutLShaped is accepted by the
// generation API today; the others are shown disabled.
const (
	LayoutLShaped = "L-Shaped"
	LayoutUShaped = "U-Shaped"
	LayoutIShaped = "I-Shaped"
)

// Room dimension constraints in millimetres.
const (
	MinRoomSize     = 3500
	MaxRoomSize     = 6000
	RoomSizeStep    = 100
	DefaultRoomSize = 4000
)

// Option is a selectable form value with its display label.
type Option struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Catalog lists every value the form can submit, grouped by category.
type Catalog struct {
	Layouts          []Option
	Appliances       []Option
	PlumbingFixtures []Option
	Cabinets         []Option
	Worktops         []Option
}

// DefaultCatalog returns the option set presented by the design form.
func DefaultCatalog() Catalog {
	return Catalog{
		Layouts: []Option{
			{Label: "L-Shaped", Value: LayoutLShaped},
			{Label: "U-Shaped", Value: LayoutUShaped, Disabled: true},
			{Label: "I-Shaped", Value: LayoutIShaped, Disabled: true},
		},
		Appliances: []Option{
			{Label: "Cooktop", Value: "cooktop"},
			{Label: "Refrigerator", Value: "refrigerator"},
			{Label: "Oven", Value: "oven"},
			{Label: "Range", Value: "range"},
			{Label: "Dishwasher", Value: "dishwasher"},
		},
		PlumbingFixtures: []Option{
			{Label: "Sink", Value: "sink"},
		},
		Cabinets: []Option{
			{Label: "Wall Cabinet", Value: "roof"},
			{Label: "Base Cabinet", Value: "base"},
			{Label: "Tall Cabinet", Value: "tall"},
		},
		Worktops: []Option{
			{Label: "Granite", Value: "Granite"},
		},
	}
}

// Selection is the user's design input. It is never persisted beyond the
// session that collected it.
type Selection struct {
	Layout           string   `json:"layout"`
	Width            int      `json:"width"`
	Depth            int      `json:"depth"`
	Appliances       []string `json:"appliances"`
	PlumbingFixtures []string `json:"plumbing_fixtures"`
	Cabinets         []string `json:"cabinets"`
	Worktop          string   `json:"worktop"`
}

// DefaultSelection returns the values the form starts with.
func DefaultSelection() Selection {
	return Selection{
		Layout:           LayoutLShaped,
		Width:            DefaultRoomSize,
		Depth:            DefaultRoomSize,
		Appliances:       []string{"cooktop", "refrigerator", "dishwasher"},
		PlumbingFixtures: []string{"sink"},
		Cabinets:         []string{"roof", "base", "tall"},
		Worktop:          "Granite",
	}
}

// ValidationError reports a selection that cannot be submitted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the selection against the catalog. Category checks run in
// form order so the first empty category is the one reported.
func (s Selection) Validate(c Catalog) error {
	if len(s.Appliances) == 0 {
		return &ValidationError{Field: "appliances", Message: "Please select at least one appliance."}
	}
	if len(s.PlumbingFixtures) == 0 {
		return &ValidationError{Field: "plumbing_fixtures", Message: "Please select at least one plumbing fixture."}
	}
	if len(s.Cabinets) == 0 {
		return &ValidationError{Field: "cabinets", Message: "Please select at least one cabinet type."}
	}
	if s.Worktop == "" {
		return &ValidationError{Field: "worktop", Message: "Please select a worktop material."}
	}

	if !enabled(c.Layouts, s.Layout) {
		return &ValidationError{Field: "layout", Message: fmt.Sprintf("layout %q is not available", s.Layout)}
	}
	if err := checkDimension("width", s.Width); err != nil {
		return err
	}
	if err := checkDimension("depth", s.Depth); err != nil {
		return err
	}

	groups := []struct {
		field   string
		values  []string
		options []Option
	}{
		{"appliances", s.Appliances, c.Appliances},
		{"plumbing_fixtures", s.PlumbingFixtures, c.PlumbingFixtures},
		{"cabinets", s.Cabinets, c.Cabinets},
		{"worktop", []string{s.Worktop}, c.Worktops},
	}
	for _, g := range groups {
		for _, v := range g.values {
			if !enabled(g.options, v) {
				return &ValidationError{Field: g.field, Message: fmt.Sprintf("unknown option %q", v)}
			}
		}
	}
	return nil
}

func checkDimension(field string, v int) error {
	if v < MinRoomSize || v > MaxRoomSize {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be between %d and %d mm", MinRoomSize, MaxRoomSize),
		}
	}
	return nil
}

func enabled(options []Option, value string) bool {
	return slices.ContainsFunc(options, func(o Option) bool {
		return o.Value == value && !o.Disabled
	})
}

// Normalized returns a copy of s in which each category holds every value
// at most once, in first-seen order.
func (s Selection) Normalized() Selection {
	s.Appliances = unique(s.Appliances)
	s.PlumbingFixtures = unique(s.PlumbingFixtures)
	s.Cabinets = unique(s.Cabinets)
	return s
}

func unique(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
