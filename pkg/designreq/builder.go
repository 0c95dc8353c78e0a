// Package designreq maps a design selection onto the generation API's
// request document.
package designreq

import (
	"strings"

	"github.com/kiranshivaraju/autodesign/pkg/models"
)

// Template values the API expects verbatim. None of them are derived from
// user input.
const (
	designName         = "Sample Design v1.2"
	formatVersion      = "1.2.0"
	applicationID      = "TestHub"
	applicationVersion = "1.5.17"

	spaceID   = "1532d48e-73b8-4b79-8eea-6159db89350d"
	spaceName = "Kitchen Space"
	floorID   = "0f51b8fb-e147-4a80-91ba-0047d881c7cf"
	ceilingID = "c58c9ce1-cb93-48da-9d1d-aae3efb0ec12"

	wallType      = "solidWall"
	wallThickness = 150
	wallHeight    = 3200

	functionStyle = "modern"
)

// Catalog versions each item group is drawn from.
var (
	applianceCatalogs = []int{6958, 8347}
	plumbingCatalogs  = []int{6958}
	cabinetCatalogs   = []int{8204}
	worktopCatalogs   = []int{8204}
)

// Builder constructs design request documents.
// All methods are pure functions with no side effects.
// Zero value is ready to use.
type Builder struct{}

// Build returns the request document for sel. Categories with no selections
// produce no item group at all; the API's handling of empty groups is
// undefined. Repeated values within a category are emitted once.
func (b Builder) Build(sel models.Selection) models.DesignRequest {
	sel = sel.Normalized()
	return models.DesignRequest{
		SourceDesign: models.SourceDesign{
			Info: models.DesignInfo{
				Name:          designName,
				FormatVersion: formatVersion,
				Source: models.DesignSource{
					ApplicationID:      applicationID,
					ApplicationVersion: applicationVersion,
				},
				CoordinateConventions: models.CoordinateConventions{
					BaseMeasurementUnit: "mm",
					AxisOrientation:     "rightHanded",
					AxisElevation:       "zAxisUp",
				},
			},
			Spaces: []models.Space{{
				ID:        spaceID,
				Name:      spaceName,
				Functions: []string{"kitchen"},
				Walls:     models.Walls{PerimeterWalls: b.Walls(sel.Width, sel.Depth)},
				Floor:     models.Ref{ID: floorID},
				Ceiling:   models.Ref{ID: ceilingID},
			}},
		},
		AutoDesignInputs: models.AutoDesignInputs{
			RoomConfig: models.RoomConfig{
				FunctionLayoutType: sel.Layout,
				FunctionStyle:      functionStyle,
			},
			RequiredItemTypes: b.itemGroups(sel),
		},
	}
}

// Walls returns the perimeter of a width x depth room anchored at the
// origin, walked counter-clockwise from the south wall. Only the south wall
// faces outdoors.
func (b Builder) Walls(width, depth int) []models.Wall {
	corners := []struct {
		id, name string
		pos      [2]int
	}{
		{"south_wall", "South Wall", [2]int{0, 0}},
		{"east_wall", "East Wall", [2]int{width, 0}},
		{"north_wall", "North Wall", [2]int{width, depth}},
		{"west_wall", "West Wall", [2]int{0, depth}},
	}

	walls := make([]models.Wall, len(corners))
	for i, c := range corners {
		walls[i] = models.Wall{
			ID:               c.id,
			Type:             wallType,
			Name:             c.name,
			StartPosition:    c.pos,
			Thickness:        wallThickness,
			OutdoorPerimeter: i == 0,
			StartHeight:      wallHeight,
			EndHeight:        wallHeight,
		}
	}
	return walls
}

func (b Builder) itemGroups(sel models.Selection) []models.RequiredItemType {
	groups := []models.RequiredItemType{}

	if prefs := b.prefixed("appliance.", sel.Appliances); len(prefs) > 0 {
		groups = append(groups, group(applianceCatalogs, prefs))
	}
	if prefs := b.prefixed("plumbingFixture.", sel.PlumbingFixtures); len(prefs) > 0 {
		groups = append(groups, group(plumbingCatalogs, prefs))
	}

	if len(sel.Cabinets) > 0 {
		prefs := make([]models.ItemPreference, len(sel.Cabinets))
		for i, c := range sel.Cabinets {
			prefs[i] = models.ItemPreference{BaseItemType: "cabinetry.cabinet", SubType: c}
		}
		groups = append(groups, group(cabinetCatalogs, prefs))
	}

	if sel.Worktop != "" {
		groups = append(groups, group(worktopCatalogs, []models.ItemPreference{{
			BaseItemType: "worktop.slab",
			Material:     strings.ToLower(sel.Worktop),
		}}))
	}

	return groups
}

func (b Builder) prefixed(prefix string, values []string) []models.ItemPreference {
	if len(values) == 0 {
		return nil
	}
	prefs := make([]models.ItemPreference, len(values))
	for i, v := range values {
		prefs[i] = models.ItemPreference{BaseItemType: prefix + v}
	}
	return prefs
}

// group copies catalogs so callers mutating one document never alias another.
func group(catalogs []int, prefs []models.ItemPreference) models.RequiredItemType {
	return models.RequiredItemType{
		CatalogVersionIDs: append([]int(nil), catalogs...),
		Preferences:       prefs,
	}
}
