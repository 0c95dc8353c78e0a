package models

// DesignRequest is the body of POST /ai-auto-design. Field order is fixed by
// the struct layout so identical inputs encode to identical bytes.
type DesignRequest struct {
	SourceDesign     SourceDesign     `json:"sourceDesign"`
	AutoDesignInputs AutoDesignInputs `json:"autoDesignInputs"`
}

type SourceDesign struct {
	Info   DesignInfo `json:"info"`
	Spaces []Space    `json:"spaces"`
}

type DesignInfo struct {
	Name                  string                `json:"name"`
	FormatVersion         string                `json:"formatVersion"`
	Source                DesignSource          `json:"source"`
	CoordinateConventions CoordinateConventions `json:"coordinateConventions"`
}

type DesignSource struct {
	ApplicationID      string `json:"applicationId"`
	ApplicationVersion string `json:"applicationVersion"`
}

type CoordinateConventions struct {
	BaseMeasurementUnit string `json:"baseMeasurementUnit"`
	AxisOrientation     string `json:"axisOrientation"`
	AxisElevation       string `json:"axisElevation"`
}

type Space struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Functions []string `json:"functions"`
	Walls     Walls    `json:"walls"`
	Floor     Ref      `json:"floor"`
	Ceiling   Ref      `json:"ceiling"`
}

type Walls struct {
	PerimeterWalls []Wall `json:"perimeterWalls"`
}

// Wall is one perimeter wall. StartPosition is (x, y) in millimetres; each
// wall ends where the next one starts.
type Wall struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Name             string `json:"name"`
	StartPosition    [2]int `json:"startPosition"`
	Thickness        int    `json:"thickness"`
	OutdoorPerimeter bool   `json:"outdoorPerimeter"`
	StartHeight      int    `json:"startHeight"`
	EndHeight        int    `json:"endHeight"`
}

type Ref struct {
	ID string `json:"id"`
}

type AutoDesignInputs struct {
	RoomConfig        RoomConfig         `json:"roomConfig"`
	RequiredItemTypes []RequiredItemType `json:"requiredItemTypes"`
}

type RoomConfig struct {
	FunctionLayoutType string `json:"functionLayoutType"`
	FunctionStyle      string `json:"functionStyle"`
}

// RequiredItemType is one group of item preferences drawn from the listed
// catalog versions.
type RequiredItemType struct {
	CatalogVersionIDs []int            `json:"catalogVersionIDs"`
	Preferences       []ItemPreference `json:"preferences"`
}

type ItemPreference struct {
	BaseItemType string `json:"baseItemType"`
	SubType      string `json:"subType,omitempty"`
	Material     string `json:"material,omitempty"`
}
