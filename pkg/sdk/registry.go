package sdk

import (
	"slices"
	"strings"
)

// ElementTypes is the closed set of element type names the API serves
var ElementTypes = []string{
	"ability",
	"character",
	"collective",
	"construct",
	"creature",
	"event",
	"family",
	"institution",
	"language",
	"law",
	"location",
	"map",
	"marker",
	"narrative",
	"object",
	"phenomenon",
	"pin",
	"relation",
	"species",
	"title",
	"trait",
	"zone",
}

var elementLabels = map[string]string{
	"ability":     "Abilities",
	"character":   "Characters",
	"collective":  "Collectives",
	"construct":   "Constructs",
	"creature":    "Creatures",
	"event":       "Events",
	"family":      "Families",
	"institution": "Institutions",
	"language":    "Languages",
	"law":         "Laws",
	"location":    "Locations",
	"map":         "Maps",
	"marker":      "Markers",
	"narrative":   "Narratives",
	"object":      "Objects",
	"phenomenon":  "Phenomena",
	"pin":         "Pins",
	"relation":    "Relations",
	"species":     "Species",
	"title":       "Titles",
	"trait":       "Traits",
	"zone":        "Zones",
}

// Material icon names
var elementIcons = map[string]string{
	"ability":     "auto_fix_normal",
	"character":   "person",
	"collective":  "groups",
	"construct":   "api",
	"creature":    "bug_report",
	"event":       "event",
	"family":      "supervisor_account",
	"institution": "business",
	"language":    "translate",
	"law":         "gavel",
	"location":    "castle",
	"map":         "map",
	"marker":      "place",
	"narrative":   "menu_book",
	"object":      "hub",
	"phenomenon":  "thunderstorm",
	"pin":         "push_pin",
	"relation":    "link",
	"species":     "child_care",
	"title":       "military_tech",
	"trait":       "ac_unit",
	"zone":        "architecture",
}

// CommonSupertypes suggests supertype values for a few element types
var CommonSupertypes = map[string][]string{
	"character": {"protagonist", "antagonist", "supporting", "minor", "historical"},
	"location":  {"city", "wilderness", "building", "landmark", "region"},
	"object":    {"weapon", "armor", "tool", "artifact", "consumable"},
	"event":     {"battle", "ceremony", "disaster", "discovery", "political"},
	"creature":  {"beast", "monster", "animal", "mythical", "alien"},
}

// IsElementType reports whether name is a known element type
func IsElementType(name string) bool {
	return slices.Contains(ElementTypes, name)
}

// Label returns the plural display label for an element type
func Label(elementType string) string {
	if label, ok := elementLabels[elementType]; ok {
		return label
	}
	return strings.ToUpper(elementType[:min(1, len(elementType))]) + elementType[min(1, len(elementType)):]
}

// Icon returns the icon name for an element type, empty if unknown
func Icon(elementType string) string {
	return elementIcons[elementType]
}

func validateType(elementType string) error {
	if !IsElementType(elementType) {
		return invalidArgument("invalid element type: %q", elementType)
	}
	return nil
}
