package desktop

import "github.com/ironsheep/device-apps-bridge/internal/registry"

// categoryByName maps freedesktop menu categories onto registry categories.
var categoryByName = map[string]registry.Category{
	"Game":             registry.CategoryGame,
	"Audio":            registry.CategoryAudio,
	"Music":            registry.CategoryAudio,
	"Video":            registry.CategoryVideo,
	"AudioVideo":       registry.CategoryVideo,
	"TV":               registry.CategoryVideo,
	"Graphics":         registry.CategoryImage,
	"Photography":      registry.CategoryImage,
	"Viewer":           registry.CategoryImage,
	"Chat":             registry.CategorySocial,
	"InstantMessaging": registry.CategorySocial,
	"IRCClient":        registry.CategorySocial,
	"VideoConference":  registry.CategorySocial,
	"News":             registry.CategoryNews,
	"Feed":             registry.CategoryNews,
	"Maps":             registry.CategoryMaps,
	"Office":           registry.CategoryProductivity,
	"Calendar":         registry.CategoryProductivity,
	"WordProcessor":    registry.CategoryProductivity,
	"Spreadsheet":      registry.CategoryProductivity,
	"Accessibility":    registry.CategoryAccessibility,
}

// categoryOf returns the first recognised category in entry order.
func categoryOf(categories []string) registry.Category {
	for _, c := range categories {
		if cat, ok := categoryByName[c]; ok {
			return cat
		}
	}
	return registry.CategoryUndefined
}
