package transmission

// Category groups session statistics the way the daemon reports them.
type Category string

const (
	// General covers point-in-time session attributes.
	General Category = "general"
	// Cumulative covers all-time counters across daemon restarts.
	Cumulative Category = "cumulative"
	// Current covers counters scoped to the running daemon session.
	Current Category = "current"
)

// Categories lists the catalog categories in emission order. The order
// is fixed so sample output is reproducible between ticks.
var Categories = []Category{General, Cumulative, Current}

// Catalog maps each category to its metric identifiers in the daemon's
// naming convention. Read-only for the lifetime of the process.
var Catalog = map[Category][]string{
	General: {
		"activeTorrentCount",
		"torrentCount",
		"downloadSpeed",
		"uploadSpeed",
		"pausedTorrentCount",
		"blocklist_size",
	},
	Cumulative: {
		"downloadedBytes",
		"filesAdded",
		"uploadedBytes",
		"secondsActive",
		"sessionCount",
	},
	Current: {
		"downloadedBytes",
		"filesAdded",
		"uploadedBytes",
		"secondsActive",
		"sessionCount",
	},
}

// CatalogSize returns the total number of catalog metrics across all
// categories.
func CatalogSize() int {
	n := 0
	for _, cat := range Categories {
		n += len(Catalog[cat])
	}
	return n
}
