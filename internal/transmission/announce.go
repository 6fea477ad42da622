package transmission

// AnnounceStats counts torrents by the outcome of their most recent
// tracker announce.
type AnnounceStats struct {
	Succeeded int
	Failed    int
}

// Aggregate scans each torrent's first tracker entry and tallies the
// last announce outcome. An empty torrent list yields zero counts. A
// torrent without any tracker entries is a daemon contract violation;
// aggregation aborts with a SchemaError rather than guessing.
func Aggregate(torrents []Torrent) (AnnounceStats, error) {
	var out AnnounceStats
	for _, t := range torrents {
		if len(t.TrackerStats) == 0 {
			return AnnounceStats{}, &SchemaError{
				Field:  "trackerStats",
				Detail: "torrent " + t.Name + " has no tracker entries",
			}
		}
		if t.TrackerStats[0].LastAnnounceSucceeded {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	return out, nil
}
