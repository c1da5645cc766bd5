package aggregate

import (
	"slices"
	"strings"

	"royalties/internal/core"
)

// trackIndex relates selections to a known set of works, by id or by
// normalized title and artist.
type trackIndex struct {
	byID  map[int64]core.Track
	byKey map[string]core.Track
}

func newTrackIndex(tracks []core.Track) *trackIndex {
	idx := &trackIndex{
		byID:  make(map[int64]core.Track, len(tracks)),
		byKey: make(map[string]core.Track, len(tracks)),
	}
	for _, t := range tracks {
		if t.ID != 0 {
			idx.byID[t.ID] = t
		}
		if strings.TrimSpace(t.Title) != "" {
			if _, ok := idx.byKey[t.MatchKey()]; !ok {
				idx.byKey[t.MatchKey()] = t
			}
		}
	}
	return idx
}

func (idx *trackIndex) empty() bool {
	return len(idx.byID) == 0 && len(idx.byKey) == 0
}

func (idx *trackIndex) lookup(s core.Selection) (core.Track, bool) {
	if s.TrackID != 0 {
		t, ok := idx.byID[s.TrackID]
		return t, ok
	}
	key := strings.ToLower(strings.TrimSpace(s.DisplayTitle())) + "|||" + strings.ToLower(strings.TrimSpace(s.ArtistName()))
	t, ok := idx.byKey[key]
	return t, ok
}

// owner resolves the owning user of a selection, falling back to the matched
// work's uploader.
func owner(s core.Selection, known core.Track, matched bool) int64 {
	if id := s.OwnerID(); id != 0 {
		return id
	}
	if matched {
		return known.OwnerID()
	}
	return 0
}

// BySong tallies selections per work. A non-zero userID skips selections
// owned by other users. When tracks is non-empty only selections of those
// works are counted.
func BySong(sheets []core.LogSheet, tracks []core.Track, userID int64) SongReport {
	idx := newTrackIndex(tracks)
	restrict := !idx.empty()

	songs := make(map[string]*SongCount)
	var order []string
	companies := newCounter()
	days := newCounter()
	total := 0

	for _, sheet := range sheets {
		company := sheet.CompanyName(UnknownCompany)
		day := dayKey(sheet.CreatedDate)

		for _, sel := range sheet.SelectedMusic {
			known, matched := idx.lookup(sel)
			if restrict && !matched {
				continue
			}
			if userID != 0 && owner(sel, known, matched) != userID {
				continue
			}

			key := sel.Key()
			song, ok := songs[key]
			if !ok {
				song = &SongCount{
					Key:        key,
					ID:         sel.TrackID,
					Title:      sel.DisplayTitle(),
					ArtistName: sel.ArtistName(),
					OwnerID:    owner(sel, known, matched),
					Companies:  make(map[string]int),
				}
				if matched && strings.TrimSpace(sel.Title) == "" && known.Title != "" {
					song.Title = known.Title
				}
				songs[key] = song
				order = append(order, key)
			}

			song.TotalSelections++
			if _, seen := song.Companies[company]; !seen {
				song.companyOrder = append(song.companyOrder, company)
			}
			song.Companies[company]++
			companies.add(company, 1)
			if day != "" {
				days.add(day, 1)
			}
			total++
		}
	}

	all := make([]SongCount, 0, len(order))
	for _, k := range order {
		all = append(all, *songs[k])
	}
	slices.SortStableFunc(all, func(a, b SongCount) int { return b.TotalSelections - a.TotalSelections })

	return SongReport{
		TopTracks:       Top(all, TopN),
		AllTracks:       all,
		CompanyData:     companies.list(),
		TimelineData:    days.timeline(TimelineDays),
		HistogramData:   dailyFrequency(days),
		TotalSelections: total,
	}
}

// dailyFrequency counts how many days had exactly N selections, ascending
// by N.
func dailyFrequency(days *counter) []HistogramBin {
	freq := make(map[int]int)
	for _, n := range days.counts {
		freq[n]++
	}
	values := make([]int, 0, len(freq))
	for n := range freq {
		values = append(values, n)
	}
	slices.Sort(values)

	out := make([]HistogramBin, 0, len(values))
	for _, n := range values {
		out = append(out, HistogramBin{Range: itoa(n), Min: float64(n), Max: float64(n), Count: freq[n]})
	}
	return out
}

// ArtistVsOthers splits all selections between those owned by userID and
// the rest. OthersTotal never goes below zero.
func ArtistVsOthers(sheets []core.LogSheet, userID int64) Share {
	total, artist := 0, 0
	for _, sheet := range sheets {
		for _, sel := range sheet.SelectedMusic {
			total++
			if userID != 0 && sel.OwnerID() == userID {
				artist++
			}
		}
	}
	return Share{ArtistTotal: artist, OthersTotal: max(0, total-artist)}
}

// SongDistribution buckets the per-song totals into binCount equal-width bins.
func SongDistribution(songs []SongCount, binCount int) []HistogramBin {
	values := make([]int, len(songs))
	for i, s := range songs {
		values[i] = s.TotalSelections
	}
	return BinValues(values, binCount)
}

// CompanyDistribution buckets per-company totals.
func CompanyDistribution(companies []NamedCount, binCount int) []HistogramBin {
	values := make([]int, len(companies))
	for i, c := range companies {
		values[i] = c.Count
	}
	return BinValues(values, binCount)
}
