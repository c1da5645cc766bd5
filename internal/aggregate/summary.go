package aggregate

import (
	"slices"
	"strings"

	"royalties/internal/core"
)

// Summary is the admin performance overview across all artists.
type Summary struct {
	Songs           []SongCount
	Artists         []NamedCount
	Companies       []CompanyCount
	TotalSheets     int
	TotalSelections int
}

// Summarize tallies every selection by song, artist and company. Songs and
// artists are sorted by count, highest first; companies by selections.
func Summarize(sheets []core.LogSheet) Summary {
	songs := make(map[string]*SongCount)
	var songOrder []string
	artists := newCounter()
	companySheets := newCounter()
	companyMusic := newCounter()
	total := 0

	for _, sheet := range sheets {
		company := sheet.CompanyName(core.UnknownCompany)
		companySheets.add(company, 1)
		companyMusic.add(company, len(sheet.SelectedMusic))

		for _, sel := range sheet.SelectedMusic {
			key := sel.Key()
			song, ok := songs[key]
			if !ok {
				song = &SongCount{
					Key:        key,
					ID:         sel.TrackID,
					Title:      sel.DisplayTitle(),
					ArtistName: sel.ArtistName(),
					OwnerID:    sel.OwnerID(),
					Companies:  make(map[string]int),
				}
				songs[key] = song
				songOrder = append(songOrder, key)
			}
			song.TotalSelections++
			if _, seen := song.Companies[company]; !seen {
				song.companyOrder = append(song.companyOrder, company)
			}
			song.Companies[company]++
			artists.add(sel.ArtistName(), 1)
			total++
		}
	}

	all := make([]SongCount, 0, len(songOrder))
	for _, k := range songOrder {
		all = append(all, *songs[k])
	}
	slices.SortStableFunc(all, func(a, b SongCount) int { return b.TotalSelections - a.TotalSelections })

	companies := make([]CompanyCount, 0, len(companySheets.order))
	for _, name := range companySheets.order {
		companies = append(companies, CompanyCount{
			Company:       name,
			Sheets:        companySheets.counts[name],
			SelectedMusic: companyMusic.counts[name],
		})
	}
	slices.SortStableFunc(companies, func(a, b CompanyCount) int { return b.SelectedMusic - a.SelectedMusic })

	return Summary{
		Songs:           all,
		Artists:         sortedDesc(artists.list()),
		Companies:       companies,
		TotalSheets:     len(sheets),
		TotalSelections: total,
	}
}

func (s Summary) TopSongs() []SongCount        { return Top(s.Songs, TopN) }
func (s Summary) TopArtists() []NamedCount     { return Top(s.Artists, TopN) }
func (s Summary) TopCompanies() []CompanyCount { return Top(s.Companies, TopN) }

// FindSong looks a song up by key, or by case-insensitive title substring
// when no key matches.
func (s Summary) FindSong(query string) (SongCount, bool) {
	for _, song := range s.Songs {
		if song.Key == query {
			return song, true
		}
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return SongCount{}, false
	}
	for _, song := range s.Songs {
		if strings.Contains(strings.ToLower(song.Title), q) {
			return song, true
		}
	}
	return SongCount{}, false
}

// CompanySelections lists the companies that selected the work with the
// given key, most selections first.
func CompanySelections(sheets []core.LogSheet, trackKey string) []NamedCount {
	c := newCounter()
	for _, sheet := range sheets {
		for _, sel := range sheet.SelectedMusic {
			if sel.Key() == trackKey {
				c.add(sheet.CompanyName(core.UnknownCompany), 1)
			}
		}
	}
	return sortedDesc(c.list())
}

// SheetTimeline counts log sheets per day over the most recent days.
func SheetTimeline(sheets []core.LogSheet) []TimeSeriesPoint {
	days := newCounter()
	for _, sheet := range sheets {
		if d := dayKey(sheet.CreatedDate); d != "" {
			days.add(d, 1)
		}
	}
	return days.timeline(TimelineDays)
}

// SelectionTimeline counts selections per day over the most recent days.
func SelectionTimeline(sheets []core.LogSheet) []TimeSeriesPoint {
	days := newCounter()
	for _, sheet := range sheets {
		if d := dayKey(sheet.CreatedDate); d != "" && len(sheet.SelectedMusic) > 0 {
			days.add(d, len(sheet.SelectedMusic))
		}
	}
	return days.timeline(TimelineDays)
}
