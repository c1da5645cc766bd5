package aggregate

import (
	"strings"

	"royalties/internal/core"
)

// SheetsForArtist keeps the sheets with at least one selection belonging to
// user. A selection belongs to the user when its id is one of the user's
// works, it is owned by the user's id or e-mail, or its title and artist
// match one of the user's works.
func SheetsForArtist(sheets []core.LogSheet, user core.User, tracks []core.Track) []core.LogSheet {
	idx := newTrackIndex(tracks)
	email := strings.ToLower(strings.TrimSpace(user.Email))

	out := make([]core.LogSheet, 0)
	for _, sheet := range sheets {
		for _, sel := range sheet.SelectedMusic {
			if belongsTo(sel, user.ID, email, idx) {
				out = append(out, sheet)
				break
			}
		}
	}
	return out
}

func belongsTo(sel core.Selection, userID int64, email string, idx *trackIndex) bool {
	if userID != 0 && sel.OwnerID() == userID {
		return true
	}
	if email != "" && sel.User != nil && strings.ToLower(strings.TrimSpace(sel.User.Email)) == email {
		return true
	}
	_, ok := idx.lookup(sel)
	return ok
}
