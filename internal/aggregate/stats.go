package aggregate

import "royalties/internal/core"

// DashboardStats are the headline numbers of the admin dashboard.
type DashboardStats struct {
	Users         int
	UsersByRole   map[core.Role]int
	Works         int
	WorksByStatus map[core.StatusName]int
	LogSheets     int
	Selections    int
}

func Stats(users []core.User, tracks []core.Track, sheets []core.LogSheet) DashboardStats {
	s := DashboardStats{
		Users:         len(users),
		UsersByRole:   make(map[core.Role]int),
		Works:         len(tracks),
		WorksByStatus: map[core.StatusName]int{core.StatusApproved: 0, core.StatusPending: 0, core.StatusRejected: 0},
		LogSheets:     len(sheets),
	}
	for _, u := range users {
		s.UsersByRole[u.Role]++
	}
	for _, t := range tracks {
		s.WorksByStatus[t.StatusName()]++
	}
	for _, l := range sheets {
		s.Selections += len(l.SelectedMusic)
	}
	return s
}

// Pending is the number of works waiting for review.
func (s DashboardStats) Pending() int { return s.WorksByStatus[core.StatusPending] }
