package hunt

type Hunt struct {
	ID        uint64 `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	AdminID   string `json:"adminId" db:"admin_id"`
	StartTime int64  `json:"startTime" db:"start_time"`
	EndTime   int64  `json:"endTime" db:"end_time"`
	Active    bool   `json:"active" db:"active"`
}

// ActiveAt reports whether the hunt accepts submissions at ts: it must be
// switched on and ts must fall inside [start, end).
func (h *Hunt) ActiveAt(ts int64) bool {
	return h.Active && ts >= h.StartTime && ts < h.EndTime
}

type CreateHuntRequest struct {
	Name      string `json:"name"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type UpdateHuntRequest struct {
	Name    string `json:"name"`
	EndTime int64  `json:"endTime"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}
