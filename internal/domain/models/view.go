package models

// ViewMode selects which task collection the board shows.
type ViewMode string

const (
	ViewPrivate ViewMode = "private"
	ViewGroup   ViewMode = "group"
)

// ParseViewMode maps a raw value to a ViewMode; anything unknown is private.
func ParseViewMode(s string) ViewMode {
	if ViewMode(s) == ViewGroup {
		return ViewGroup
	}
	return ViewPrivate
}

// View is the active (mode, group) pair remembered across reloads.
type View struct {
	Mode    ViewMode `json:"mode"`
	GroupID string   `json:"group_id"`
}

// PrivateView is the default view for a freshly signed-in user.
func PrivateView() View {
	return View{Mode: ViewPrivate}
}
