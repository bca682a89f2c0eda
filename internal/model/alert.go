package model

// SecurityAlert is an informational feed entry shown on the dashboard.
type SecurityAlert struct {
	ID          string `json:"id"`
	Type        string `json:"type"` // critical | warning | info | success
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}
