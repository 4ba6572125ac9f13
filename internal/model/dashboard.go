package model

// TopDomainUnavailable is reported when there are no users to rank.
const TopDomainUnavailable = "N/A"

// DashboardSummary is a point-in-time view of the directory.
type DashboardSummary struct {
	Stats       DashboardStats `json:"stats"`
	RecentUsers []User         `json:"recent_users"`
	Trend       []TrendPoint   `json:"trend"`
}

// DashboardStats holds aggregate counters.
type DashboardStats struct {
	TotalUsers int    `json:"total_users"`
	NewToday   int    `json:"new_today"`
	TopDomain  string `json:"top_domain"`
}

// TrendPoint is the number of registrations on one UTC calendar day.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
