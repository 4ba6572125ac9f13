// Package stats computes read-only aggregates over a snapshot of users.
//
// All functions are pure: the caller supplies the snapshot and, where the
// result depends on the current day, the instant to measure from. Day
// boundaries are UTC calendar days.
package stats

import (
	"strings"
	"time"

	"github.com/dtroode/userdir-server/internal/model"
)

// DateLayout formats trend labels.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// TotalCount is the number of users in the snapshot.
func TotalCount(users []model.User) int {
	return len(users)
}

// NewToday counts users created in [UTC midnight of now, next UTC midnight).
func NewToday(users []model.User, now time.Time) int {
	start := startOfDay(now)
	end := start.Add(day)

	count := 0
	for _, u := range users {
		created := u.CreatedAt.UTC()
		if !created.Before(start) && created.Before(end) {
			count++
		}
	}
	return count
}

// TopEmailDomain returns the most frequent domain, the part of an email after
// its first '@'. Ties go to the domain seen first in snapshot order. Emails
// without '@' are ignored. Returns model.TopDomainUnavailable when nothing
// qualifies.
func TopEmailDomain(users []model.User) string {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, u := range users {
		_, domain, ok := strings.Cut(u.Email, "@")
		if !ok {
			continue
		}
		if _, seen := counts[domain]; !seen {
			order = append(order, domain)
		}
		counts[domain]++
	}

	top, best := model.TopDomainUnavailable, 0
	for _, domain := range order {
		if counts[domain] > best {
			top, best = domain, counts[domain]
		}
	}
	return top
}

// RegistrationTrend buckets users by the UTC date of creation over the
// windowDays days ending with now's UTC date, oldest first. Every day in the
// window is present, zero-filled. A window below one day yields no points.
func RegistrationTrend(users []model.User, now time.Time, windowDays int) []model.TrendPoint {
	if windowDays < 1 {
		return []model.TrendPoint{}
	}

	first := startOfDay(now).AddDate(0, 0, -(windowDays - 1))

	points := make([]model.TrendPoint, windowDays)
	index := make(map[string]int, windowDays)
	for i := range points {
		label := first.AddDate(0, 0, i).Format(DateLayout)
		points[i] = model.TrendPoint{Date: label}
		index[label] = i
	}

	for _, u := range users {
		if i, ok := index[u.CreatedAt.UTC().Format(DateLayout)]; ok {
			points[i].Count++
		}
	}

	return points
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
