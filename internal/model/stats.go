package model

import "time"

// Top contributor scoring
const (
	TopContributorsLimit = 7

	ScorePerLesson   = 5
	ScorePerLike     = 1
	ScorePerFavorite = 2
)

// ContributorScore is 5 per public lesson, 1 per like and 2 per favorite.
func ContributorScore(lessonCount, totalLikes, totalFavorites int) int {
	return ScorePerLesson*lessonCount + ScorePerLike*totalLikes + ScorePerFavorite*totalFavorites
}

// ContributorTotals is one creator's row from the grouping query.
type ContributorTotals struct {
	Name           string `db:"name"`
	PhotoURL       string `db:"photo_url"`
	LessonCount    int    `db:"lesson_count"`
	TotalLikes     int    `db:"total_likes"`
	TotalFavorites int    `db:"total_favorites"`
}

// Contributor is one leaderboard row.
type Contributor struct {
	Name           string `json:"name"`
	PhotoURL       string `json:"photoURL"`
	LessonCount    int    `json:"lessonCount"`
	TotalLikes     int    `json:"totalLikes"`
	TotalFavorites int    `json:"totalFavorites"`
	Score          int    `json:"score"`
}

// DayCount is one bucket of the weekly creation histogram. Day follows the
// 1=Sunday .. 7=Saturday numbering.
type DayCount struct {
	Day   int    `json:"day"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// RecentLesson is the trimmed lesson shown on the dashboard.
type RecentLesson struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// DashboardOverview is the per-owner dashboard.
type DashboardOverview struct {
	TotalLessons   int            `json:"totalLessons"`
	TotalFavorites int            `json:"totalFavorites"`
	RecentLessons  []RecentLesson `json:"recentLessons"`
	WeeklyStats    []DayCount     `json:"weeklyStats"`
}

// CommunityStats is the public landing page summary.
type CommunityStats struct {
	TotalPublicLessons int `json:"totalPublicLessons"`
	TotalUsers         int `json:"totalUsers"`
	TotalFavorites     int `json:"totalFavorites"`
	TotalCategories    int `json:"totalCategories"`
}

// AdminStats is the admin dashboard summary.
type AdminStats struct {
	TotalUsers         int    `json:"totalUsers"`
	TotalLessons       int    `json:"totalLessons"`
	ReportedLessons    int    `json:"reportedLessons"`
	NewLessonsThisWeek string `json:"newLessonsThisWeek"`
}

// CategoryCount is one slice of the admin category chart.
type CategoryCount struct {
	Category string `db:"category" json:"category"`
	Count    int    `db:"count" json:"count"`
}
