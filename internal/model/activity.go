package model

import "time"

// Activity types written by the application.
const (
	ActivityBookingCreated     = "booking_created"
	ActivityBookingCancelled   = "booking_cancelled"
	ActivityShowtimeAdded      = "showtime_added"
	ActivityShowtimeUpdated    = "showtime_updated"
	ActivityShowtimeDeleted    = "showtime_deleted"
	ActivityShowtimeResized    = "showtime_resized"
	ActivityShowtimeReconciled = "showtime_reconciled"
	ActivityMovieAdded         = "movie_added"
	ActivityMovieUpdated       = "movie_updated"
	ActivityMovieDeleted       = "movie_deleted"
	ActivityMovieRestored      = "movie_restored"
	ActivityCategoryAdded      = "category_added"
	ActivityCategoryUpdated    = "category_updated"
	ActivityCategoryDeleted    = "category_deleted"
	ActivityUserAdded          = "user_added"
	ActivityUserUpdated        = "user_updated"
	ActivityUserDeleted        = "user_deleted"
	ActivityActivitiesCleaned  = "activities_cleaned"
)

// Activity is one entry of the audit log.  Entries are never edited;
// old ones are only removed by retention pruning.  UserID is nil for
// system or anonymous actions.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Type        string    `db:"type" json:"type"`
	Description string    `db:"description" json:"description"`
	UserID      *uint64   `db:"user_id" json:"userId,omitempty"`
	Timestamp   time.Time `db:"created_at" json:"timestamp"`
}
