package assignment

import "time"

// Buckets (derived for display, never persisted).
const (
	BucketUpcoming  = "upcoming"
	BucketPastDue   = "past_due"
	BucketCompleted = "completed"
)

// Badges (derived for display, never persisted).
const (
	BadgePending   = "pending"
	BadgeMissing   = "missing"
	BadgeSubmitted = "submitted"
	BadgeLate      = "late"
	BadgeGraded    = "graded"
)

// View is the derived display state of an assignment for one student.
type View struct {
	Bucket string `json:"bucket"`
	Badge  string `json:"badge"`
}

// DeriveView computes the dashboard bucket and status badge for an
// assignment given the student's submission (nil if none) and the current
// time. It is the single source of truth for this branching; views must not
// re-derive it ad hoc.
func DeriveView(a Assignment, sub *Submission, now time.Time) View {
	if sub != nil {
		if sub.IsGraded() {
			return View{Bucket: BucketCompleted, Badge: BadgeGraded}
		}
		badge := BadgeSubmitted
		if sub.Status == StatusLate {
			badge = BadgeLate
		}
		return View{Bucket: BucketCompleted, Badge: badge}
	}
	if now.After(a.DueDate) {
		return View{Bucket: BucketPastDue, Badge: BadgeMissing}
	}
	return View{Bucket: BucketUpcoming, Badge: BadgePending}
}

// Stats summarizes submission progress for an assignment; derived, not
// stored.
type Stats struct {
	Submitted int     `json:"submitted"`
	Graded    int     `json:"graded"`
	Total     int     `json:"total"`
	Percent   float64 `json:"percent"`
}

// DeriveStats computes the submission-rate statistics for an assignment
// from its submissions and the class's student count.
func DeriveStats(subs []StudentSubmission, totalStudents int) Stats {
	st := Stats{Submitted: len(subs), Total: totalStudents}
	for _, s := range subs {
		if s.IsGraded() {
			st.Graded++
		}
	}
	if totalStudents > 0 {
		st.Percent = float64(st.Submitted) / float64(totalStudents) * 100
	}
	return st
}
