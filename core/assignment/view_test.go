package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveView(t *testing.T) {
	due := time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC)
	a := Assignment{ID: "a1", DueDate: due, MaxScore: 100}

	sub := func(status string) *Submission {
		return &Submission{ID: "s1", AssignmentID: a.ID, Status: status}
	}

	tests := []struct {
		name string
		sub  *Submission
		now  time.Time
		want View
	}{
		{name: "no submission, before due", now: due.Add(-time.Hour), want: View{Bucket: BucketUpcoming, Badge: BadgePending}},
		{name: "no submission, at due", now: due, want: View{Bucket: BucketUpcoming, Badge: BadgePending}},
		{name: "no submission, past due", now: due.Add(time.Minute), want: View{Bucket: BucketPastDue, Badge: BadgeMissing}},
		{name: "submitted", sub: sub(StatusSubmitted), now: due.Add(-time.Hour), want: View{Bucket: BucketCompleted, Badge: BadgeSubmitted}},
		{name: "submitted, past due", sub: sub(StatusSubmitted), now: due.Add(time.Hour), want: View{Bucket: BucketCompleted, Badge: BadgeSubmitted}},
		{name: "late", sub: sub(StatusLate), now: due.Add(time.Hour), want: View{Bucket: BucketCompleted, Badge: BadgeLate}},
		{name: "graded", sub: sub(StatusGraded), now: due.Add(time.Hour), want: View{Bucket: BucketCompleted, Badge: BadgeGraded}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveView(a, tt.sub, tt.now))
		})
	}
}

func TestDeriveStats(t *testing.T) {
	subs := []StudentSubmission{
		{Submission: Submission{ID: "s1", Status: StatusSubmitted}},
		{Submission: Submission{ID: "s2", Status: StatusGraded}},
		{Submission: Submission{ID: "s3", Status: StatusLate}},
	}

	st := DeriveStats(subs, 4)
	assert.Equal(t, Stats{Submitted: 3, Graded: 1, Total: 4, Percent: 75}, st)

	// empty class must not divide by zero
	st = DeriveStats(nil, 0)
	assert.Equal(t, Stats{}, st)
}
