// Package remind decides which students have unfinished course work, renders
// their reminder message and sends it to the configured recipients.
package remind

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/barun-bash/coursebot/internal/canvas"
)

// DueLayout formats due dates in reminders.
const DueLayout = "Mon, Jan 02"

// Resource is a titled link shown in a reminder.
type Resource struct {
	Text string
	Link string
}

// Homework is one unfinished assignment.
type Homework struct {
	Name          string
	URL           string
	Due           time.Time
	DueDate       string
	DaysRemaining int
	Solution      *Resource
}

// Reminder lists the unfinished work of one student.
type Reminder struct {
	Student  canvas.User
	Upcoming []Homework
	Overdue  []Homework
}

// Due reports whether the reminder should be sent. Only overdue work
// triggers one.
func (r *Reminder) Due() bool {
	return len(r.Overdue) > 0
}

// SubmissionSource looks up a student's submission for an assignment.
type SubmissionSource interface {
	GetSubmission(ctx context.Context, assignmentID, userID int) (*canvas.Submission, error)
}

// Planner classifies a course's assignments for individual students.
type Planner struct {
	now    time.Time
	loc    *time.Location
	maxDue time.Time
	window []canvas.Assignment
	urls   map[int]string
	videos map[int][]Resource
}

// PlanOptions configures a Planner.
type PlanOptions struct {
	Now      time.Time
	Location *time.Location
	MaxDays  int

	// URL resolves an assignment's link; nil uses Assignment.HTMLURL.
	URL func(canvas.Assignment) string
}

// NewPlanner pairs solution videos with assignments and keeps the published
// assignments due no later than MaxDays from now.
func NewPlanner(assignments []canvas.Assignment, videos []canvas.ModuleItem, opts PlanOptions) *Planner {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.URL == nil {
		opts.URL = func(a canvas.Assignment) string { return a.HTMLURL }
	}

	p := &Planner{
		now:    opts.Now,
		loc:    opts.Location,
		maxDue: opts.Now.AddDate(0, 0, opts.MaxDays),
		urls:   make(map[int]string),
		videos: PairVideos(assignments, videos),
	}
	for _, a := range assignments {
		if a.DueAt == nil || !a.Published || a.DueAt.After(p.maxDue) {
			continue
		}
		p.window = append(p.window, a)
		p.urls[a.ID] = opts.URL(a)
	}
	return p
}

// Window returns the assignments a student can be reminded about.
func (p *Planner) Window() []canvas.Assignment {
	return p.window
}

// Plan builds the reminder of one student, skipping every assignment the
// student has submitted.
func (p *Planner) Plan(ctx context.Context, student canvas.User, subs SubmissionSource) (*Reminder, error) {
	r := &Reminder{Student: student}
	for _, a := range p.window {
		sub, err := subs.GetSubmission(ctx, a.ID, student.ID)
		if err != nil {
			return nil, fmt.Errorf("planning for %s: %w", student.Email, err)
		}
		if sub.SubmittedAt != nil {
			continue
		}

		hw := p.homework(a)
		if a.DueAt.Before(p.now) {
			r.Overdue = append(r.Overdue, hw)
		} else {
			r.Upcoming = append(r.Upcoming, hw)
		}
	}
	return r, nil
}

func (p *Planner) homework(a canvas.Assignment) Homework {
	due := a.DueAt.In(p.loc)
	hw := Homework{
		Name:          a.Name,
		URL:           p.urls[a.ID],
		Due:           due,
		DueDate:       due.Format(DueLayout),
		DaysRemaining: DaysBetween(p.now, due),
	}
	if hw.Name == "" {
		hw.Name = "Untitled Assignment"
	}
	if v := p.videos[a.ID]; len(v) > 0 {
		hw.Solution = &v[0]
	}
	return hw
}

// DaysBetween returns the whole days from now until due, rounded down: 36
// hours is 1 day, and -5 hours is already -1 day.
func DaysBetween(now, due time.Time) int {
	const day = 24 * time.Hour
	d := due.Sub(now)
	days := d / day
	if d%day < 0 {
		days--
	}
	return int(days)
}

// PairVideos maps assignment ids to the published solution videos that
// belong to them.
func PairVideos(assignments []canvas.Assignment, videos []canvas.ModuleItem) map[int][]Resource {
	out := make(map[int][]Resource, len(assignments))
	for _, a := range assignments {
		for _, v := range videos {
			if !v.Published || v.HTMLURL == "" {
				continue
			}
			title := CleanTitle(v.Title)
			if IsPair(a.Name, title) {
				out[a.ID] = append(out[a.ID], Resource{Text: title, Link: v.HTMLURL})
			}
		}
	}
	return out
}

// CleanTitle strips a leading "14." style position number from a module
// item title.
func CleanTitle(title string) string {
	if title == "" || !unicode.IsDigit(rune(title[0])) {
		return title
	}
	if _, rest, ok := strings.Cut(title, "."); ok {
		return strings.TrimSpace(rest)
	}
	return title
}

// IsPair reports whether video is the solution of assignment. Only
// assignments named "Assignment N - Part M" pair: the video title must say
// "Solution" and contain "Assignment N", and when it names a part it must be
// part M.
func IsPair(assignment, video string) bool {
	if !strings.Contains(video, "Solution") {
		return false
	}
	if !strings.HasPrefix(assignment, "Assignment") {
		return false
	}
	name, part, ok := strings.Cut(assignment, "-")
	if !ok {
		return false
	}
	if !strings.Contains(video, strings.TrimSpace(name)) {
		return false
	}
	part = strings.TrimSpace(strings.ReplaceAll(part, "Part ", ""))
	if strings.Contains(video, "Part") {
		return strings.Contains(video, "Part "+part)
	}
	return true
}
