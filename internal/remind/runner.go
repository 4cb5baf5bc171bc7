package remind

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/barun-bash/coursebot/internal/canvas"
	"github.com/barun-bash/coursebot/internal/history"
	"github.com/barun-bash/coursebot/internal/logging"
	"github.com/barun-bash/coursebot/internal/zulip"
)

// ErrNoRecipients is returned by a sending run when neither a group nor the
// students themselves would receive reminders.
var ErrNoRecipients = errors.New("no reminder recipients: configure reminders.groups or enable notify_students")

// Course is the Canvas surface the runner reads.
type Course interface {
	SubmissionSource
	ListAssignments(ctx context.Context) ([]canvas.Assignment, error)
	FindModule(ctx context.Context, name string) (*canvas.Module, error)
	ListModuleItems(ctx context.Context, moduleID int) ([]canvas.ModuleItem, error)
	ListStudents(ctx context.Context) ([]canvas.User, error)
	URL(a canvas.Assignment) string
}

// Chat is the Zulip surface the runner writes to.
type Chat interface {
	ListUsers(ctx context.Context) ([]zulip.User, error)
	SendPrivate(ctx context.Context, to []string, content string) (int, error)
}

// History records sent reminders. *history.Store implements it.
type History interface {
	BeginRun(ctx context.Context, r history.Run) error
	Record(ctx context.Context, e history.Entry) error
	RemindedOn(ctx context.Context, email, day string) (bool, error)
}

// Options configures a Runner.
type Options struct {
	MaxDays        int
	Location       *time.Location
	VideoModule    string
	Groups         []string
	Prof           []string
	TA             []string
	NotifyStudents bool
	Concurrency    int
	Resources      []Resource
	DryRun         bool
	Force          bool

	// Now returns the current time; nil uses time.Now.
	Now func() time.Time
}

// Status is what happened to one student.
type Status int

const (
	Sent Status = iota
	Previewed
	NothingOverdue
	AlreadyReminded
)

func (s Status) String() string {
	switch s {
	case Sent:
		return "sent"
	case Previewed:
		return "previewed"
	case NothingOverdue:
		return "nothing overdue"
	case AlreadyReminded:
		return "already reminded"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome is the result for one student.
type Outcome struct {
	Student    canvas.User
	Status     Status
	Reminder   *Reminder
	Message    string
	Recipients []string
	MessageID  int
}

// Report summarizes a run. Outcomes are sorted by student email.
type Report struct {
	RunID    string
	Day      string
	Outcomes []Outcome
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Runner performs reminder runs.
type Runner struct {
	course  Course
	chat    Chat
	history History
	opts    Options
	log     *zap.Logger
}

// NewRunner creates a runner. hist may be nil to disable the once-per-day
// check.
func NewRunner(course Course, chat Chat, hist History, opts Options, log *zap.Logger) *Runner {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{course: course, chat: chat, history: hist, opts: opts, log: logging.OrNop(log)}
}

// Run computes every student's reminder and sends, or previews, those with
// overdue work.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	now := r.opts.Now()
	rep := &Report{
		RunID: uuid.NewString(),
		Day:   now.In(r.opts.Location).Format(history.DayLayout),
	}
	log := r.log.With(zap.String("run_id", rep.RunID), zap.Bool("dry_run", r.opts.DryRun))

	members, err := r.chat.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	groups := r.groupMembers(members)
	if !r.opts.DryRun && len(groups) == 0 && !r.opts.NotifyStudents {
		return nil, ErrNoRecipients
	}

	if r.history != nil {
		err := r.history.BeginRun(ctx, history.Run{ID: rep.RunID, StartedAt: now, DryRun: r.opts.DryRun})
		if err != nil {
			return nil, err
		}
	}

	planner, err := r.planner(ctx, now)
	if err != nil {
		return nil, err
	}
	students, err := r.students(ctx, members)
	if err != nil {
		return nil, err
	}
	log.Info("reminder run started",
		zap.Int("students", len(students)),
		zap.Int("assignments", len(planner.Window())))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)
	for _, s := range students {
		s := s
		g.Go(func() error {
			out, err := r.remind(gctx, planner, s, groups, rep)
			if err != nil {
				return err
			}
			mu.Lock()
			rep.Outcomes = append(rep.Outcomes, *out)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(rep.Outcomes, func(a, b Outcome) int {
		return strings.Compare(a.Student.Email, b.Student.Email)
	})
	log.Info("reminder run finished",
		zap.Int("sent", rep.Count(Sent)),
		zap.Int("previewed", rep.Count(Previewed)),
		zap.Int("skipped", rep.Count(AlreadyReminded)))
	return rep, nil
}

func (r *Runner) remind(ctx context.Context, p *Planner, s canvas.User, groups []string, rep *Report) (*Outcome, error) {
	out := &Outcome{Student: s}

	if r.history != nil && !r.opts.Force {
		done, err := r.history.RemindedOn(ctx, s.Email, rep.Day)
		if err != nil {
			return nil, err
		}
		if done {
			out.Status = AlreadyReminded
			return out, nil
		}
	}

	rem, err := p.Plan(ctx, s, r.course)
	if err != nil {
		return nil, err
	}
	out.Reminder = rem
	if !rem.Due() {
		out.Status = NothingOverdue
		return out, nil
	}

	out.Message, err = Render(rem, r.opts.Resources)
	if err != nil {
		return nil, err
	}
	out.Recipients = recipients(groups, s.Email, r.opts.NotifyStudents)

	if r.opts.DryRun {
		out.Status = Previewed
		return out, nil
	}

	out.MessageID, err = r.chat.SendPrivate(ctx, out.Recipients, out.Message)
	if err != nil {
		return nil, fmt.Errorf("reminding %s: %w", s.Email, err)
	}
	out.Status = Sent
	r.log.Debug("reminder sent",
		zap.String("run_id", rep.RunID),
		zap.String("student", s.Email),
		zap.Int("overdue", len(rem.Overdue)),
		zap.Int("message_id", out.MessageID))

	if r.history != nil {
		err := r.history.Record(ctx, history.Entry{
			RunID:     rep.RunID,
			Email:     s.Email,
			Day:       rep.Day,
			Overdue:   len(rem.Overdue),
			MessageID: out.MessageID,
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Runner) planner(ctx context.Context, now time.Time) (*Planner, error) {
	assignments, err := r.course.ListAssignments(ctx)
	if err != nil {
		return nil, err
	}

	var videos []canvas.ModuleItem
	if r.opts.VideoModule != "" {
		mod, err := r.course.FindModule(ctx, r.opts.VideoModule)
		if err != nil {
			return nil, err
		}
		videos, err = r.course.ListModuleItems(ctx, mod.ID)
		if err != nil {
			return nil, err
		}
	}

	return NewPlanner(assignments, videos, PlanOptions{
		Now:      now,
		Location: r.opts.Location,
		MaxDays:  r.opts.MaxDays,
		URL:      r.course.URL,
	}), nil
}

// students returns the enrolled students that can be messaged on Zulip.
func (r *Runner) students(ctx context.Context, members []zulip.User) ([]canvas.User, error) {
	all, err := r.course.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	onChat := make(map[string]bool, len(members))
	for _, email := range zulip.Emails(members) {
		onChat[strings.ToLower(email)] = true
	}

	var out []canvas.User
	for _, s := range all {
		if s.Email == "" || !onChat[strings.ToLower(s.Email)] {
			r.log.Debug("student not on chat", zap.Int("user_id", s.ID), zap.String("email", s.Email))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// groupMembers resolves the configured groups to addresses. "all" is every
// human member of the organization.
func (r *Runner) groupMembers(members []zulip.User) []string {
	var out []string
	for _, g := range r.opts.Groups {
		switch g {
		case "prof":
			out = append(out, r.opts.Prof...)
		case "ta":
			out = append(out, r.opts.TA...)
		case "all":
			out = append(out, zulip.Emails(members)...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func recipients(groups []string, student string, notifyStudent bool) []string {
	out := slices.Clone(groups)
	if notifyStudent && !slices.Contains(out, student) {
		out = append(out, student)
		slices.Sort(out)
	}
	return out
}
