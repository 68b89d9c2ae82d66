package engine

import (
	"sync"
	"time"

	"promptquiz-service/internal/domain"
	"promptquiz-service/internal/report"
)

const (
	// DefaultQuestionDuration is how long each question stays answerable.
	DefaultQuestionDuration = 15 * time.Second
	// DefaultRevealDelay is the pause between selecting an option and
	// moving on, so the correct/incorrect highlight stays visible.
	DefaultRevealDelay = 800 * time.Millisecond
)

// Options tunes a session. Zero values fall back to the defaults above and
// a time.AfterFunc-backed scheduler.
type Options struct {
	QuestionDuration time.Duration
	RevealDelay      time.Duration
	Scheduler        Scheduler
}

// Snapshot is the read-only view of session state handed to consumers
// after every transition. Report is set only once the session is finished.
type Snapshot struct {
	Phase            domain.Phase    `json:"phase"`
	CurrentIndex     int             `json:"currentIndex"`
	Total            int             `json:"total"`
	RemainingSeconds int             `json:"remainingSeconds"`
	SelectedOption   string          `json:"selectedOption,omitempty"`
	Score            int             `json:"score"`
	Question         domain.Question `json:"question,omitempty"`
	Report           *domain.Report  `json:"report,omitempty"`
}

// Session is the authoritative state machine for one quiz attempt. All
// mutation goes through SelectOption, Restart, Close and the internal
// advance/tick transitions; every transition is serialized by the mutex,
// and every scheduled callback carries the generation current at schedule
// time, so a stale timeout or reveal can never touch a newer question.
type Session struct {
	mu          sync.Mutex
	questions   []domain.Question
	phase       domain.Phase
	current     int
	remaining   int // seconds left on the current question
	selected    string
	locked      bool // answer locking: first selection wins
	score       int
	outcomes    []domain.Outcome
	gen         uint64 // bumped on every advance and restart
	closed      bool
	duration    int // per-question seconds
	reveal      time.Duration
	sched       Scheduler
	timer       *countdown
	cancelNext  func() // pending reveal-delay advance
	subscribers map[chan Snapshot]struct{}
}

// New builds a session over a non-empty question list and starts the first
// question's countdown immediately. An empty list is a configuration
// error: it returns domain.ErrNoQuestions instead of a zero-question
// "finished" session.
func New(questions []domain.Question, opts Options) (*Session, error) {
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestions
	}
	if opts.QuestionDuration <= 0 {
		opts.QuestionDuration = DefaultQuestionDuration
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewScheduler()
	}

	s := &Session{
		questions:   questions,
		phase:       domain.PhaseInProgress,
		remaining:   int(opts.QuestionDuration / time.Second),
		duration:    int(opts.QuestionDuration / time.Second),
		reveal:      opts.RevealDelay,
		sched:       opts.Scheduler,
		subscribers: make(map[chan Snapshot]struct{}),
	}
	s.timer = newCountdown(s.sched)

	s.mu.Lock()
	s.armTickLocked()
	s.mu.Unlock()
	return s, nil
}

// SelectOption records the answer for the current question. The first
// selection locks the question: repeated calls, and any later timeout for
// the same question, are silent no-ops. The value is accepted even if it
// is not one of the rendered options; it simply scores as incorrect.
func (s *Session) SelectOption(option string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase != domain.PhaseInProgress || s.locked {
		return
	}

	s.locked = true
	s.selected = option
	if option == s.questions[s.current].CorrectAnswer {
		s.score++
	}

	// The question is decided; the countdown no longer matters.
	s.timer.stop()

	gen := s.gen
	s.cancelNext = s.sched.AfterFunc(s.reveal, func() {
		s.advance(gen, option, true)
	})

	s.broadcastLocked()
}

// Restart rewinds the session to a fresh first question over the same
// question list. Valid from any phase; pending timers from the previous
// attempt are invalidated.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.invalidateLocked()
	s.phase = domain.PhaseInProgress
	s.current = 0
	s.score = 0
	s.outcomes = nil
	s.remaining = s.duration
	s.selected = ""
	s.locked = false
	s.armTickLocked()
	s.broadcastLocked()
}

// Close permanently stops the session: all pending timers are invalidated
// and subscriber channels are closed. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.invalidateLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// Snapshot returns the current read-only view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers for a snapshot after every transition. The current
// snapshot is delivered immediately. The caller must invoke the returned
// cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// advance is the delayed transition scheduled by SelectOption, or the
// timeout path when answered is false. A generation mismatch means the
// session moved on (restart, close or an earlier advance) and the call is
// a no-op.
func (s *Session) advance(gen uint64, option string, answered bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen || s.phase != domain.PhaseInProgress {
		return
	}
	s.advanceLocked(option, answered)
}

// tick consumes one countdown tick for the given generation.
func (s *Session) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen || s.phase != domain.PhaseInProgress || s.locked {
		return
	}

	if s.remaining > 1 {
		s.remaining--
		s.armTickLocked()
		s.broadcastLocked()
		return
	}
	// Countdown exhausted: the question goes unanswered.
	s.advanceLocked("", false)
}

// advanceLocked commits exactly one outcome for the current question and
// either moves to the next question or finishes the session.
func (s *Session) advanceLocked(option string, answered bool) {
	q := s.questions[s.current]

	selectedAnswer := option
	if !answered {
		selectedAnswer = domain.NoAnswer
	}
	s.outcomes = append(s.outcomes, domain.Outcome{
		Question:       q.Text,
		CorrectAnswer:  q.CorrectAnswer,
		SelectedAnswer: selectedAnswer,
		IsCorrect:      answered && option == q.CorrectAnswer,
	})

	s.invalidateLocked()
	s.current++
	s.selected = ""
	s.locked = false

	if s.current < len(s.questions) {
		s.remaining = s.duration
		s.armTickLocked()
	} else {
		s.phase = domain.PhaseFinished
		s.remaining = 0
	}
	s.broadcastLocked()
}

// invalidateLocked bumps the generation and cancels anything scheduled for
// the generation being left behind.
func (s *Session) invalidateLocked() {
	s.gen++
	s.timer.stop()
	if s.cancelNext != nil {
		s.cancelNext()
		s.cancelNext = nil
	}
}

func (s *Session) armTickLocked() {
	s.timer.arm(s.gen, s.tick)
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:            s.phase,
		CurrentIndex:     s.current,
		Total:            len(s.questions),
		RemainingSeconds: s.remaining,
		SelectedOption:   s.selected,
		Score:            s.score,
	}
	if s.phase == domain.PhaseFinished {
		r := report.Build(s.outcomes)
		snap.Report = &r
	} else {
		snap.Question = s.questions[s.current]
	}
	return snap
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so a slow consumer
			// never blocks a transition.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
