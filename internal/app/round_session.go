package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"clafootix/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/logger"
	"github.com/google/uuid"
)

// RoundConfig holds the tunables of a Carrière Infernale round.
type RoundConfig struct {
	TimeBudget       int           // countdown units per round
	CorrectCap       int           // round ends once this many correct clubs are found
	DistractorCount  int           // wrong clubs added to each item's pool
	TickInterval     time.Duration // one countdown unit; zero disables the ticker
	ValidateTimeout  time.Duration // per oracle validation attempt
	ValidateAttempts int
	RetryInterval    time.Duration // initial backoff between validation attempts
	RewardTimeout    time.Duration
}

// DefaultRoundConfig returns the production defaults.
func DefaultRoundConfig() RoundConfig {
	return RoundConfig{
		TimeBudget:       60,
		CorrectCap:       15,
		DistractorCount:  6,
		TickInterval:     time.Second,
		ValidateTimeout:  5 * time.Second,
		ValidateAttempts: 3,
		RetryInterval:    200 * time.Millisecond,
		RewardTimeout:    5 * time.Second,
	}
}

// RoundSession drives one user's round attempts through selecting, playing and
// completed. All state lives behind mu; oracle calls are never made while it is held.
type RoundSession struct {
	userID      string
	cfg         RoundConfig
	oracle      Oracle
	distractors *DistractorGenerator
	now         func() time.Time
	newID       func() string

	mu          sync.Mutex
	attemptID   string
	phase       domain.Phase
	round       domain.RoundDefinition
	index       int
	correct     int
	remaining   int
	submissions []domain.RoundItemSubmission
	submitted   map[string]struct{}
	presenter   *ItemPresenter
	verdict     *domain.RoundVerdict
	settled     bool
	errMsg      string
	reward      domain.RewardState
	credited    int
	balance     int
	rewardErr   string
	timer       *countdown
	lastActive  time.Time
	subscribers map[chan domain.SessionSnapshot]struct{}
}

// settleJob is the frozen tally handed to the oracle once a round completes.
type settleJob struct {
	attemptID   string
	roundID     string
	submissions []domain.RoundItemSubmission
	remaining   int
}

// NewRoundSession creates a session in the selecting phase.
func NewRoundSession(userID string, cfg RoundConfig, oracle Oracle, distractors *DistractorGenerator) *RoundSession {
	return NewRoundSessionWithClock(userID, cfg, oracle, distractors, time.Now)
}

// NewRoundSessionWithClock is used by tests for deterministic timestamps.
func NewRoundSessionWithClock(userID string, cfg RoundConfig, oracle Oracle, distractors *DistractorGenerator, now func() time.Time) *RoundSession {
	return &RoundSession{
		userID:      userID,
		cfg:         cfg,
		oracle:      oracle,
		distractors: distractors,
		now:         now,
		newID:       uuid.NewString,
		phase:       domain.PhaseSelecting,
		reward:      domain.RewardNotAttempted,
		submitted:   make(map[string]struct{}),
		lastActive:  now(),
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// UserID returns the owner of the session.
func (s *RoundSession) UserID() string { return s.userID }

// Load fetches a round (a random active one when questionID is empty) and
// starts playing it. Any attempt in progress is discarded first.
func (s *RoundSession) Load(ctx context.Context, questionID string) error {
	s.mu.Lock()
	attempt := s.newID()
	s.resetLocked(attempt)
	s.broadcastLocked()
	s.mu.Unlock()

	round, err := s.fetchRound(ctx, questionID)
	if err != nil {
		loadErr := &domain.RoundLoadError{QuestionID: questionID, Err: err}
		s.mu.Lock()
		if s.attemptID == attempt {
			s.errMsg = loadErr.Error()
			s.broadcastLocked()
		}
		s.mu.Unlock()
		logger.Warningf("user %s: %v", s.userID, loadErr)
		return loadErr
	}

	presenter := NewItemPresenter(ctx, round.Items[0], s.distractors, s.cfg.DistractorCount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attemptID != attempt {
		// superseded by another load or an abandon
		return nil
	}
	s.round = round
	s.phase = domain.PhasePlaying
	s.presenter = presenter
	if s.cfg.TickInterval > 0 {
		tickCtx := context.WithoutCancel(ctx)
		s.timer = startCountdown(s.cfg.TickInterval, func() { s.tickAttempt(tickCtx, attempt) })
	}
	s.broadcastLocked()
	logger.Infof("user %s started round %s (%d items, attempt %s)", s.userID, round.ID, len(round.Items), attempt)
	return nil
}

func (s *RoundSession) fetchRound(ctx context.Context, questionID string) (domain.RoundDefinition, error) {
	if questionID == "" {
		available, err := s.oracle.Rounds.ListAvailableRounds(ctx)
		if err != nil {
			return domain.RoundDefinition{}, err
		}
		if len(available) == 0 {
			return domain.RoundDefinition{}, domain.ErrNoActiveRounds
		}
		questionID = available[rand.Intn(len(available))].ID
	}
	round, err := s.oracle.Rounds.LoadRound(ctx, questionID)
	if err != nil {
		return domain.RoundDefinition{}, err
	}
	if len(round.Items) == 0 {
		return domain.RoundDefinition{}, domain.ErrEmptyRound
	}
	return round, nil
}

// Validate records the selection for itemID and advances or completes the
// round. Validating an already submitted item is a no-op.
func (s *RoundSession) Validate(ctx context.Context, itemID string, selection domain.Selection) error {
	s.mu.Lock()
	if s.phase != domain.PhasePlaying {
		s.mu.Unlock()
		return domain.ErrRoundNotPlaying
	}
	if _, done := s.submitted[itemID]; done {
		s.mu.Unlock()
		return nil
	}
	item := s.round.Items[s.index]
	if item.ID != itemID {
		s.mu.Unlock()
		return domain.ErrItemMismatch
	}
	if s.presenter != nil && s.presenter.ItemID() == itemID {
		s.presenter.Capture()
	}
	s.recordLocked(item, selection)

	if s.index+1 < len(s.round.Items) && s.correct < s.cfg.CorrectCap {
		s.index++
		s.presenter = nil
		attempt, next := s.attemptID, s.index
		s.broadcastLocked()
		s.mu.Unlock()
		s.preparePresenter(ctx, attempt, next)
		return nil
	}

	job := s.completeLocked()
	s.mu.Unlock()
	s.finish(ctx, job)
	return nil
}

// ValidateCurrent freezes the presenter's selection for itemID and validates
// it. A repeated validate for an item already submitted is a no-op; an item
// other than the current one is rejected.
func (s *RoundSession) ValidateCurrent(ctx context.Context, itemID string) error {
	s.mu.Lock()
	if s.phase != domain.PhasePlaying {
		s.mu.Unlock()
		return domain.ErrRoundNotPlaying
	}
	if _, done := s.submitted[itemID]; done {
		s.mu.Unlock()
		return nil
	}
	if s.round.Items[s.index].ID != itemID {
		s.mu.Unlock()
		return domain.ErrItemMismatch
	}
	presenter := s.presenter
	s.mu.Unlock()
	if presenter == nil || presenter.ItemID() != itemID {
		return domain.ErrPresenterNotReady
	}

	selection, err := presenter.Submit()
	if err != nil {
		return err
	}
	if err := s.Validate(ctx, itemID, selection); err != nil {
		presenter.Unlock()
		return err
	}
	return nil
}

// TimeExpired freezes selectionSoFar for the current item (unless it was
// already submitted) and completes the round regardless of remaining items.
func (s *RoundSession) TimeExpired(ctx context.Context, selectionSoFar domain.Selection) {
	s.mu.Lock()
	if s.phase != domain.PhasePlaying {
		s.mu.Unlock()
		return
	}
	job := s.expireLocked(selectionSoFar)
	s.mu.Unlock()
	s.finish(ctx, job)
}

// Tick advances the countdown by one unit and expires the round at zero.
func (s *RoundSession) Tick(ctx context.Context) {
	s.tickAttempt(ctx, "")
}

func (s *RoundSession) tickAttempt(ctx context.Context, attempt string) {
	s.mu.Lock()
	if s.phase != domain.PhasePlaying || (attempt != "" && attempt != s.attemptID) {
		s.mu.Unlock()
		return
	}
	if s.remaining > 0 {
		s.remaining--
	}
	if s.remaining > 0 {
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}
	var selection domain.Selection
	if s.presenter != nil {
		selection = s.presenter.Capture()
	}
	job := s.expireLocked(selection)
	s.mu.Unlock()
	s.finish(ctx, job)
}

// Toggle flips an entity in the current item's selection.
func (s *RoundSession) Toggle(entityID string) (bool, error) {
	s.mu.Lock()
	if s.phase != domain.PhasePlaying {
		s.mu.Unlock()
		return false, domain.ErrRoundNotPlaying
	}
	presenter := s.presenter
	s.lastActive = s.now()
	s.mu.Unlock()
	if presenter == nil {
		return false, domain.ErrPresenterNotReady
	}

	selected, err := presenter.Toggle(entityID)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	s.broadcastLocked()
	s.mu.Unlock()
	return selected, nil
}

// RetryReward re-attempts a cerises credit that failed earlier.
func (s *RoundSession) RetryReward(ctx context.Context) error {
	return s.creditReward(ctx)
}

// Abandon drops the current attempt and returns to round selection.
func (s *RoundSession) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked("")
	s.broadcastLocked()
}

func (s *RoundSession) resetLocked(attempt string) {
	s.timer.Stop()
	s.timer = nil
	s.attemptID = attempt
	s.phase = domain.PhaseSelecting
	s.round = domain.RoundDefinition{}
	s.index = 0
	s.correct = 0
	s.remaining = s.cfg.TimeBudget
	s.submissions = nil
	s.submitted = make(map[string]struct{})
	s.presenter = nil
	s.verdict = nil
	s.settled = false
	s.errMsg = ""
	s.reward = domain.RewardNotAttempted
	s.credited = 0
	s.rewardErr = ""
	s.lastActive = s.now()
}

func (s *RoundSession) recordLocked(item domain.RoundItem, selection domain.Selection) {
	s.submissions = append(s.submissions, domain.RoundItemSubmission{
		ItemID:            item.ID,
		SelectedEntityIDs: selection.IDs(),
	})
	s.submitted[item.ID] = struct{}{}
	correct := item.CorrectSet()
	for id := range selection {
		if _, ok := correct[id]; ok {
			s.correct++
		}
	}
	s.lastActive = s.now()
}

func (s *RoundSession) expireLocked(selection domain.Selection) settleJob {
	item := s.round.Items[s.index]
	if _, done := s.submitted[item.ID]; !done {
		s.recordLocked(item, selection)
	}
	s.remaining = 0
	return s.completeLocked()
}

// completeLocked is the single transition out of playing. The countdown is
// stopped before the lock is released so no later tick can act.
func (s *RoundSession) completeLocked() settleJob {
	s.phase = domain.PhaseCompleted
	s.timer.Stop()
	s.timer = nil
	if s.presenter != nil {
		s.presenter.Capture()
	}
	submissions := make([]domain.RoundItemSubmission, len(s.submissions))
	copy(submissions, s.submissions)
	s.broadcastLocked()
	return settleJob{
		attemptID:   s.attemptID,
		roundID:     s.round.ID,
		submissions: submissions,
		remaining:   s.remaining,
	}
}

// finish runs the oracle validation and the reward credit for a completed attempt.
func (s *RoundSession) finish(ctx context.Context, job settleJob) {
	ctx = context.WithoutCancel(ctx)
	verdict, err := s.validateRound(ctx, job)

	s.mu.Lock()
	if s.attemptID != job.attemptID {
		s.mu.Unlock()
		return
	}
	s.settled = true
	if err != nil {
		s.verdict = &domain.RoundVerdict{}
		s.errMsg = err.Error()
		logger.Errorf("user %s: %v", s.userID, err)
	} else {
		s.verdict = &verdict
		logger.Infof("user %s finished round %s: score=%d reward=%d", s.userID, job.roundID, verdict.Score, verdict.Reward)
	}
	s.broadcastLocked()
	s.mu.Unlock()

	if err := s.creditReward(ctx); err != nil {
		logger.Warningf("user %s: %v", s.userID, err)
	}
}

func (s *RoundSession) validateRound(ctx context.Context, job settleJob) (domain.RoundVerdict, error) {
	var verdict domain.RoundVerdict
	attempts := s.cfg.ValidateAttempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff()
	if s.cfg.RetryInterval > 0 {
		exp.InitialInterval = s.cfg.RetryInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)

	err := backoff.Retry(func() error {
		callCtx, cancel := withOptionalTimeout(ctx, s.cfg.ValidateTimeout)
		defer cancel()
		v, err := s.oracle.Validator.ValidateRound(callCtx, job.roundID, job.submissions, job.remaining)
		if err != nil {
			if errors.Is(err, domain.ErrRoundNotFound) {
				return backoff.Permanent(err)
			}
			logger.Warningf("validate round %s for %s: %v", job.roundID, s.userID, err)
			return err
		}
		verdict = v
		return nil
	}, policy)
	if err != nil {
		return domain.RoundVerdict{}, &domain.ValidationError{QuestionID: job.roundID, Err: err}
	}
	return verdict, nil
}

// creditReward applies the verdict's reward at most once per attempt. The
// state moves to in-flight before the call and back only on failure.
func (s *RoundSession) creditReward(ctx context.Context) error {
	s.mu.Lock()
	if !s.settled || s.verdict == nil || s.verdict.Reward <= 0 ||
		s.reward != domain.RewardNotAttempted || s.oracle.Rewards == nil {
		s.mu.Unlock()
		return nil
	}
	s.reward = domain.RewardInFlight
	s.rewardErr = ""
	attempt, amount := s.attemptID, s.verdict.Reward
	s.broadcastLocked()
	s.mu.Unlock()

	callCtx, cancel := withOptionalTimeout(ctx, s.cfg.RewardTimeout)
	balance, err := s.oracle.Rewards.CreditReward(callCtx, s.userID, amount, attempt)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attemptID != attempt {
		return nil
	}
	if err != nil {
		creditErr := &domain.RewardCreditError{UserID: s.userID, Amount: amount, Err: err}
		s.reward = domain.RewardNotAttempted
		s.rewardErr = creditErr.Error()
		s.broadcastLocked()
		return creditErr
	}
	s.reward = domain.RewardDone
	s.credited = amount
	s.balance = balance
	s.broadcastLocked()
	return nil
}

func (s *RoundSession) preparePresenter(ctx context.Context, attempt string, index int) {
	s.mu.Lock()
	if s.attemptID != attempt || s.phase != domain.PhasePlaying || s.index != index {
		s.mu.Unlock()
		return
	}
	item := s.round.Items[index]
	s.mu.Unlock()

	presenter := NewItemPresenter(ctx, item, s.distractors, s.cfg.DistractorCount)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attemptID != attempt || s.phase != domain.PhasePlaying || s.index != index || s.presenter != nil {
		return
	}
	s.presenter = presenter
	s.broadcastLocked()
}

// Snapshot returns the current state of the session.
func (s *RoundSession) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// IsIdle reports whether the session can be dropped: nobody is watching and
// no attempt is running or settling.
func (s *RoundSession) IsIdle(olderThan time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subscribers) > 0 || s.phase == domain.PhasePlaying || s.reward == domain.RewardInFlight {
		return false
	}
	if s.phase == domain.PhaseCompleted && !s.settled {
		return false
	}
	return !s.lastActive.After(olderThan)
}

func (s *RoundSession) subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

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

func (s *RoundSession) broadcastLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// latest state wins for slow readers
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *RoundSession) snapshotLocked() domain.SessionSnapshot {
	snap := domain.SessionSnapshot{
		SessionID:     s.attemptID,
		UserID:        s.userID,
		Phase:         s.phase,
		RoundID:       s.round.ID,
		Title:         s.round.Title,
		ItemIndex:     s.index,
		ItemCount:     len(s.round.Items),
		CorrectCount:  s.correct,
		RemainingTime: s.remaining,
		Settled:       s.settled,
		Error:         s.errMsg,
		RewardState:   s.reward,
		Credited:      s.credited,
		Balance:       s.balance,
		RewardError:   s.rewardErr,
		UpdatedAt:     s.now(),
	}
	if len(s.submissions) > 0 {
		snap.Submissions = make([]domain.RoundItemSubmission, len(s.submissions))
		copy(snap.Submissions, s.submissions)
	}
	if s.verdict != nil {
		v := *s.verdict
		snap.Verdict = &v
	}
	if s.phase == domain.PhasePlaying && s.index < len(s.round.Items) {
		view := s.round.Items[s.index].View()
		snap.CurrentItem = &view
		if s.presenter != nil {
			snap.Candidates = s.presenter.Candidates()
			snap.Selected, snap.Locked = s.presenter.State()
		}
	}
	return snap
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
