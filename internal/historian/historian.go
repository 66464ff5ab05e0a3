// internal/historian/historian.go is an asynchronous historian service that pops game actions
// from a Redis queue and persists them to PostgreSQL.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/sirupsen/logrus"
)

// ActionSource yields queued action records. PopGameAction returns (nil, nil) when nothing
// arrived within timeout.
type ActionSource interface {
	PopGameAction(ctx context.Context, timeout time.Duration) (*cache.GameActionRecord, error)
}

// ActionStore persists action batches and finalizes idle games.
type ActionStore interface {
	InsertGameActions(ctx context.Context, batch []cache.GameActionRecord) error
	MarkGameAbandoned(ctx context.Context, gameID uuid.UUID) (bool, error)
}

// Options tune batching and abandonment.
type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a game may go without actions before it is marked abandoned.
	Inactivity time.Duration
	// PopTimeout bounds each blocking pop so cancellation and flushes stay responsive.
	PopTimeout time.Duration
	SweepEvery time.Duration
}

// Service encapsulates the queue and database logic for capturing game actions
// and marking games abandoned when the inactivity threshold is reached.
type Service struct {
	source ActionSource
	store  ActionStore
	opts   Options
	log    logrus.FieldLogger

	batchMu sync.Mutex
	batch   []cache.GameActionRecord

	activityMu   sync.Mutex
	lastActivity map[uuid.UUID]time.Time

	now func() time.Time
}

// New builds a Service, filling unset options with the defaults.
func New(source ActionSource, store ActionStore, opts Options, log logrus.FieldLogger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		source:       source,
		store:        store,
		opts:         opts,
		log:          log,
		batch:        make([]cache.GameActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[uuid.UUID]time.Time),
		now:          time.Now,
	}
}

// Run starts the flush ticker and the inactivity sweep, then pops records until ctx is done.
// Whatever is batched at shutdown is flushed before Run returns.
func (s *Service) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.flushLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		s.inactivityLoop(ctx)
	}()

	s.log.Info("uno-historian service started.")
	s.readLoop(ctx)
	wg.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.log.Info("uno-historian shutting down.")
	return nil
}

func (s *Service) readLoop(ctx context.Context) {
	for ctx.Err() == nil {
		rec, err := s.source.PopGameAction(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.WithError(err).Error("Failed to pop game action.")
			// Back off so a dead queue does not spin.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if rec == nil {
			continue
		}
		s.Handle(ctx, *rec)
	}
}

// Handle records activity for the game and adds the record to the batch, flushing when full.
func (s *Service) Handle(ctx context.Context, rec cache.GameActionRecord) {
	s.activityMu.Lock()
	if rec.ActionType == "game_end" {
		delete(s.lastActivity, rec.GameID)
	} else {
		s.lastActivity[rec.GameID] = s.now()
	}
	s.activityMu.Unlock()

	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	if len(s.batch) >= s.opts.BatchSize {
		s.flushLocked(ctx)
	}
}

// Flush writes the pending batch in a single transaction.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.flushLocked(ctx)
}

// flushLocked assumes batchMu is held. A failed batch is kept for the next attempt.
func (s *Service) flushLocked(ctx context.Context) {
	if len(s.batch) == 0 {
		return
	}
	batchCopy := make([]cache.GameActionRecord, len(s.batch))
	copy(batchCopy, s.batch)

	if err := s.store.InsertGameActions(ctx, batchCopy); err != nil {
		s.log.WithError(err).Errorf("Failed to flush %d actions.", len(batchCopy))
		return
	}
	s.batch = s.batch[:0]
	s.log.Debugf("Flushed %d actions to DB.", len(batchCopy))
}

// Pending returns the number of batched, unflushed records.
func (s *Service) Pending() int {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	return len(s.batch)
}

func (s *Service) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// inactivityLoop periodically marks games idle beyond the threshold as abandoned.
func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(s.opts.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepInactive(ctx)
		}
	}
}

// SweepInactive marks every game idle for longer than the inactivity threshold as abandoned
// and stops tracking it. Returns the games it marked.
func (s *Service) SweepInactive(ctx context.Context) []uuid.UUID {
	now := s.now()
	var idle []uuid.UUID
	s.activityMu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			idle = append(idle, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	// Actions for the game may still be batched; persist them first so the row exists.
	if len(idle) > 0 {
		s.Flush(ctx)
	}

	var marked []uuid.UUID
	for _, id := range idle {
		changed, err := s.store.MarkGameAbandoned(ctx, id)
		if err != nil {
			s.log.WithError(err).Errorf("Failed to mark game %v abandoned.", id)
			continue
		}
		if changed {
			s.log.Infof("Marked game %v as 'abandoned' due to inactivity.", id)
			marked = append(marked, id)
		}
	}
	return marked
}

// Tracked reports how many games are being watched for inactivity.
func (s *Service) Tracked() int {
	s.activityMu.Lock()
	defer s.activityMu.Unlock()
	return len(s.lastActivity)
}
