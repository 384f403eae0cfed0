package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MRamiBalles/PabellonNocturno/server/internal/events"
	"github.com/MRamiBalles/PabellonNocturno/server/internal/platform/logger"
)

const (
	journalBuffer     = 1024
	journalBatchSize  = 64
	journalFlushEvery = 250 * time.Millisecond
)

// Journal is an asynchronous events.EventPersister. Append never blocks the
// tick thread: events are handed to a writer goroutine and dropped (and
// counted) when its buffer is full.
type Journal struct {
	repo      EventRepository
	sessionID string
	logger    *logger.Logger

	in     chan events.GameEvent
	done   chan struct{}
	mu     sync.RWMutex
	closed bool

	written atomic.Int64
	dropped atomic.Int64
	onWrite func(n int)
}

// NewJournal starts the writer for one session.
func NewJournal(repo EventRepository, sessionID string, log *logger.Logger) *Journal {
	j := &Journal{
		repo:      repo,
		sessionID: sessionID,
		logger:    log,
		in:        make(chan events.GameEvent, journalBuffer),
		done:      make(chan struct{}),
	}
	go j.run()
	return j
}

// OnWrite installs a hook called with the size of every committed batch.
// Must be set before the first Append.
func (j *Journal) OnWrite(fn func(n int)) {
	j.onWrite = fn
}

// SessionID returns the session this journal writes to.
func (j *Journal) SessionID() string { return j.sessionID }

// Append implements events.EventPersister.
func (j *Journal) Append(ev events.GameEvent) error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.closed {
		return nil
	}
	select {
	case j.in <- ev:
	default:
		j.dropped.Add(1)
	}
	return nil
}

// Written returns how many events reached the database.
func (j *Journal) Written() int64 { return j.written.Load() }

// Dropped returns how many events were discarded on a full buffer.
func (j *Journal) Dropped() int64 { return j.dropped.Load() }

// Close stops accepting events and waits for the writer to flush.
func (j *Journal) Close() {
	j.mu.Lock()
	if j.closed {
		j.mu.Unlock()
		return
	}
	j.closed = true
	close(j.in)
	j.mu.Unlock()
	<-j.done
}

func (j *Journal) run() {
	defer close(j.done)

	ticker := time.NewTicker(journalFlushEvery)
	defer ticker.Stop()

	batch := make([]EventRecord, 0, journalBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := j.repo.AppendBatch(ctx, batch); err != nil {
			j.logger.Error("journal write failed", "events", len(batch), "error", err)
		} else {
			j.written.Add(int64(len(batch)))
			if j.onWrite != nil {
				j.onWrite(len(batch))
			}
		}
		batch = batch[:0]
	}

	for {
		select {
		case ev, ok := <-j.in:
			if !ok {
				flush()
				return
			}
			rec, err := NewEventRecord(j.sessionID, ev)
			if err != nil {
				j.logger.Warn("journal skipped unencodable event", "type", string(ev.Type), "error", err)
				continue
			}
			batch = append(batch, rec)
			if len(batch) >= journalBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
