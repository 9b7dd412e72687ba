package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/courtboard/courtboard/internal/board"
	"github.com/courtboard/courtboard/internal/syncer"
	"github.com/courtboard/courtboard/internal/timer"
)

// Service ties the synchronizer and the timer engine to the websocket edge.
// It runs the snapshot loop and the display tick, and translates client
// intents into mutations. It is stateless beyond connection bookkeeping: the
// shared document is the only source of truth.
type Service struct {
	syncer  *syncer.Syncer
	engine  *timer.Engine
	ticker  *timer.Ticker
	manager *ConnectionManager
}

// NewService creates a gateway service over the given core components.
func NewService(sync *syncer.Syncer, engine *timer.Engine, ticker *timer.Ticker, config ConnectionConfig) *Service {
	s := &Service{
		syncer: sync,
		engine: engine,
		ticker: ticker,
	}
	s.manager = NewConnectionManager(config, s)
	return s
}

// Manager exposes the connection manager for the HTTP handler.
func (s *Service) Manager() *ConnectionManager {
	return s.manager
}

// Run drives the gateway until ctx is cancelled: the broadcast loop, the
// store subscription and the once-per-second countdown re-evaluation.
func (s *Service) Run(ctx context.Context) error {
	snapshots, err := s.syncer.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to match state: %w", err)
	}

	go s.manager.Start(ctx)
	go s.ticker.Run(ctx, s.broadcastTick)

	for {
		select {
		case <-ctx.Done():
			return nil
		case doc, ok := <-snapshots:
			if !ok {
				return nil
			}
			s.broadcastState(doc)
		}
	}
}

// broadcastState pushes a full snapshot event. Called for every store
// delivery, including the echo of this client's own writes.
func (s *Service) broadcastState(doc board.Document) {
	s.manager.Broadcast(&Event{
		ID:        uuid.New().String(),
		Type:      EventTypeState,
		Timestamp: time.Now(),
		Data:      s.statePayload(doc),
	})
}

// broadcastTick re-evaluates the remaining-time formula against the current
// mirror. It runs on the 1s cadence regardless of store traffic and never
// blocks: with no mirror yet there is nothing to display.
func (s *Service) broadcastTick() {
	doc, ok := s.syncer.Snapshot()
	if !ok {
		return
	}
	s.manager.Broadcast(&Event{
		ID:        uuid.New().String(),
		Type:      EventTypeTimerTick,
		Timestamp: time.Now(),
		Data: TickPayload{
			RemainingSec: s.engine.Remaining(doc),
			IsPaused:     doc.IsPaused,
			TickedAt:     time.Now(),
		},
	})
}

// State returns the current display state, false until the first store
// observation lands.
func (s *Service) State() (StatePayload, bool) {
	doc, ok := s.syncer.Snapshot()
	if !ok {
		return StatePayload{}, false
	}
	return s.statePayload(doc), true
}

func (s *Service) statePayload(doc board.Document) StatePayload {
	return StatePayload{
		Document:     doc,
		TeamScoreA:   doc.TeamScore(board.TeamA),
		TeamScoreB:   doc.TeamScore(board.TeamB),
		RemainingSec: s.engine.Remaining(doc),
	}
}

// HandleIntent validates a client intent and issues the corresponding store
// write. Intents arriving before the first snapshot are rejected: there is
// no mirror to merge over yet.
func (s *Service) HandleIntent(ctx context.Context, intent Intent) error {
	doc, ok := s.syncer.Snapshot()
	if !ok {
		return fmt.Errorf("no match state yet")
	}

	var m board.Mutation
	switch intent.Type {
	case IntentAdjustScore:
		if err := validateSlot(doc, intent.Team, intent.Index); err != nil {
			return err
		}
		m = board.AdjustScore(doc, intent.Team, intent.Index, intent.Delta)

	case IntentRenamePlayer:
		if err := validateSlot(doc, intent.Team, intent.Index); err != nil {
			return err
		}
		m = board.RenamePlayer(doc, intent.Team, intent.Index, intent.Name)

	case IntentSetRosterSize:
		if intent.Size < 2 || intent.Size > board.MinRosterSize {
			return fmt.Errorf("invalid roster size %d", intent.Size)
		}
		m = board.SetRosterSize(doc, intent.Size)

	case IntentSetPointsToWin:
		if intent.Points <= 0 {
			return fmt.Errorf("invalid points to win %d", intent.Points)
		}
		m = board.SetPointsToWin(intent.Points)

	case IntentPause:
		if doc.IsPaused {
			return nil // already paused
		}
		m = s.engine.Pause()

	case IntentResume:
		if !doc.IsPaused {
			return nil // already running
		}
		m = s.engine.Resume(doc)

	case IntentReset:
		m = s.engine.Reset()

	default:
		return fmt.Errorf("unknown intent type %q", intent.Type)
	}

	if err := s.syncer.Mutate(ctx, m); err != nil {
		return err
	}

	log.Debug().
		Str("intent", string(intent.Type)).
		Msg("intent applied")
	return nil
}

func validateSlot(doc board.Document, team board.TeamID, index int) error {
	if team != board.TeamA && team != board.TeamB {
		return fmt.Errorf("unknown team %q", team)
	}
	if index < 0 || index >= len(doc.Roster(team)) {
		return fmt.Errorf("player index %d out of range", index)
	}
	return nil
}
