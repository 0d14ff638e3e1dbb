package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/config"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/damoang/angple-pages/internal/event"
	"github.com/damoang/angple-pages/pkg/cache"
	"github.com/rs/zerolog"
)

// pageSession is the one open editor of a page. mu serializes commands.
type pageSession struct {
	mu          sync.Mutex
	pageID      string
	memberID    string
	baseVersion int
	// resumed is set while the session holds a restored draft that was
	// never saved
	resumed  bool
	session  *editor.Session
	lastUsed time.Time
}

// open reports whether the session finished loading and is not closed.
// Callers hold mu.
func (ps *pageSession) open() bool {
	return ps.session != nil && !ps.session.Closed()
}

// EditorService keeps the editor sessions of this instance. A page has at
// most one editor; the redis lock extends that across instances.
type EditorService struct {
	pages    PageService
	cache    cache.Service
	bus      *event.Bus
	registry *editor.Registry
	cfg      config.EditorConfig
	log      zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*pageSession // pageID -> session
}

// NewEditorService creates a new EditorService
func NewEditorService(
	pages PageService,
	cacheService cache.Service,
	bus *event.Bus,
	registry *editor.Registry,
	cfg config.EditorConfig,
	log zerolog.Logger,
) *EditorService {
	return &EditorService{
		pages:    pages,
		cache:    cacheService,
		bus:      bus,
		registry: registry,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
		sessions: make(map[string]*pageSession),
	}
}

// Registry returns the block templates sessions are created with
func (s *EditorService) Registry() *editor.Registry {
	return s.registry
}

// OpenSessions returns the number of sessions open on this instance
func (s *EditorService) OpenSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Open starts an editor session for memberID. Opening a page the member
// already edits returns the running session.
func (s *EditorService) Open(ctx context.Context, pageID, memberID string, resume bool) (*domain.EditorState, error) {
	s.mu.Lock()
	if ps, ok := s.sessions[pageID]; ok {
		// closeSession takes ps.mu before s.mu
		s.mu.Unlock()
		if ps.memberID != memberID {
			return nil, common.ErrPageLocked
		}
		ps.mu.Lock()
		defer ps.mu.Unlock()
		if !ps.open() {
			return nil, common.ErrSessionNotFound
		}
		ps.lastUsed = s.now()
		return s.state(ps), nil
	}

	// Reserve the page, then load outside s.mu. Commands reaching the
	// reservation wait on ps.mu until the load is done.
	ps := &pageSession{pageID: pageID, memberID: memberID, lastUsed: s.now()}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	s.sessions[pageID] = ps
	s.mu.Unlock()

	if err := s.start(ctx, ps, resume); err != nil {
		s.mu.Lock()
		if s.sessions[pageID] == ps {
			delete(s.sessions, pageID)
		}
		s.mu.Unlock()
		return nil, err
	}

	s.log.Info().Str("page_id", pageID).Str("member_id", memberID).
		Int("version", ps.baseVersion).Bool("resumed", ps.resumed).
		Msg("editor opened")
	s.bus.Publish(event.TopicEditorOpened, pageID, memberID, map[string]interface{}{
		"version": ps.baseVersion,
		"resumed": ps.resumed,
	})
	return s.state(ps), nil
}

// start takes the edit lock and loads the session of a reserved page
func (s *EditorService) start(ctx context.Context, ps *pageSession, resume bool) error {
	locked, err := s.cache.AcquireLock(ctx, ps.pageID, ps.memberID, cache.TTLLock)
	if err != nil {
		return fmt.Errorf("acquire edit lock: %w", err)
	}
	if !locked {
		return common.ErrPageLocked
	}
	if err := s.load(ctx, ps, resume); err != nil {
		s.releaseLock(ctx, ps.pageID, ps.memberID)
		return err
	}
	return nil
}

func (s *EditorService) load(ctx context.Context, ps *pageSession, resume bool) error {
	doc, version, err := s.pages.LoadDocument(ctx, ps.pageID)
	if err != nil {
		return err
	}
	ps.baseVersion = version

	if resume {
		draft, err := s.pages.LoadDraft(ctx, ps.pageID, ps.memberID)
		if err != nil {
			return err
		}
		if draft != nil {
			if draft.BaseVersion != version {
				s.log.Warn().Str("page_id", ps.pageID).
					Int("draft_version", draft.BaseVersion).Int("page_version", version).
					Msg("resuming draft edited from an older version")
			}
			doc = draft.Document
			ps.resumed = true
		}
	}

	sessLog := s.log.With().Str("page_id", ps.pageID).Str("member_id", ps.memberID).Logger()
	ps.session = editor.NewSession(doc, editor.Options{
		Registry:               s.registry,
		Saver:                  s.saver(ps),
		Observer:               s.observer(ps),
		HistoryLimit:           s.cfg.HistoryLimit,
		DragActivationDistance: s.cfg.DragActivationDistance,
		Logger:                 &sessLog,
	})
	return nil
}

// saver writes the session document over the version it was opened at
func (s *EditorService) saver(ps *pageSession) editor.Saver {
	return editor.SaverFunc(func(ctx context.Context, doc editor.Document) error {
		version, err := s.pages.SaveDocument(ctx, ps.pageID, ps.baseVersion, doc, ps.memberID)
		if err != nil {
			return err
		}
		ps.baseVersion = version
		ps.resumed = false
		s.discardDraft(ctx, ps)
		s.bus.Publish(event.TopicPageSaved, ps.pageID, ps.memberID, map[string]interface{}{
			"version":     version,
			"block_count": editor.CountAll(doc),
		})
		return nil
	})
}

func (s *EditorService) observer(ps *pageSession) func(editor.Change) {
	return func(ch editor.Change) {
		s.bus.Publish(event.TopicDocumentChanged, ps.pageID, ps.memberID, ch)
	}
}

// acquire returns the session memberID has open on pageID
func (s *EditorService) acquire(pageID, memberID string) (*pageSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, ok := s.sessions[pageID]
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	if ps.memberID != memberID {
		return nil, common.ErrPageLocked
	}
	return ps, nil
}

// exec runs fn on the member's session and reports the resulting state.
// Edits that leave the session dirty are stored as a draft; returning to
// the saved document drops it.
func (s *EditorService) exec(ctx context.Context, pageID, memberID, command string, fn func(sess *editor.Session) (bool, error)) (*domain.EditorState, error) {
	ps, err := s.acquire(pageID, memberID)
	if err != nil {
		return nil, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.open() {
		return nil, common.ErrSessionNotFound
	}

	before := ps.session.History().Revision()
	changed, err := fn(ps.session)
	if err != nil {
		return nil, err
	}
	ps.lastUsed = s.now()

	if ps.session.History().Revision() != before {
		if ps.session.Dirty() {
			s.storeDraft(ctx, ps)
		} else if !ps.resumed {
			s.discardDraft(ctx, ps)
		}
	}

	st := s.state(ps)
	st.Changed = changed
	st.Command = command
	return st, nil
}

func (s *EditorService) state(ps *pageSession) *domain.EditorState {
	sess := ps.session
	return &domain.EditorState{
		PageID:   ps.pageID,
		Selected: sess.Selected(),
		Mode:     string(sess.Mode()),
		CanUndo:  sess.CanUndo(),
		CanRedo:  sess.CanRedo(),
		Dirty:    sess.Dirty() || ps.resumed,
		Revision: sess.History().Revision(),
		Version:  ps.baseVersion,
		Document: sess.Document(),
	}
}

func (s *EditorService) storeDraft(ctx context.Context, ps *pageSession) {
	draft := &Draft{
		BaseVersion: ps.baseVersion,
		Document:    ps.session.Document(),
		SavedAt:     s.now(),
	}
	if err := s.pages.SaveDraft(ctx, ps.pageID, ps.memberID, draft); err != nil {
		s.log.Warn().Err(err).Str("page_id", ps.pageID).Msg("draft store failed")
	}
}

func (s *EditorService) discardDraft(ctx context.Context, ps *pageSession) {
	if err := s.pages.DiscardDraft(ctx, ps.pageID, ps.memberID); err != nil {
		s.log.Warn().Err(err).Str("page_id", ps.pageID).Msg("discard draft failed")
	}
}

// State returns the session state without changing it
func (s *EditorService) State(ctx context.Context, pageID, memberID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "", func(*editor.Session) (bool, error) {
		return false, nil
	})
}

// Preview projects the session document for rendering
func (s *EditorService) Preview(pageID, memberID string) ([]editor.View, error) {
	ps, err := s.acquire(pageID, memberID)
	if err != nil {
		return nil, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !ps.open() {
		return nil, common.ErrSessionNotFound
	}
	return editor.Project(s.registry, ps.session.Document()), nil
}

// Select selects blockID; an empty id clears the selection
func (s *EditorService) Select(ctx context.Context, pageID, memberID, blockID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "select", func(sess *editor.Session) (bool, error) {
		prev := sess.Selected()
		if blockID == "" {
			sess.ClearSelection()
		} else {
			sess.SelectBlock(blockID)
		}
		return sess.Selected() != prev, nil
	})
}

// AddBlock appends a new block of typ to target ("" for the top level)
func (s *EditorService) AddBlock(ctx context.Context, pageID, memberID string, req *domain.AddBlockRequest) (*domain.EditorState, error) {
	t := editor.BlockType(req.Type)
	if _, ok := s.registry.Lookup(t); !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownBlockType, req.Type)
	}
	target := editor.TopLevel
	if req.Target != "" {
		ref, ok := editor.ParseSlotKey(req.Target)
		if !ok {
			return nil, fmt.Errorf("%w: target %q", common.ErrInvalidInput, req.Target)
		}
		target = ref
	}
	return s.exec(ctx, pageID, memberID, "add", func(sess *editor.Session) (bool, error) {
		_, ok := sess.AddBlockTo(t, target)
		return ok, nil
	})
}

// UpdateField sets one content field of blockID
func (s *EditorService) UpdateField(ctx context.Context, pageID, memberID, blockID string, req *domain.UpdateFieldRequest) (*domain.EditorState, error) {
	var value any
	if err := json.Unmarshal(req.Value, &value); err != nil {
		return nil, fmt.Errorf("%w: value: %v", common.ErrInvalidInput, err)
	}
	return s.exec(ctx, pageID, memberID, "update", func(sess *editor.Session) (bool, error) {
		return sess.UpdateField(blockID, req.Field, value), nil
	})
}

func (s *EditorService) DeleteBlock(ctx context.Context, pageID, memberID, blockID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "delete", func(sess *editor.Session) (bool, error) {
		return sess.DeleteBlock(blockID), nil
	})
}

func (s *EditorService) DuplicateBlock(ctx context.Context, pageID, memberID, blockID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "duplicate", func(sess *editor.Session) (bool, error) {
		_, ok := sess.DuplicateBlock(blockID)
		return ok, nil
	})
}

// Reorder moves blockID to the position of the sibling target
func (s *EditorService) Reorder(ctx context.Context, pageID, memberID, blockID, target string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "reorder", func(sess *editor.Session) (bool, error) {
		return sess.Reorder(blockID, target), nil
	})
}

// Move moves blockID to the end of the slot key target
func (s *EditorService) Move(ctx context.Context, pageID, memberID, blockID, target string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "move", func(sess *editor.Session) (bool, error) {
		return sess.MoveAcross(blockID, target), nil
	})
}

// Drag replays a recorded pointer gesture
func (s *EditorService) Drag(ctx context.Context, pageID, memberID string, events []editor.PointerEvent) (*domain.EditorState, error) {
	var res editor.DropResult
	st, err := s.exec(ctx, pageID, memberID, "drag", func(sess *editor.Session) (bool, error) {
		res = sess.Drag().Replay(events)
		return res.Changed, nil
	})
	if err != nil {
		return nil, err
	}
	st.Drop = &res
	return st, nil
}

func (s *EditorService) Undo(ctx context.Context, pageID, memberID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "undo", func(sess *editor.Session) (bool, error) {
		return sess.Undo(), nil
	})
}

func (s *EditorService) Redo(ctx context.Context, pageID, memberID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "redo", func(sess *editor.Session) (bool, error) {
		return sess.Redo(), nil
	})
}

// Save stores the session document as the next page version
func (s *EditorService) Save(ctx context.Context, pageID, memberID string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "save", func(sess *editor.Session) (bool, error) {
		if err := sess.Save(ctx); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Key dispatches a keyboard chord through the session keymap
func (s *EditorService) Key(ctx context.Context, pageID, memberID, chord string) (*domain.EditorState, error) {
	var cmd editor.Command
	st, err := s.exec(ctx, pageID, memberID, "key", func(sess *editor.Session) (bool, error) {
		rev, sel, mode := sess.History().Revision(), sess.Selected(), sess.Mode()
		var err error
		cmd, err = sess.HandleKey(ctx, chord)
		if err != nil {
			return false, err
		}
		changed := sess.History().Revision() != rev || sess.Selected() != sel || sess.Mode() != mode
		return changed || cmd == editor.CmdSave, nil
	})
	if err != nil {
		return nil, err
	}
	st.Command = string(cmd)
	return st, nil
}

// SetMode switches the session between edit and preview
func (s *EditorService) SetMode(ctx context.Context, pageID, memberID, mode string) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "mode", func(sess *editor.Session) (bool, error) {
		return sess.SetMode(editor.ViewMode(mode)), nil
	})
}

// InlineEdit types value into a text field and commits or cancels it
func (s *EditorService) InlineEdit(ctx context.Context, pageID, memberID string, req *domain.InlineEditRequest) (*domain.EditorState, error) {
	return s.exec(ctx, pageID, memberID, "inline", func(sess *editor.Session) (bool, error) {
		e, ok := sess.BeginEdit(req.BlockID, req.Field)
		if !ok {
			return false, fmt.Errorf("%w: %s.%s is not an editable text field", common.ErrInvalidInput, req.BlockID, req.Field)
		}
		if req.Action == "cancel" {
			e.Cancel()
			return false, nil
		}
		e.Input(req.Value)
		return e.Commit(), nil
	})
}

// Close ends the member's session. A dirty session is saved when
// autosave_on_close is set and otherwise kept as a draft.
func (s *EditorService) Close(ctx context.Context, pageID, memberID string) (*domain.EditorState, error) {
	ps, err := s.acquire(pageID, memberID)
	if err != nil {
		return nil, err
	}
	return s.closeSession(ctx, ps, "closed")
}

func (s *EditorService) closeSession(ctx context.Context, ps *pageSession, reason string) (*domain.EditorState, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.open() {
		return nil, common.ErrSessionNotFound
	}

	switch {
	case !ps.session.Dirty() && !ps.resumed:
		s.discardDraft(ctx, ps)
	case s.cfg.AutosaveOnClose:
		if err := ps.session.Save(ctx); err != nil {
			return nil, err
		}
	default:
		s.storeDraft(ctx, ps)
	}

	ps.session.Close()
	st := s.state(ps)

	s.mu.Lock()
	if s.sessions[ps.pageID] == ps {
		delete(s.sessions, ps.pageID)
	}
	s.mu.Unlock()
	s.releaseLock(ctx, ps.pageID, ps.memberID)

	s.log.Info().Str("page_id", ps.pageID).Str("member_id", ps.memberID).
		Str("reason", reason).Bool("dirty", st.Dirty).
		Msg("editor closed")
	s.bus.Publish(event.TopicEditorClosed, ps.pageID, ps.memberID, map[string]interface{}{
		"reason": reason,
		"dirty":  st.Dirty,
	})
	return st, nil
}

func (s *EditorService) releaseLock(ctx context.Context, pageID, memberID string) {
	if err := s.cache.ReleaseLock(ctx, pageID, memberID); err != nil {
		s.log.Warn().Err(err).Str("page_id", pageID).Msg("release edit lock failed")
	}
}

// SweepIdle closes sessions unused for longer than the idle timeout and
// refreshes the edit lock of the others. It returns the number closed.
func (s *EditorService) SweepIdle(ctx context.Context) int {
	now := s.now()

	s.mu.Lock()
	open := make([]*pageSession, 0, len(s.sessions))
	for _, ps := range s.sessions {
		open = append(open, ps)
	}
	s.mu.Unlock()

	closed := 0
	for _, ps := range open {
		ps.mu.Lock()
		idle := now.Sub(ps.lastUsed)
		opened := ps.open()
		ps.mu.Unlock()

		if !opened {
			continue
		}
		if s.cfg.IdleTimeout > 0 && idle > s.cfg.IdleTimeout {
			if _, err := s.closeSession(ctx, ps, "idle"); err != nil {
				s.log.Warn().Err(err).Str("page_id", ps.pageID).Msg("idle close failed")
				continue
			}
			closed++
			continue
		}
		if _, err := s.cache.AcquireLock(ctx, ps.pageID, ps.memberID, cache.TTLLock); err != nil {
			s.log.Warn().Err(err).Str("page_id", ps.pageID).Msg("refresh edit lock failed")
		}
	}
	return closed
}

// RunJanitor sweeps idle sessions every interval until ctx is done
func (s *EditorService) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepIdle(ctx); n > 0 {
				s.log.Info().Int("closed", n).Msg("idle editor sessions closed")
			}
		}
	}
}

// CloseAll closes every session, used on shutdown
func (s *EditorService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	open := make([]*pageSession, 0, len(s.sessions))
	for _, ps := range s.sessions {
		open = append(open, ps)
	}
	s.mu.Unlock()

	for _, ps := range open {
		if _, err := s.closeSession(ctx, ps, "shutdown"); err != nil {
			s.log.Warn().Err(err).Str("page_id", ps.pageID).Msg("shutdown close failed")
		}
	}
}
