package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/damoang/angple-pages/internal/common"
	"github.com/damoang/angple-pages/internal/config"
	"github.com/damoang/angple-pages/internal/domain"
	"github.com/damoang/angple-pages/internal/editor"
	"github.com/damoang/angple-pages/internal/event"
	"github.com/damoang/angple-pages/internal/handler"
	"github.com/damoang/angple-pages/internal/migration"
	"github.com/damoang/angple-pages/internal/repository"
	"github.com/damoang/angple-pages/internal/routes"
	"github.com/damoang/angple-pages/internal/service"
	"github.com/damoang/angple-pages/internal/ws"
	"github.com/damoang/angple-pages/pkg/cache"
	"github.com/damoang/angple-pages/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const homePageID = "00000000-0000-7000-8000-000000000001"

// PagesAPISuite is an integration test suite for the pages and editor API
type PagesAPISuite struct {
	suite.Suite
	db         *gorm.DB
	router     *gin.Engine
	jwtManager *jwt.Manager
	hub        *ws.Hub
}

func TestPagesAPISuite(t *testing.T) {
	suite.Run(t, new(PagesAPISuite))
}

// SetupTest builds a fresh database and editor service per test; editor
// sessions live in memory.
func (s *PagesAPISuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	// Use SQLite for tests (no external DB dependency)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(migration.Run(db))
	s.db = db

	s.jwtManager = jwt.NewManager("test-secret-key-for-integration-tests", 900, 86400)

	log := zerolog.Nop()
	registry := editor.DefaultRegistry()
	cacheService := cache.NewService(nil)
	bus := event.NewBus(log)

	s.hub = ws.NewHub(nil, log)
	go s.hub.Run()
	ws.Bridge(bus, s.hub)

	pageService := service.NewPageService(
		repository.NewPageRepository(db),
		repository.NewPageRevisionRepository(db),
		repository.NewAutosaveRepository(db),
		cacheService, registry, 0, log,
	)
	editorService := service.NewEditorService(pageService, cacheService, bus, registry,
		config.Default().Editor, log)

	s.router = gin.New()
	routes.Setup(s.router,
		handler.NewPageHandler(pageService),
		handler.NewEditorHandler(editorService),
		handler.NewTemplateHandler(registry),
		handler.NewWSHandler(s.hub, ""),
		s.jwtManager,
		nil,
	)
}

func (s *PagesAPISuite) TearDownTest() {
	s.hub.Stop()
}

// --- helpers ---

func (s *PagesAPISuite) token(userID string, level int) string {
	token, err := s.jwtManager.GenerateAccessToken(userID, userID, level)
	s.Require().NoError(err)
	return token
}

func (s *PagesAPISuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *PagesAPISuite) decode(w *httptest.ResponseRecorder, data interface{}) {
	var resp struct {
		Data  json.RawMessage   `json:"data"`
		Error *common.ErrorInfo `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	s.Require().Nil(resp.Error, w.Body.String())
	s.Require().NoError(json.Unmarshal(resp.Data, data))
}

func (s *PagesAPISuite) state(w *httptest.ResponseRecorder) domain.EditorState {
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var st domain.EditorState
	s.decode(w, &st)
	return st
}

func editorPath(pageID, suffix string) string {
	return "/api/v1/pages/" + pageID + "/editor" + suffix
}

// --- Public endpoints ---

func (s *PagesAPISuite) TestTemplates() {
	w := s.do(http.MethodGet, "/api/v1/blocks/templates", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var templates []editor.Template
	s.decode(w, &templates)
	s.Len(templates, 22)
}

func (s *PagesAPISuite) TestListAndGetPage() {
	w := s.do(http.MethodGet, "/api/v1/pages", "", nil)
	s.Equal(http.StatusOK, w.Code)
	var items []domain.PageListItem
	s.decode(w, &items)
	s.Require().Len(items, 1)
	s.Equal("home", items[0].Slug)

	w = s.do(http.MethodGet, "/api/v1/pages/"+homePageID, "", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/pages/missing", "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *PagesAPISuite) TestPreviewStoredPage() {
	w := s.do(http.MethodGet, "/api/v1/pages/"+homePageID+"/preview", "", nil)
	s.Equal(http.StatusOK, w.Code)

	var views []editor.View
	s.decode(w, &views)
	s.Require().Len(views, 3)
	s.Equal(editor.TypeHero, views[0].Type)
	s.Len(views[2].Slots, 2)
}

// --- Page management ---

func (s *PagesAPISuite) TestCreatePage() {
	body := map[string]interface{}{
		"title":    "About",
		"slug":     "about",
		"document": []map[string]interface{}{{"id": "t1", "type": "text", "content": map[string]string{"text": "hi"}}},
	}

	w := s.do(http.MethodPost, "/api/v1/pages", "", body)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/pages", s.token("reader", 2), body)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/pages", s.token("alice", 5), body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var page domain.Page
	s.decode(w, &page)
	s.Equal(1, page.BlockCount)
	s.Equal("alice", page.CreatedBy)

	w = s.do(http.MethodPost, "/api/v1/pages", s.token("alice", 5), body)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/pages", s.token("alice", 5), map[string]interface{}{"title": "Bad", "slug": "Bad Slug"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/pages", s.token("alice", 5), map[string]interface{}{
		"title": "Broken", "slug": "broken", "document": map[string]string{"not": "a list"},
	})
	s.Equal(http.StatusBadRequest, w.Code)
}

// --- Editor ---

func (s *PagesAPISuite) TestEditorFlow() {
	alice := s.token("alice", 5)

	st := s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))
	s.Require().Len(st.Document, 3)
	s.Equal(1, st.Version)
	heroID, textID, colsID := st.Document[0].ID, st.Document[1].ID, st.Document[2].ID

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/blocks"), alice,
		map[string]string{"type": "quote", "target": colsID + ":1"}))
	s.True(st.Changed)
	s.Equal(5, editor.CountAll(st.Document))

	st = s.state(s.do(http.MethodPatch, editorPath(homePageID, "/blocks/"+heroID), alice,
		map[string]interface{}{"field": "title", "value": "Hi"}))
	s.True(st.Changed)
	s.True(st.Dirty)

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/undo"), alice, nil))
	s.True(st.Changed)
	s.True(st.CanRedo)
	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/redo"), alice, nil))
	s.True(st.Changed)

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/drag"), alice, map[string]interface{}{
		"events": []map[string]interface{}{
			{"kind": "press", "block_id": textID},
			{"kind": "move", "x": 0, "y": -40, "target": heroID},
			{"kind": "release"},
		},
	}))
	s.Require().NotNil(st.Drop)
	s.Equal(editor.DropCommitted, st.Drop.Outcome)
	s.Equal([]string{textID, heroID, colsID}, []string{st.Document[0].ID, st.Document[1].ID, st.Document[2].ID})

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/save"), alice, nil))
	s.Equal(2, st.Version)
	s.False(st.Dirty)

	w := s.do(http.MethodGet, "/api/v1/pages/"+homePageID, "", nil)
	var page domain.Page
	s.decode(w, &page)
	s.Equal(2, page.Version)
	s.Equal(5, page.BlockCount)
	s.Equal("alice", page.UpdatedBy)

	w = s.do(http.MethodGet, "/api/v1/pages/"+homePageID+"/revisions", alice, nil)
	var revs []domain.RevisionListItem
	s.decode(w, &revs)
	s.Require().Len(revs, 1)
	s.Equal(1, revs[0].Version)

	w = s.do(http.MethodGet, "/api/v1/pages/"+homePageID+"/revisions/1", alice, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/api/v1/pages/"+homePageID+"/revisions/0", alice, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	st = s.state(s.do(http.MethodDelete, editorPath(homePageID, ""), alice, nil))
	s.False(st.Dirty)
}

func (s *PagesAPISuite) TestEditorKeysModeAndInline() {
	alice := s.token("alice", 5)
	st := s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))
	heroID := st.Document[0].ID

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/inline"), alice, map[string]string{
		"block_id": heroID, "field": "title", "value": "Inline", "action": "commit",
	}))
	s.True(st.Changed)

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, "/keys"), alice, map[string]string{"chord": "Ctrl+Z"}))
	s.Equal("undo", st.Command)
	s.False(st.CanUndo)

	st = s.state(s.do(http.MethodPut, editorPath(homePageID, "/mode"), alice, map[string]string{"mode": "preview"}))
	s.Equal("preview", st.Mode)

	w := s.do(http.MethodPut, editorPath(homePageID, "/mode"), alice, map[string]string{"mode": "fullscreen"})
	s.Equal(http.StatusBadRequest, w.Code)

	st = s.state(s.do(http.MethodPut, editorPath(homePageID, "/selection"), alice, map[string]string{"block_id": ""}))
	s.Empty(st.Selected)

	w = s.do(http.MethodGet, editorPath(homePageID, "/preview"), alice, nil)
	s.Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodGet, editorPath(homePageID, "/snapshot"), alice, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *PagesAPISuite) TestEditorValidation() {
	alice := s.token("alice", 5)
	s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))

	w := s.do(http.MethodPost, editorPath(homePageID, "/drag"), alice, map[string]interface{}{"events": []interface{}{}})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, editorPath(homePageID, "/drag"), alice, map[string]interface{}{
		"events": []map[string]interface{}{{"kind": "fly"}},
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, editorPath(homePageID, "/blocks"), alice, map[string]string{"type": "marquee"})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPatch, editorPath(homePageID, "/blocks/x"), alice, map[string]string{"field": "title"})
	s.Equal(http.StatusBadRequest, w.Code)

	st := s.state(s.do(http.MethodDelete, editorPath(homePageID, "/blocks/ghost"), alice, nil))
	s.False(st.Changed)
}

func (s *PagesAPISuite) TestEditorLockedAndMissingSession() {
	alice, bob := s.token("alice", 5), s.token("bob", 5)

	w := s.do(http.MethodPost, editorPath(homePageID, "/undo"), alice, nil)
	s.Equal(http.StatusNotFound, w.Code)

	s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))

	w = s.do(http.MethodPost, editorPath(homePageID, ""), bob, nil)
	s.Equal(http.StatusLocked, w.Code)

	w = s.do(http.MethodPost, editorPath("missing", ""), bob, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *PagesAPISuite) TestEditorSaveConflict() {
	alice := s.token("alice", 5)
	st := s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))

	s.state(s.do(http.MethodDelete, editorPath(homePageID, "/blocks/"+st.Document[0].ID), alice, nil))

	// saved by another instance in the meantime
	s.Require().NoError(s.db.Model(&domain.Page{}).Where("id = ?", homePageID).Update("version", 7).Error)

	w := s.do(http.MethodPost, editorPath(homePageID, "/save"), alice, nil)
	s.Equal(http.StatusConflict, w.Code)
}

func (s *PagesAPISuite) TestEditorResumeDraft() {
	alice := s.token("alice", 5)
	st := s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))
	s.state(s.do(http.MethodDelete, editorPath(homePageID, "/blocks/"+st.Document[0].ID), alice, nil))

	st = s.state(s.do(http.MethodDelete, editorPath(homePageID, ""), alice, nil))
	s.True(st.Dirty)

	st = s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, map[string]bool{"resume": true}))
	s.True(st.Dirty)
	s.Len(st.Document, 2)
}

// --- WebSocket preview ---

func (s *PagesAPISuite) TestLivePreview() {
	server := httptest.NewServer(s.router)
	defer server.Close()

	alice := s.token("alice", 5)
	st := s.state(s.do(http.MethodPost, editorPath(homePageID, ""), alice, nil))

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/pages/" + homePageID + "?token=" + s.token("reviewer", 5)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	s.Require().Eventually(func() bool { return s.hub.ClientCount(homePageID) == 1 }, time.Second, 10*time.Millisecond)

	s.state(s.do(http.MethodDelete, editorPath(homePageID, "/blocks/"+st.Document[0].ID), alice, nil))

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	var msg ws.Message
	s.Require().NoError(conn.ReadJSON(&msg))
	assert.Equal(s.T(), ws.TypeDocument, msg.Type)
	assert.Equal(s.T(), homePageID, msg.PageID)
}

func (s *PagesAPISuite) TestLivePreviewRequiresEditorLevel() {
	w := s.do(http.MethodGet, "/ws/pages/"+homePageID, s.token("viewer", 1), nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(0, s.hub.ClientCount(homePageID))

	w = s.do(http.MethodGet, "/ws/pages/"+homePageID, "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}
