package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/otakudb/internal/platform/analytics"
	"github.com/example/otakudb/internal/platform/api"
	"github.com/example/otakudb/internal/platform/httpserver"
	"github.com/example/otakudb/services/otakudb/internal/domain"
	"github.com/example/otakudb/services/otakudb/internal/query"
	"github.com/example/otakudb/services/otakudb/internal/store"
)

type recordedEvent struct {
	subject string
	props   map[string]any
}

type fakeEvents struct{ events []recordedEvent }

func (f *fakeEvents) Publish(subject string, props map[string]any) {
	f.events = append(f.events, recordedEvent{subject: subject, props: props})
}

func newDeps() (Deps, *fakeEvents) {
	ev := &fakeEvents{}
	return Deps{Store: store.NewInMemoryAnimeStore(), Events: ev}, ev
}

func do(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var e api.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

const haikyuu = `{"uid":28891,"title":"Haikyuu!! Second Season","genre":["Comedy","Sports"],"episodes":25,"score":8.82}`

func create(t *testing.T, d Deps, body string) domain.Anime {
	t.Helper()
	rr := do(CreateAnime(d), http.MethodPost, "/api/animes", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var a domain.Anime
	if err := json.NewDecoder(rr.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return a
}

func TestCreateAnime(t *testing.T) {
	d, ev := newDeps()
	a := create(t, d, haikyuu)

	if a.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if a.Title != "Haikyuu!! Second Season" {
		t.Fatalf("unexpected title %q", a.Title)
	}
	if len(ev.events) != 1 || ev.events[0].subject != analytics.SubjectAnimeCreated {
		t.Fatalf("expected one created event, got %+v", ev.events)
	}
}

func TestCreateAnime_MissingTitle(t *testing.T) {
	d, ev := newDeps()
	rr := do(CreateAnime(d), http.MethodPost, "/api/animes", `{"uid":1,"genre":[]}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	e := decodeError(t, rr)
	if len(e.Errors) != 1 || !strings.Contains(e.Errors[0], `"title"`) {
		t.Fatalf("expected one error naming title, got %v", e.Errors)
	}
	if len(ev.events) != 0 {
		t.Fatal("expected no event on failed create")
	}
}

func TestCreateAnime_InvalidJSON(t *testing.T) {
	d, _ := newDeps()
	rr := do(CreateAnime(d), http.MethodPost, "/api/animes", `{"uid":`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Message == "" {
		t.Fatal("expected message for malformed body")
	}
}

func TestListAnime_ByID(t *testing.T) {
	d, _ := newDeps()
	a := create(t, d, haikyuu)

	rr := do(ListAnime(d), http.MethodGet, "/api/animes?id=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got domain.Anime
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != a.ID || len(got.Genre) != 2 || got.Genre[0] != "Comedy" || got.Genre[1] != "Sports" {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestListAnime_NotFound(t *testing.T) {
	d, _ := newDeps()
	create(t, d, haikyuu)

	cases := map[string]string{
		"/api/animes?id=999999":       "anime id:999999 not found",
		"/api/animes?title=Naruto":    "no anime found matching words: Naruto",
		"/api/animes?genre=Isekai":    "no anime found with genre: Isekai",
		"/api/animes?genre=&id=12345": "anime id:12345 not found",
	}
	for target, want := range cases {
		rr := do(ListAnime(d), http.MethodGet, target, "")
		if rr.Code != http.StatusNotFound {
			t.Fatalf("%s: expected 404, got %d", target, rr.Code)
		}
		if e := decodeError(t, rr); e.Message != want {
			t.Fatalf("%s: expected %q, got %q", target, want, e.Message)
		}
	}
}

func TestListAnime_EmptyStore(t *testing.T) {
	d, _ := newDeps()
	rr := do(ListAnime(d), http.MethodGet, "/api/animes", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("expected [], got %s", body)
	}
}

func TestListAnime_TitleWords(t *testing.T) {
	d, _ := newDeps()
	create(t, d, `{"uid":20583,"title":"Haikyuu!!","genre":["Sports"]}`)
	second := create(t, d, haikyuu)

	rr := do(ListAnime(d), http.MethodGet, "/api/animes?title=Second+Haikyuu", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got []domain.Anime
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != second.ID {
		t.Fatalf("expected only the second season, got %+v", got)
	}
}

func TestListAnime_InvalidID(t *testing.T) {
	d, _ := newDeps()
	rr := do(ListAnime(d), http.MethodGet, "/api/animes?id=0", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decodeError(t, rr); len(e.Errors) != 1 {
		t.Fatalf("expected one error, got %v", e.Errors)
	}
}

func TestUpdateAnime(t *testing.T) {
	d, ev := newDeps()
	create(t, d, haikyuu)

	rr := do(UpdateAnime(d), http.MethodPatch, "/api/animes?id=1", `{"score":"9.0","uid":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var m api.Message
	_ = json.NewDecoder(rr.Body).Decode(&m)
	if m.Message != "field(s) updated successfully on anime id:1" {
		t.Fatalf("unexpected message %q", m.Message)
	}

	got, _ := d.Store.Lookup(context.Background(), query.Lookup{Kind: query.ByID, ID: 1})
	if got[0].Score == nil || *got[0].Score != 9.0 || got[0].UID != 28891 {
		t.Fatalf("unexpected record after update: %+v", got[0])
	}
	if len(ev.events) != 2 || ev.events[1].subject != analytics.SubjectAnimeUpdated {
		t.Fatalf("expected updated event, got %+v", ev.events)
	}
}

func TestUpdateAnime_ImmutableOnly(t *testing.T) {
	d, _ := newDeps()
	create(t, d, haikyuu)

	rr := do(UpdateAnime(d), http.MethodPatch, "/api/animes?id=1", `{"uid":5}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decodeError(t, rr); len(e.Errors) != 1 {
		t.Fatalf("expected one error, got %v", e.Errors)
	}
}

func TestUpdateAnime_EmptyBody(t *testing.T) {
	d, _ := newDeps()
	create(t, d, haikyuu)

	rr := do(UpdateAnime(d), http.MethodPatch, "/api/animes?id=1", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestUpdateAnime_MissingIDAndBadField(t *testing.T) {
	d, _ := newDeps()
	rr := do(UpdateAnime(d), http.MethodPatch, "/api/animes", `{"score":11}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decodeError(t, rr); len(e.Errors) != 2 {
		t.Fatalf("expected errors for id and score, got %v", e.Errors)
	}
}

func TestUpdateAnime_NotFound(t *testing.T) {
	d, _ := newDeps()
	rr := do(UpdateAnime(d), http.MethodPatch, "/api/animes?id=999999", `{"title":"Monster"}`)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Message != "anime id:999999 not found" {
		t.Fatalf("unexpected message %q", e.Message)
	}
}

func TestDeleteAnime(t *testing.T) {
	d, ev := newDeps()
	create(t, d, haikyuu)

	rr := do(DeleteAnime(d), http.MethodDelete, "/api/animes?id=1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ev.events[len(ev.events)-1].subject != analytics.SubjectAnimeDeleted {
		t.Fatalf("expected deleted event, got %+v", ev.events)
	}

	rr = do(DeleteAnime(d), http.MethodDelete, "/api/animes?id=1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestDeleteAnime_MissingID(t *testing.T) {
	d, _ := newDeps()
	rr := do(DeleteAnime(d), http.MethodDelete, "/api/animes", "")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if e := decodeError(t, rr); len(e.Errors) != 1 || !strings.Contains(e.Errors[0], "required") {
		t.Fatalf("expected required error, got %v", e.Errors)
	}
}

type failingStore struct{}

var _ store.AnimeStore = failingStore{}

var errDown = errors.New("database is down")

func (failingStore) Lookup(context.Context, query.Lookup) ([]domain.Anime, error) {
	return nil, errDown
}

func (failingStore) Create(context.Context, domain.Anime) (domain.Anime, error) {
	return domain.Anime{}, errDown
}

func (failingStore) Update(context.Context, int64, []domain.Field) error { return errDown }

func (failingStore) Delete(context.Context, int64) error { return errDown }

func (failingStore) Ping(context.Context) error { return errDown }

func TestStoreFailures(t *testing.T) {
	d := Deps{Store: failingStore{}}

	rr := do(ListAnime(d), http.MethodGet, "/api/animes", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Details != "" {
		t.Fatalf("lookup must not expose details, got %q", e.Details)
	}

	rr = do(CreateAnime(d), http.MethodPost, "/api/animes", haikyuu)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Details != errDown.Error() {
		t.Fatalf("expected details %q, got %q", errDown.Error(), e.Details)
	}

	rr = do(UpdateAnime(d), http.MethodPatch, "/api/animes?id=1", `{"title":"Monster"}`)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("update: expected 500, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Message == "" || e.Details != errDown.Error() {
		t.Fatalf("update: expected message and details %q, got %+v", errDown.Error(), e)
	}

	rr = do(DeleteAnime(d), http.MethodDelete, "/api/animes?id=1", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("delete: expected 500, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.Message == "" || e.Details != "" {
		t.Fatalf("delete: expected generic message without details, got %+v", e)
	}
}

func TestErrorCarriesRequestID(t *testing.T) {
	d, _ := newDeps()
	req := httptest.NewRequest(http.MethodDelete, "/api/animes?id=77", nil)
	req = req.WithContext(httpserver.WithRequestID(req.Context(), "rid-77"))
	rr := httptest.NewRecorder()
	DeleteAnime(d).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if e := decodeError(t, rr); e.RequestID != "rid-77" {
		t.Fatalf("expected request id in body, got %q", e.RequestID)
	}
}
