package posts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kysclient/IMBA/internal/community"
	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/lib/pagination"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

type fakeForum struct {
	filter     storage.PostFilter
	viewer     *session.Identity
	total      int64
	authorized int
	updated    int
}

func (f *fakeForum) List(_ context.Context, flt storage.PostFilter, _ pagination.Page) ([]models.Post, int64, error) {
	f.filter = flt
	return []models.Post{{ID: 1, Title: "공지"}}, f.total, nil
}

func (f *fakeForum) Get(_ context.Context, id int64, viewer *session.Identity) (models.PostDetail, error) {
	f.viewer = viewer
	if id != 1 {
		return models.PostDetail{}, storage.ErrNotFound
	}
	return models.PostDetail{Post: models.Post{ID: 1}}, nil
}

func (f *fakeForum) Create(_ context.Context, author session.Identity, c models.PostCategory, title, content string) (models.Post, error) {
	if c == models.CategoryNotice && !author.IsAdmin {
		return models.Post{}, community.ErrNoticeAdminOnly
	}
	return models.Post{ID: 2, UserID: author.UserID, Category: c, Title: title, Content: content}, nil
}

func (f *fakeForum) Authorize(_ context.Context, actor session.Identity, id int64) error {
	f.authorized++
	if id == 404 {
		return storage.ErrNotFound
	}
	if actor.UserID != 1 {
		return community.ErrForbidden
	}
	return nil
}

func (f *fakeForum) Update(_ context.Context, actor session.Identity, id int64, _ models.PostCategory, _, _ string) (models.Post, error) {
	f.updated++
	if actor.UserID != 1 {
		return models.Post{}, community.ErrForbidden
	}
	return models.Post{ID: id}, nil
}

func (f *fakeForum) Delete(context.Context, session.Identity, int64) error { return storage.ErrNotFound }

func (f *fakeForum) ToggleLike(context.Context, session.Identity, int64) (bool, int64, error) {
	return true, 4, nil
}

func router(forum Forum, admin bool) http.Handler {
	log := sl.NewDiscardLogger()
	v := validator.New()

	r := chi.NewRouter()
	r.Get("/posts", List(log, forum, admin))
	r.Post("/posts", Create(log, v, forum))
	r.Get("/posts/{id}", Get(log, forum))
	r.Put("/posts/{id}", Update(log, v, forum))
	r.Delete("/posts/{id}", Delete(log, forum))
	r.Post("/posts/{id}/like", Like(log, forum))

	return r
}

func do(h http.Handler, method, target, body string, id *session.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req = req.WithContext(session.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestList(t *testing.T) {
	f := &fakeForum{total: 41}

	rec := do(router(f, false), http.MethodGet, "/posts?"+url.Values{"category": {"Q&A"}, "search": {" 염색 "}, "page": {"2"}}.Encode(), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CategoryQnA, f.filter.Category)
	assert.Equal(t, "염색", f.filter.Search)
	assert.False(t, f.filter.Admin)

	var out ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, pagination.Meta{Page: 2, Limit: pagination.PageSize, Total: 41, TotalPages: 3}, out.Pagination)

	rec = do(router(f, true), http.MethodGet, "/posts?category="+url.QueryEscape("전체"), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.filter.Admin)
	assert.Empty(t, f.filter.Category)

	rec = do(router(f, false), http.MethodGet, "/posts?category="+url.QueryEscape("잡담"), "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreate(t *testing.T) {
	h := router(&fakeForum{}, false)
	member := &session.Identity{UserID: 3}

	rec := do(h, http.MethodPost, "/posts", `{"category":"수강후기","title":"후기","content":"좋아요"}`, member)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user_id":3`)

	rec = do(h, http.MethodPost, "/posts", `{"category":"공지사항","title":"공지","content":"내용"}`, member)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPost, "/posts", `{"category":"기타","title":"t","content":"c"}`, member)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/posts", `{"category":"Q&A","title":"","content":"c"}`, member)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodPost, "/posts", `{"category":"Q&A","title":"t","content":"c"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUpdateDeleteLike(t *testing.T) {
	f := &fakeForum{}
	h := router(f, false)

	rec := do(h, http.MethodGet, "/posts/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.viewer)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/posts/2", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/posts/abc", "", nil).Code)

	body := `{"category":"Q&A","title":"t","content":"c"}`
	assert.Equal(t, http.StatusOK, do(h, http.MethodPut, "/posts/5", body, &session.Identity{UserID: 1}).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPut, "/posts/5", body, &session.Identity{UserID: 2}).Code)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, "/posts/5", "", &session.Identity{UserID: 1}).Code)

	rec = do(h, http.MethodPost, "/posts/5/like", "", &session.Identity{UserID: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"liked":true,"like_count":4}`, rec.Body.String())
}

func TestUpdate_OwnershipBeforeBody(t *testing.T) {
	f := &fakeForum{}
	h := router(f, false)
	stranger := &session.Identity{UserID: 2}

	rec := do(h, http.MethodPut, "/posts/5", `{"title":""}`, stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPut, "/posts/5", `not json`, stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(h, http.MethodPut, "/posts/404", `{}`, &session.Identity{UserID: 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(h, http.MethodPut, "/posts/5", `{"title":""}`, &session.Identity{UserID: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, 4, f.authorized)
	assert.Zero(t, f.updated)
}
