package applications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kysclient/IMBA/internal/lib/logger/sl"
	"github.com/kysclient/IMBA/internal/models"
	"github.com/kysclient/IMBA/internal/session"
	"github.com/kysclient/IMBA/internal/storage"
)

type fakeSubmitter struct {
	userID *int64
	err    error
	calls  int
}

func (f *fakeSubmitter) Submit(_ context.Context, userID *int64, _, _, _, _, _ string) (models.Application, error) {
	f.calls++
	f.userID = userID
	return models.Application{ID: 1}, f.err
}

const validBody = `{"courseType":"피부미용","name":"김민지","phone":"010-1234-5678","email":"kim@example.com"}`

func send(h http.Handler, body string, id *session.Identity) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/applications", strings.NewReader(body))
	req = req.WithContext(session.WithIdentity(req.Context(), id))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		identity *session.Identity
		err      error
		code     int
		msg      string
		wantUID  *int64
	}{
		{name: "anonymous", body: validBody, code: http.StatusOK, msg: msgReceived},
		{name: "member is linked", body: validBody, identity: &session.Identity{UserID: 7}, code: http.StatusOK, msg: msgReceived, wantUID: ptr(7)},
		{name: "missing field", body: `{"courseType":"피부미용","name":"김민지"}`, code: http.StatusBadRequest},
		{name: "blank fields", body: `{"courseType":" ","name":"  ","phone":" ","email":"\t"}`, code: http.StatusBadRequest},
		{name: "blank name only", body: `{"courseType":"피부미용","name":"   ","phone":"010-1234-5678","email":"kim@example.com"}`, code: http.StatusBadRequest},
		{name: "duplicate", body: validBody, err: storage.ErrDuplicateApplication, code: http.StatusConflict, msg: msgDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &fakeSubmitter{err: tt.err}
			h := Submit(sl.NewDiscardLogger(), validator.New(), sub)

			rec := send(h, tt.body, tt.identity)
			require.Equal(t, tt.code, rec.Code)
			if tt.msg != "" {
				assert.Contains(t, rec.Body.String(), tt.msg)
			}
			if tt.code == http.StatusBadRequest {
				assert.Zero(t, sub.calls)
				return
			}
			assert.Equal(t, tt.wantUID, sub.userID)
		})
	}
}

func ptr(v int64) *int64 { return &v }
