package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/reelpass-backend/pkg/errors"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/pagination"
)

type stubDeadLetters struct {
	params   pagination.Params
	replayed uuid.UUID
	err      error
}

func (s *stubDeadLetters) List(ctx context.Context, params pagination.Params) (*outbox.DeadLetterPage, error) {
	s.params = params
	return &outbox.DeadLetterPage{Items: []outbox.DeadLetter{{EventID: uuid.New(), Reason: enums.OutboxDLQReasonMaxAttempts}}}, nil
}

func (s *stubDeadLetters) Replay(ctx context.Context, eventID uuid.UUID) (*outbox.DeadLetter, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.replayed = eventID
	return &outbox.DeadLetter{EventID: eventID}, nil
}

func TestAdminListDeadLettersPassesPaging(t *testing.T) {
	svc := &stubDeadLetters{}
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc", nil)
	resp := httptest.NewRecorder()
	AdminListDeadLetters(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected params %+v", svc.params)
	}
}

func TestAdminListDeadLettersRejectsLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=0", nil)
	resp := httptest.NewRecorder()
	AdminListDeadLetters(&stubDeadLetters{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminReplayDeadLetter(t *testing.T) {
	svc := &stubDeadLetters{}
	id := uuid.New()
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"eventId": id.String()})
	resp := httptest.NewRecorder()
	AdminReplayDeadLetter(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.replayed != id {
		t.Fatalf("expected replay of %s got %s", id, svc.replayed)
	}
}

func TestAdminReplayDeadLetterNotFound(t *testing.T) {
	svc := &stubDeadLetters{err: pkgerrors.New(pkgerrors.CodeNotFound, "no dead letter for event")}
	req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), map[string]string{"eventId": uuid.NewString()})
	resp := httptest.NewRecorder()
	AdminReplayDeadLetter(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
