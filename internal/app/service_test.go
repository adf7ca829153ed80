package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/berkmanco/pickleballers-sub001/internal/domain"
	"github.com/berkmanco/pickleballers-sub001/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type publisherStub struct {
	err       error
	published []string
}

func (p *publisherStub) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, routingKey)
	return nil
}

func (p *publisherStub) Close() {}

func (p *publisherStub) count(routingKey string) int {
	n := 0
	for _, key := range p.published {
		if key == routingKey {
			n++
		}
	}
	return n
}

func newTestService(repo store.Repository) (*Service, *publisherStub) {
	logger := testLogger()
	publisher := &publisherStub{}
	gate := NewNotificationGate(repo, logger)
	notifier := NewNotifier(repo, publisher, gate, "pickleball.events", logger)
	service := NewService(repo, notifier, logger, MatcherSettings{AmountToleranceCents: 100, SenderDistanceMax: 2})
	return service, publisher
}

func emailPlayer(name string) domain.Player {
	email := name + "@example.com"
	return domain.Player{ID: uuid.New(), DisplayName: name, Email: &email}
}

type sessionRepoStub struct {
	store.Repository

	session    *domain.Session
	sessionErr error
	isMember   bool
	memberErr  error

	members    []domain.Player
	membersErr error

	created      *domain.Session
	updated      *domain.Session
	cancelled    *domain.Session
	cancelErr    error
	cancelReason string

	promotions []domain.Promotion
	fillCalled bool
	fillNewMax *int
	deleted    bool

	signups []domain.Signup
	players map[uuid.UUID]*domain.Player

	statusSums map[domain.ObligationStatus]int64
}

func (s *sessionRepoStub) FindSessionByID(ctx context.Context, sessionID uuid.UUID) (*domain.Session, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	if s.session == nil {
		return nil, store.ErrSessionNotFound
	}
	return s.session, nil
}

func (s *sessionRepoStub) IsActiveGroupMember(ctx context.Context, groupID, playerID uuid.UUID) (bool, error) {
	return s.isMember, s.memberErr
}

func (s *sessionRepoStub) ListActiveGroupMembers(ctx context.Context, groupID uuid.UUID) ([]domain.Player, error) {
	if s.membersErr != nil {
		return nil, s.membersErr
	}
	return s.members, nil
}

func (s *sessionRepoStub) CreateSessionWithHost(ctx context.Context, session *domain.Session) error {
	s.created = session
	return nil
}

func (s *sessionRepoStub) UpdateSession(ctx context.Context, session *domain.Session) error {
	// Copy so later caller-side mutations cannot rewrite what was persisted.
	written := *session
	s.updated = &written
	return nil
}

func (s *sessionRepoStub) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	s.deleted = true
	return nil
}

func (s *sessionRepoStub) CancelSessionAtomic(ctx context.Context, sessionID uuid.UUID, reason string) (*domain.Session, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	s.cancelReason = reason
	return s.cancelled, nil
}

func (s *sessionRepoStub) FillVacanciesAtomic(ctx context.Context, sessionID uuid.UUID, newMaxPlayers *int) ([]domain.Promotion, error) {
	s.fillCalled = true
	s.fillNewMax = newMaxPlayers
	return s.promotions, nil
}

func (s *sessionRepoStub) ListSignupsBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.Signup, error) {
	return s.signups, nil
}

func (s *sessionRepoStub) FindPlayerByID(ctx context.Context, playerID uuid.UUID) (*domain.Player, error) {
	if player, ok := s.players[playerID]; ok {
		return player, nil
	}
	return nil, store.ErrPlayerNotFound
}

func (s *sessionRepoStub) GetNotificationPreference(ctx context.Context, playerID uuid.UUID, eventType domain.EventType, channel domain.NotificationChannel) (*domain.NotificationPreference, error) {
	return nil, nil
}

func (s *sessionRepoStub) SumObligationCentsByStatus(ctx context.Context, sessionID uuid.UUID) (map[domain.ObligationStatus]int64, error) {
	return s.statusSums, nil
}

func validCreateRequest(groupID uuid.UUID) domain.CreateSessionRequest {
	return domain.CreateSessionRequest{
		GroupID:         groupID,
		Title:           "Tuesday night drills",
		ScheduledAt:     time.Now().Add(72 * time.Hour),
		DurationMinutes: 120,
		Courts:          2,
		OwnerRateCents:  2000,
		SplitRateCents:  2400,
		MinPlayers:      4,
		MaxPlayers:      10,
	}
}

func TestValidateSessionParams(t *testing.T) {
	scheduled := time.Now().Add(24 * time.Hour)
	tests := []struct {
		name     string
		courts   int
		owner    int64
		split    int64
		min      int
		max      int
		duration int
		at       time.Time
		wantErr  error
	}{
		{name: "valid params", courts: 2, owner: 2000, split: 2400, min: 4, max: 10, duration: 120, at: scheduled},
		{name: "zero courts", courts: 0, owner: 2000, split: 2400, min: 4, max: 10, duration: 120, at: scheduled, wantErr: ErrInvalidCourtCount},
		{name: "negative owner rate", courts: 1, owner: -1, split: 2400, min: 4, max: 10, duration: 120, at: scheduled, wantErr: ErrInvalidRates},
		{name: "negative split rate", courts: 1, owner: 2000, split: -1, min: 4, max: 10, duration: 120, at: scheduled, wantErr: ErrInvalidRates},
		{name: "zero min players", courts: 1, owner: 2000, split: 2400, min: 0, max: 10, duration: 120, at: scheduled, wantErr: ErrInvalidPlayerBounds},
		{name: "max below min", courts: 1, owner: 2000, split: 2400, min: 6, max: 5, duration: 120, at: scheduled, wantErr: ErrInvalidPlayerBounds},
		{name: "zero duration", courts: 1, owner: 2000, split: 2400, min: 4, max: 10, duration: 0, at: scheduled, wantErr: ErrInvalidSchedule},
		{name: "zero scheduled time", courts: 1, owner: 2000, split: 2400, min: 4, max: 10, duration: 120, wantErr: ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSessionParams(tt.courts, tt.owner, tt.split, tt.min, tt.max, tt.duration, tt.at)
			if err != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestProposeSession_RejectsNonMember(t *testing.T) {
	repo := &sessionRepoStub{isMember: false}
	svc, publisher := newTestService(repo)

	_, err := svc.ProposeSession(context.Background(), uuid.New(), validCreateRequest(uuid.New()))
	if err != ErrNotGroupMember {
		t.Fatalf("expected ErrNotGroupMember, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("did not expect a session insert for a non-member")
	}
	if len(publisher.published) != 0 {
		t.Fatalf("did not expect notifications, got %v", publisher.published)
	}
}

func TestProposeSession_CreatesSessionAndInvitesGroup(t *testing.T) {
	member := emailPlayer("sam")
	repo := &sessionRepoStub{isMember: true, members: []domain.Player{member}}
	svc, publisher := newTestService(repo)

	ownerID := uuid.New()
	req := validCreateRequest(uuid.New())
	session, err := svc.ProposeSession(context.Background(), ownerID, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.Status != domain.SessionProposed {
		t.Fatalf("expected proposed status, got %q", session.Status)
	}
	if session.OwnerID != ownerID {
		t.Fatalf("expected owner %s, got %s", ownerID, session.OwnerID)
	}
	if session.ID == uuid.Nil {
		t.Fatal("expected a generated session id")
	}
	if repo.created == nil {
		t.Fatal("expected the session to be persisted")
	}
	if got := publisher.count("notify.email.session_created"); got != 1 {
		t.Fatalf("expected one session_created email event, got %d (%v)", got, publisher.published)
	}
}

func TestProposeSession_MemberListFailureStillReturnsSession(t *testing.T) {
	repo := &sessionRepoStub{isMember: true, membersErr: errors.New("db unavailable")}
	svc, publisher := newTestService(repo)

	session, err := svc.ProposeSession(context.Background(), uuid.New(), validCreateRequest(uuid.New()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session == nil {
		t.Fatal("expected the created session despite notification failure")
	}
	if len(publisher.published) != 0 {
		t.Fatalf("did not expect notifications, got %v", publisher.published)
	}
}

func TestProposeSession_RejectsInvalidParams(t *testing.T) {
	repo := &sessionRepoStub{isMember: true}
	svc, _ := newTestService(repo)

	req := validCreateRequest(uuid.New())
	req.Courts = 0
	_, err := svc.ProposeSession(context.Background(), uuid.New(), req)
	if err != ErrInvalidCourtCount {
		t.Fatalf("expected ErrInvalidCourtCount, got %v", err)
	}
	if repo.created != nil {
		t.Fatal("did not expect a session insert for invalid params")
	}
}

func TestUpdateSession_OwnerOnly(t *testing.T) {
	ownerID := uuid.New()
	repo := &sessionRepoStub{session: &domain.Session{ID: uuid.New(), OwnerID: ownerID, Status: domain.SessionProposed}}
	svc, _ := newTestService(repo)

	title := "new title"
	_, _, err := svc.UpdateSession(context.Background(), uuid.New(), repo.session.ID, domain.UpdateSessionRequest{Title: &title})
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateSession_RejectsTerminalStates(t *testing.T) {
	for _, status := range []domain.SessionStatus{domain.SessionCompleted, domain.SessionCancelled} {
		t.Run(string(status), func(t *testing.T) {
			ownerID := uuid.New()
			repo := &sessionRepoStub{session: &domain.Session{ID: uuid.New(), OwnerID: ownerID, Status: status}}
			svc, _ := newTestService(repo)

			title := "new title"
			_, _, err := svc.UpdateSession(context.Background(), ownerID, repo.session.ID, domain.UpdateSessionRequest{Title: &title})

			var transitionErr *store.InvalidTransitionError
			if !errors.As(err, &transitionErr) {
				t.Fatalf("expected InvalidTransitionError, got %v", err)
			}
			if transitionErr.Current != string(status) {
				t.Fatalf("expected current state %q, got %q", status, transitionErr.Current)
			}
		})
	}
}

func lockedTestSession(ownerID uuid.UUID) *domain.Session {
	share := int64(960)
	return &domain.Session{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Title:           "locked session",
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		DurationMinutes: 120,
		Courts:          2,
		OwnerRateCents:  2000,
		SplitRateCents:  2400,
		MinPlayers:      4,
		MaxPlayers:      6,
		Status:          domain.SessionConfirmed,
		RosterLocked:    true,
		GuestShareCents: &share,
	}
}

func TestUpdateSession_LockedRejectsFrozenFields(t *testing.T) {
	ownerID := uuid.New()
	courts := 3
	rate := int64(2600)
	minPlayers := 2
	scheduled := time.Now().Add(96 * time.Hour)

	tests := []struct {
		name string
		req  domain.UpdateSessionRequest
	}{
		{name: "courts", req: domain.UpdateSessionRequest{Courts: &courts}},
		{name: "split rate", req: domain.UpdateSessionRequest{SplitRateCents: &rate}},
		{name: "min players", req: domain.UpdateSessionRequest{MinPlayers: &minPlayers}},
		{name: "schedule", req: domain.UpdateSessionRequest{ScheduledAt: &scheduled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &sessionRepoStub{session: lockedTestSession(ownerID)}
			svc, _ := newTestService(repo)

			_, _, err := svc.UpdateSession(context.Background(), ownerID, repo.session.ID, tt.req)
			if err != ErrLockedFieldEdit {
				t.Fatalf("expected ErrLockedFieldEdit, got %v", err)
			}
			if repo.updated != nil {
				t.Fatal("did not expect a session write")
			}
		})
	}
}

func TestUpdateSession_LockedRejectsLoweredMax(t *testing.T) {
	ownerID := uuid.New()
	repo := &sessionRepoStub{session: lockedTestSession(ownerID)}
	svc, _ := newTestService(repo)

	lowered := repo.session.MaxPlayers - 1
	_, _, err := svc.UpdateSession(context.Background(), ownerID, repo.session.ID, domain.UpdateSessionRequest{MaxPlayers: &lowered})
	if err != ErrLockedFieldEdit {
		t.Fatalf("expected ErrLockedFieldEdit, got %v", err)
	}
}

func TestUpdateSession_LockedRaisedMaxFillsVacancies(t *testing.T) {
	ownerID := uuid.New()
	promoted := emailPlayer("waitlisted")
	session := lockedTestSession(ownerID)
	repo := &sessionRepoStub{
		session: session,
		players: map[uuid.UUID]*domain.Player{promoted.ID: &promoted},
		promotions: []domain.Promotion{{
			Signup: domain.Signup{SessionID: session.ID, PlayerID: promoted.ID, Status: domain.SignupCommitted},
		}},
	}
	svc, publisher := newTestService(repo)

	before := session.MaxPlayers
	raised := session.MaxPlayers + 2
	updated, promotions, err := svc.UpdateSession(context.Background(), ownerID, session.ID, domain.UpdateSessionRequest{MaxPlayers: &raised})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.MaxPlayers != raised {
		t.Fatalf("expected max players %d, got %d", raised, updated.MaxPlayers)
	}
	if !repo.fillCalled {
		t.Fatal("expected vacancies to be filled from the waitlist")
	}
	// The raise must land inside the fill transaction, not the plain update:
	// raised capacity persisted without its fill would strand the waitlist.
	if repo.fillNewMax == nil || *repo.fillNewMax != raised {
		t.Fatalf("expected the fill to carry the raised max %d, got %v", raised, repo.fillNewMax)
	}
	if repo.updated != nil && repo.updated.MaxPlayers != before {
		t.Fatalf("expected the plain update to keep max players %d, got %d", before, repo.updated.MaxPlayers)
	}
	if len(promotions) != 1 {
		t.Fatalf("expected one promotion, got %d", len(promotions))
	}
	if got := publisher.count("notify.email.waitlist_promoted"); got != 1 {
		t.Fatalf("expected one waitlist_promoted email event, got %d (%v)", got, publisher.published)
	}
}

func TestUpdateSession_LockedSameMaxIsNoopForWaitlist(t *testing.T) {
	ownerID := uuid.New()
	session := lockedTestSession(ownerID)
	repo := &sessionRepoStub{session: session}
	svc, _ := newTestService(repo)

	same := session.MaxPlayers
	_, promotions, err := svc.UpdateSession(context.Background(), ownerID, session.ID, domain.UpdateSessionRequest{MaxPlayers: &same})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.fillCalled {
		t.Fatal("did not expect a waitlist fill for an unchanged max")
	}
	if len(promotions) != 0 {
		t.Fatalf("expected no promotions, got %d", len(promotions))
	}
}

func TestUpdateSession_UnlockedAppliesAndRevalidates(t *testing.T) {
	ownerID := uuid.New()
	session := &domain.Session{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		ScheduledAt:     time.Now().Add(48 * time.Hour),
		DurationMinutes: 90,
		Courts:          1,
		OwnerRateCents:  2000,
		SplitRateCents:  2400,
		MinPlayers:      4,
		MaxPlayers:      8,
		Status:          domain.SessionProposed,
	}
	repo := &sessionRepoStub{session: session}
	svc, _ := newTestService(repo)

	badCourts := 0
	_, _, err := svc.UpdateSession(context.Background(), ownerID, session.ID, domain.UpdateSessionRequest{Courts: &badCourts})
	if err != ErrInvalidCourtCount {
		t.Fatalf("expected ErrInvalidCourtCount, got %v", err)
	}
	if repo.updated != nil {
		t.Fatal("did not expect an invalid edit to be persisted")
	}

	goodCourts := 3
	title := "more courts"
	updated, _, err := svc.UpdateSession(context.Background(), ownerID, session.ID, domain.UpdateSessionRequest{Courts: &goodCourts, Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Courts != goodCourts || updated.Title != title {
		t.Fatalf("expected edits applied, got courts=%d title=%q", updated.Courts, updated.Title)
	}
	if repo.updated == nil {
		t.Fatal("expected the edit to be persisted")
	}
}

func TestDeleteSession_OwnerOnly(t *testing.T) {
	ownerID := uuid.New()
	repo := &sessionRepoStub{session: &domain.Session{ID: uuid.New(), OwnerID: ownerID, Status: domain.SessionProposed}}
	svc, _ := newTestService(repo)

	if err := svc.DeleteSession(context.Background(), uuid.New(), repo.session.ID); err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repo.deleted {
		t.Fatal("did not expect a deletion")
	}

	if err := svc.DeleteSession(context.Background(), ownerID, repo.session.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !repo.deleted {
		t.Fatal("expected the session deleted")
	}
}

func TestCancelSession_OwnerOnly(t *testing.T) {
	ownerID := uuid.New()
	repo := &sessionRepoStub{session: &domain.Session{ID: uuid.New(), OwnerID: ownerID, Status: domain.SessionProposed}}
	svc, _ := newTestService(repo)

	_, err := svc.CancelSession(context.Background(), uuid.New(), repo.session.ID, "rain")
	if err != ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCancelSession_NotifiesEverySignupIncludingWithdrawn(t *testing.T) {
	ownerID := uuid.New()
	committed := emailPlayer("committed")
	tentative := emailPlayer("tentative")
	withdrawn := emailPlayer("withdrawn")

	session := &domain.Session{ID: uuid.New(), OwnerID: ownerID, Status: domain.SessionProposed}
	reason := "court flooded"
	cancelled := *session
	cancelled.Status = domain.SessionCancelled
	cancelled.CancelReason = &reason

	repo := &sessionRepoStub{
		session:   session,
		cancelled: &cancelled,
		signups: []domain.Signup{
			{SessionID: session.ID, PlayerID: committed.ID, Status: domain.SignupCommitted},
			{SessionID: session.ID, PlayerID: tentative.ID, Status: domain.SignupTentative},
			{SessionID: session.ID, PlayerID: withdrawn.ID, Status: domain.SignupWithdrawn},
		},
		players: map[uuid.UUID]*domain.Player{
			committed.ID: &committed,
			tentative.ID: &tentative,
			withdrawn.ID: &withdrawn,
		},
	}
	svc, publisher := newTestService(repo)

	got, err := svc.CancelSession(context.Background(), ownerID, session.ID, reason)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.SessionCancelled {
		t.Fatalf("expected cancelled status, got %q", got.Status)
	}
	if repo.cancelReason != reason {
		t.Fatalf("expected reason %q, got %q", reason, repo.cancelReason)
	}
	// Withdrawn players hear about the cancellation too; they planned around
	// the session before dropping out.
	if got := publisher.count("notify.email.session_cancelled"); got != 3 {
		t.Fatalf("expected three session_cancelled email events, got %d (%v)", got, publisher.published)
	}
}

func TestGetCostSummary_UnlockedProjectsLiveShare(t *testing.T) {
	hostID := uuid.New()
	session := &domain.Session{
		ID:             uuid.New(),
		OwnerID:        hostID,
		Courts:         2,
		OwnerRateCents: 2000,
		SplitRateCents: 2400,
	}
	repo := &sessionRepoStub{
		session: session,
		signups: []domain.Signup{
			{PlayerID: hostID, Role: domain.RoleHost, Status: domain.SignupCommitted},
			{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupCommitted},
			{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupCommitted},
			{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupCommitted},
			{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupTentative},
			{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupWithdrawn},
		},
	}
	svc, _ := newTestService(repo)

	summary, err := svc.GetCostSummary(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Locked {
		t.Fatal("expected an unlocked summary")
	}
	if summary.CommittedGuests != 3 {
		t.Fatalf("expected 3 committed guests, got %d", summary.CommittedGuests)
	}
	if summary.OwnerCostCents != 4000 {
		t.Fatalf("expected owner cost 4000, got %d", summary.OwnerCostCents)
	}
	if summary.SplitCostCents != 4800 {
		t.Fatalf("expected split cost 4800, got %d", summary.SplitCostCents)
	}
	if summary.GuestShareCents != 1600 {
		t.Fatalf("expected share 1600, got %d", summary.GuestShareCents)
	}
	if summary.HostRemainderCents != 0 {
		t.Fatalf("expected zero remainder, got %d", summary.HostRemainderCents)
	}
	if summary.PendingCents != 0 || summary.SatisfiedCents != 0 {
		t.Fatal("expected no ledger rollups before lock")
	}
}

func TestGetCostSummary_LockedReportsFrozenShare(t *testing.T) {
	// Locked at five guests for a 960 share; one guest withdrew afterwards
	// without a replacement. The summary must keep reporting the frozen 960,
	// not the live recomputation for four guests.
	frozen := int64(960)
	session := &domain.Session{
		ID:              uuid.New(),
		OwnerID:         uuid.New(),
		Courts:          2,
		OwnerRateCents:  2000,
		SplitRateCents:  2400,
		RosterLocked:    true,
		Status:          domain.SessionConfirmed,
		GuestShareCents: &frozen,
	}
	signups := []domain.Signup{
		{PlayerID: session.OwnerID, Role: domain.RoleHost, Status: domain.SignupCommitted},
	}
	for i := 0; i < 4; i++ {
		signups = append(signups, domain.Signup{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupCommitted})
	}
	signups = append(signups, domain.Signup{PlayerID: uuid.New(), Role: domain.RoleGuest, Status: domain.SignupWithdrawn})

	repo := &sessionRepoStub{
		session: session,
		signups: signups,
		statusSums: map[domain.ObligationStatus]int64{
			domain.ObligationPending:   2880,
			domain.ObligationSatisfied: 960,
			domain.ObligationReversed:  960,
		},
	}
	svc, _ := newTestService(repo)

	summary, err := svc.GetCostSummary(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Locked {
		t.Fatal("expected a locked summary")
	}
	if summary.GuestShareCents != 960 {
		t.Fatalf("expected frozen share 960, got %d", summary.GuestShareCents)
	}
	if summary.HostRemainderCents != 4800-960*4 {
		t.Fatalf("expected remainder %d, got %d", 4800-960*4, summary.HostRemainderCents)
	}
	if summary.PendingCents != 2880 {
		t.Fatalf("expected pending 2880, got %d", summary.PendingCents)
	}
	if summary.SatisfiedCents != 960 {
		t.Fatalf("expected satisfied 960, got %d", summary.SatisfiedCents)
	}
	if summary.ReversedCents != 960 {
		t.Fatalf("expected reversed 960, got %d", summary.ReversedCents)
	}
	if summary.WaivedCents != 0 {
		t.Fatalf("expected waived 0, got %d", summary.WaivedCents)
	}
}

func TestListGroupSessions_RequiresMembership(t *testing.T) {
	repo := &sessionRepoStub{isMember: false}
	svc, _ := newTestService(repo)

	_, err := svc.ListGroupSessions(context.Background(), uuid.New(), uuid.New(), 50, 0)
	if err != ErrNotGroupMember {
		t.Fatalf("expected ErrNotGroupMember, got %v", err)
	}
}
