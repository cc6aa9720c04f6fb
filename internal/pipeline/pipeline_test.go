package pipeline

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"reliefwatch/internal/classify"
	"reliefwatch/internal/correlate"
	"reliefwatch/internal/domain"
	queuememory "reliefwatch/internal/queue/memory"
	storememory "reliefwatch/internal/store/memory"
)

type stubClassifier struct {
	result *classify.Classification
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (*classify.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type fixture struct {
	service       *Service
	classifier    *stubClassifier
	endpoints     *storememory.EndpointRepository
	webhookEvents *storememory.WebhookEventRepository
	events        *storememory.EventRepository
	crises        *storememory.CrisisRepository
}

func newFixture(t *testing.T, c *stubClassifier) *fixture {
	t.Helper()
	endpoints := storememory.NewEndpointRepository()
	webhookEvents := storememory.NewWebhookEventRepository()
	events := storememory.NewEventRepository()
	crises := storememory.NewCrisisRepository()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	engine := correlate.NewEngine(c, events, crises, storememory.NewStateStore(), 30*24*time.Hour, time.Minute, logger)
	service := NewService(queuememory.NewQueue(16), endpoints, webhookEvents, events, engine, 0, 50, logger)

	return &fixture{
		service:       service,
		classifier:    c,
		endpoints:     endpoints,
		webhookEvents: webhookEvents,
		events:        events,
		crises:        crises,
	}
}

func (f *fixture) addEndpoint(t *testing.T, filter domain.FilterPolicy) *domain.IngestionEndpoint {
	t.Helper()
	now := time.Now().UTC()
	ep := &domain.IngestionEndpoint{
		ID:         uuid.New().String(),
		Name:       "field reports",
		SourceKind: domain.SourceKindGeneric,
		Path:       uuid.New().String(),
		Secret:     "secret",
		Active:     true,
		Filter:     filter,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := f.endpoints.Create(context.Background(), ep); err != nil {
		t.Fatalf("failed to create endpoint: %v", err)
	}
	return ep
}

func (f *fixture) addWebhookEvent(t *testing.T, endpointID string, payload string) *domain.WebhookEvent {
	t.Helper()
	we := domain.NewWebhookEvent(endpointID, []byte(payload), nil)
	we.ID = uuid.New().String()
	if err := f.webhookEvents.Create(context.Background(), we); err != nil {
		t.Fatalf("failed to create webhook event: %v", err)
	}
	return we
}

func floodClassification() *classify.Classification {
	return &classify.Classification{
		Relevant:   true,
		Type:       domain.CrisisTypeFlood,
		Severity:   domain.SeverityHigh,
		Confidence: 0.9,
		Summary:    "Severe flooding in Jonglei.",
		Locations:  []string{"Jonglei"},
	}
}

func TestFloodScenario(t *testing.T) {
	// Endpoint with keywords=["flood"], no region policy; a matching
	// payload must become one SUCCESS webhook event, one event, one
	// classifier call.
	f := newFixture(t, &stubClassifier{result: floodClassification()})
	ep := f.addEndpoint(t, domain.FilterPolicy{Keywords: []string{"flood"}})
	we := f.addWebhookEvent(t, ep.ID, `{"title":"Flooding in Jonglei","description":"Heavy rains..."}`)

	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.webhookEvents.GetByID(context.Background(), we.ID)
	if stored.Status != domain.WebhookStatusSuccess {
		t.Fatalf("status = %v (%s), want SUCCESS", stored.Status, stored.Error)
	}
	if stored.EventID == "" {
		t.Fatal("expected a linked event id")
	}

	event, err := f.events.GetByID(context.Background(), stored.EventID)
	if err != nil {
		t.Fatalf("event not stored: %v", err)
	}
	if event.Title != "Flooding in Jonglei" {
		t.Errorf("event title = %q", event.Title)
	}
	if f.classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", f.classifier.calls)
	}
}

func TestNotRelevantLeavesEventUnlinked(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: &classify.Classification{Relevant: false}})
	ep := f.addEndpoint(t, domain.FilterPolicy{})
	we := f.addWebhookEvent(t, ep.ID, `{"title":"Quarterly earnings report"}`)

	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.webhookEvents.GetByID(context.Background(), we.ID)
	if stored.Status != domain.WebhookStatusSuccess {
		t.Fatalf("status = %v, want SUCCESS", stored.Status)
	}
	if f.classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", f.classifier.calls)
	}

	event, _ := f.events.GetByID(context.Background(), stored.EventID)
	if event.CrisisID != "" {
		t.Errorf("event crisisID = %q, want empty", event.CrisisID)
	}
	crises, _ := f.crises.List(context.Background(), domain.CrisisFilter{})
	if len(crises) != 0 {
		t.Errorf("crises created = %d, want 0", len(crises))
	}
}

func TestKeywordFilterSkips(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: floodClassification()})
	ep := f.addEndpoint(t, domain.FilterPolicy{Keywords: []string{"flood"}})
	we := f.addWebhookEvent(t, ep.ID, `{"title":"Routine supply convoy update"}`)

	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.webhookEvents.GetByID(context.Background(), we.ID)
	if stored.Status != domain.WebhookStatusSkipped {
		t.Fatalf("status = %v, want SKIPPED", stored.Status)
	}
	if stored.Error != "no matching keywords" {
		t.Errorf("reason = %q", stored.Error)
	}
	if f.classifier.calls != 0 {
		t.Errorf("classifier must not be invoked for filtered signals")
	}
}

func TestRegionFilterSkips(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: floodClassification()})
	ep := f.addEndpoint(t, domain.FilterPolicy{Regions: []string{"South Sudan"}})

	// Location present but not matching: skipped.
	blocked := f.addWebhookEvent(t, ep.ID, `{"title":"Flooding","location":"Dhaka, Bangladesh"}`)
	if err := f.service.ProcessWebhookEvent(context.Background(), blocked.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ := f.webhookEvents.GetByID(context.Background(), blocked.ID)
	if stored.Status != domain.WebhookStatusSkipped || stored.Error != "no matching regions" {
		t.Errorf("status/reason = %v/%q", stored.Status, stored.Error)
	}

	// No location extracted: the region rule does not block.
	unlocated := f.addWebhookEvent(t, ep.ID, `{"title":"Flooding reported"}`)
	if err := f.service.ProcessWebhookEvent(context.Background(), unlocated.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stored, _ = f.webhookEvents.GetByID(context.Background(), unlocated.ID)
	if stored.Status != domain.WebhookStatusSuccess {
		t.Errorf("status = %v, want SUCCESS for location-less signal", stored.Status)
	}
}

func TestUnparseablePayloadSkips(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: floodClassification()})
	ep := f.addEndpoint(t, domain.FilterPolicy{})
	we := f.addWebhookEvent(t, ep.ID, `{"count": 42}`)

	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := f.webhookEvents.GetByID(context.Background(), we.ID)
	if stored.Status != domain.WebhookStatusSkipped {
		t.Fatalf("status = %v, want SKIPPED", stored.Status)
	}
	if stored.Error != "unparseable payload" {
		t.Errorf("reason = %q", stored.Error)
	}
}

func TestClassifierFailureMarksFailed(t *testing.T) {
	f := newFixture(t, &stubClassifier{err: context.DeadlineExceeded})
	ep := f.addEndpoint(t, domain.FilterPolicy{})
	we := f.addWebhookEvent(t, ep.ID, `{"title":"Flooding in Jonglei"}`)

	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("pipeline errors must be absorbed, got %v", err)
	}

	stored, _ := f.webhookEvents.GetByID(context.Background(), we.ID)
	if stored.Status != domain.WebhookStatusFailed {
		t.Fatalf("status = %v, want FAILED", stored.Status)
	}
	if stored.Error == "" {
		t.Error("expected error text to be recorded")
	}

	endpoint, _ := f.endpoints.GetByID(context.Background(), ep.ID)
	if endpoint.TotalFailed != 1 {
		t.Errorf("total failed = %d, want 1", endpoint.TotalFailed)
	}

	// The event itself reached a terminal analysis decision.
	analyzed := true
	events, _ := f.events.List(context.Background(), domain.EventFilter{Analyzed: &analyzed})
	if len(events) != 1 {
		t.Errorf("analyzed events = %d, want 1", len(events))
	}
}

func TestTerminalWebhookEventNotReprocessed(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: floodClassification()})
	ep := f.addEndpoint(t, domain.FilterPolicy{})
	we := f.addWebhookEvent(t, ep.ID, `{"title":"Flooding in Jonglei"}`)

	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if err := f.service.ProcessWebhookEvent(context.Background(), we.ID); err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if f.classifier.calls != 1 {
		t.Errorf("classifier calls = %d, want 1 (terminal events are never reprocessed)", f.classifier.calls)
	}
	events, _ := f.events.List(context.Background(), domain.EventFilter{})
	if len(events) != 1 {
		t.Errorf("events = %d, want 1", len(events))
	}
}

func TestSweepBacklog(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: floodClassification()})
	ep := f.addEndpoint(t, domain.FilterPolicy{})
	for i := 0; i < 3; i++ {
		f.addWebhookEvent(t, ep.ID, `{"title":"Flooding in Jonglei"}`)
	}

	stats, err := f.service.SweepBacklog(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Scanned != 3 || stats.Succeeded != 3 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	pending, _ := f.webhookEvents.ListPending(context.Background(), 10)
	if len(pending) != 0 {
		t.Errorf("pending after sweep = %d, want 0", len(pending))
	}
}

func TestClassifyUnanalyzed(t *testing.T) {
	f := newFixture(t, &stubClassifier{result: floodClassification()})

	for i := 0; i < 2; i++ {
		ev := &domain.Event{
			ID:          uuid.New().String(),
			Title:       "Flooding in Jonglei",
			SourceKind:  domain.SourceKindGeneric,
			Location:    "Jonglei",
			PublishedAt: time.Now().UTC(),
			FetchedAt:   time.Now().UTC(),
		}
		if err := f.events.Create(context.Background(), ev); err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}

	stats, err := f.service.ClassifyUnanalyzed(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Scanned != 2 || stats.Succeeded != 2 {
		t.Errorf("stats = %+v", stats)
	}

	// Both events describe the same situation: one crisis, two links.
	crises, _ := f.crises.List(context.Background(), domain.CrisisFilter{})
	if len(crises) != 1 {
		t.Fatalf("crises = %d, want 1", len(crises))
	}
	linked, _ := f.events.List(context.Background(), domain.EventFilter{CrisisID: crises[0].ID})
	if len(linked) != 2 {
		t.Errorf("linked events = %d, want 2", len(linked))
	}

	remaining, _ := f.events.ListUnanalyzed(context.Background(), 10)
	if len(remaining) != 0 {
		t.Errorf("unanalyzed after batch = %d, want 0", len(remaining))
	}
}
