package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
)

type stubAPI struct {
	fetchHighRisk   func(ctx context.Context) ([]InvoiceItem, error)
	fetchByCategory func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error)
	fetchSummary    func(ctx context.Context) (map[fraud.Category]int, error)
	fetchInvoice    func(ctx context.Context, invoiceId int) (*InvoiceDetail, error)
	flagInvoice     func(ctx context.Context, invoiceId int) error
}

func (s *stubAPI) FetchHighRisk(ctx context.Context) ([]InvoiceItem, error) {
	if s.fetchHighRisk == nil {
		return nil, nil
	}
	return s.fetchHighRisk(ctx)
}

func (s *stubAPI) FetchByCategory(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
	if s.fetchByCategory == nil {
		return nil, nil
	}
	return s.fetchByCategory(ctx, category)
}

func (s *stubAPI) FetchSummary(ctx context.Context) (map[fraud.Category]int, error) {
	if s.fetchSummary == nil {
		return map[fraud.Category]int{}, nil
	}
	return s.fetchSummary(ctx)
}

func (s *stubAPI) FetchInvoice(ctx context.Context, invoiceId int) (*InvoiceDetail, error) {
	if s.fetchInvoice == nil {
		return nil, errors.New("not found")
	}
	return s.fetchInvoice(ctx, invoiceId)
}

func (s *stubAPI) FlagInvoice(ctx context.Context, invoiceId int) error {
	if s.flagInvoice == nil {
		return nil
	}
	return s.flagInvoice(ctx, invoiceId)
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, message)
}

func (n *recordingNotifier) errorCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.errors)
}

func items(ids ...int) []InvoiceItem {
	out := make([]InvoiceItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, InvoiceItem{ID: id, RiskScore: 50})
	}
	return out
}

func TestLoadAll_PopulatesListAndCounts(t *testing.T) {
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1, 2, 3), nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: 3, fraud.CategoryDuplicate: 1}, nil
		},
	}
	c := NewController(api, nil, nil)

	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	displayed, counts, active := c.Snapshot()
	if len(displayed) != 3 {
		t.Fatalf("expected 3 displayed rows, got %d", len(displayed))
	}
	if counts[fraud.CategoryAll] != 3 {
		t.Fatalf("expected count(all)=3, got %d", counts[fraud.CategoryAll])
	}
	if active != fraud.CategoryAll {
		t.Fatalf("expected active filter all, got %q", active)
	}
}

func TestApplyFilter_CountsUntouched(t *testing.T) {
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1, 2, 3), nil
		},
		fetchByCategory: func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
			return items(1), nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: 3, fraud.CategoryDuplicate: 1}, nil
		},
	}
	c := NewController(api, nil, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := c.ApplyFilter(context.Background(), fraud.CategoryDuplicate); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	displayed, counts, active := c.Snapshot()
	if len(displayed) != 1 {
		t.Fatalf("expected 1 displayed row, got %d", len(displayed))
	}
	if active != fraud.CategoryDuplicate {
		t.Fatalf("expected active filter duplicate, got %q", active)
	}
	// Counts always describe the full population, not the filtered view.
	if counts[fraud.CategoryAll] != 3 {
		t.Fatalf("counts must not shrink to the subset, got all=%d", counts[fraud.CategoryAll])
	}
}

func TestApplyFilter_StaleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &stubAPI{
		fetchByCategory: func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
			if category == fraud.CategoryDuplicate {
				close(started)
				<-release
				return items(10, 11), nil
			}
			return items(20), nil
		},
	}
	c := NewController(api, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.ApplyFilter(context.Background(), fraud.CategoryDuplicate)
	}()
	<-started

	// A second filter lands while the first is still in flight.
	if err := c.ApplyFilter(context.Background(), fraud.CategoryOverbilling); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}

	close(release)
	<-done

	displayed, _, active := c.Snapshot()
	if active != fraud.CategoryOverbilling {
		t.Fatalf("expected active filter overbilling, got %q", active)
	}
	if len(displayed) != 1 || displayed[0].ID != 20 {
		t.Fatalf("stale response must be discarded, got %+v", displayed)
	}
}

func TestApplyFilter_FailureKeepsDisplayedList(t *testing.T) {
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1, 2), nil
		},
		fetchByCategory: func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
			return nil, errors.New("gateway timeout")
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: 2}, nil
		},
	}
	notifier := &recordingNotifier{}
	c := NewController(api, notifier, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := c.ApplyFilter(context.Background(), fraud.CategoryDuplicate); err == nil {
		t.Fatalf("expected filter error")
	}

	displayed, _, active := c.Snapshot()
	if len(displayed) != 2 {
		t.Fatalf("failure must not clear the displayed list, got %d rows", len(displayed))
	}
	if active != fraud.CategoryAll {
		t.Fatalf("failed filter must not become active, got %q", active)
	}
	if notifier.errorCount() == 0 {
		t.Fatalf("failure must be surfaced to the user")
	}
}

func TestFlag_ServerFailureChangesNothing(t *testing.T) {
	refreshCalls := 0
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			refreshCalls++
			return items(1), nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: 1}, nil
		},
		flagInvoice: func(ctx context.Context, invoiceId int) error {
			return errors.New("forbidden")
		},
	}
	notifier := &recordingNotifier{}
	c := NewController(api, notifier, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	callsAfterLoad := refreshCalls

	if err := c.Flag(context.Background(), 1); err == nil {
		t.Fatalf("expected flag error")
	}
	if refreshCalls != callsAfterLoad {
		t.Fatalf("failed flag must not trigger a refresh")
	}
	if notifier.errorCount() == 0 {
		t.Fatalf("failed flag must be surfaced to the user")
	}
}

func TestFlag_RefreshesFilterSelectedBeforeFlag(t *testing.T) {
	var mu sync.Mutex
	categoryCalls := 0
	started := make(chan struct{})
	release := make(chan struct{})
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1, 2, 3), nil
		},
		fetchByCategory: func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
			mu.Lock()
			categoryCalls++
			call := categoryCalls
			mu.Unlock()
			if call == 1 {
				// Pre-flag fetch, held in flight until after the flag.
				close(started)
				<-release
				return []InvoiceItem{{ID: 7, RiskScore: 80, Status: "pending"}}, nil
			}
			return []InvoiceItem{{ID: 7, RiskScore: 80, Status: "flagged"}}, nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: 3, fraud.CategoryDuplicate: 1}, nil
		},
	}
	c := NewController(api, nil, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.ApplyFilter(context.Background(), fraud.CategoryDuplicate)
	}()
	<-started

	// The flag lands while the duplicate fetch is still in flight. The
	// refresh must target the duplicate filter the user selected, not the
	// filter that was rendered before the selection.
	if err := c.Flag(context.Background(), 7); err != nil {
		t.Fatalf("Flag: %v", err)
	}
	close(release)
	<-done

	displayed, _, active := c.Snapshot()
	if active != fraud.CategoryDuplicate {
		t.Fatalf("expected active filter duplicate after flag, got %q", active)
	}
	if len(displayed) != 1 || displayed[0].Status != "flagged" {
		t.Fatalf("displayed list must show the post-flag duplicate fetch, got %+v", displayed)
	}
}

func TestLoadAll_KeepsNarrowFilterDisplayed(t *testing.T) {
	summaryAll := 3
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1, 2, 3), nil
		},
		fetchByCategory: func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
			return items(2), nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: summaryAll}, nil
		},
	}
	c := NewController(api, nil, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := c.ApplyFilter(context.Background(), fraud.CategoryDuplicate); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}

	// A background refresh must update the counts without clobbering the
	// narrower filter the user selected.
	summaryAll = 4
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll (refresh): %v", err)
	}

	displayed, counts, active := c.Snapshot()
	if active != fraud.CategoryDuplicate {
		t.Fatalf("refresh must keep the active filter, got %q", active)
	}
	if len(displayed) != 1 || displayed[0].ID != 2 {
		t.Fatalf("refresh must keep the filtered list, got %+v", displayed)
	}
	if counts[fraud.CategoryAll] != 4 {
		t.Fatalf("refresh must still update counts, got all=%d", counts[fraud.CategoryAll])
	}
}

func TestFlag_RefreshesCountsUnderNarrowFilter(t *testing.T) {
	var mu sync.Mutex
	flagged := false
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1, 2, 3), nil
		},
		fetchByCategory: func(ctx context.Context, category fraud.Category) ([]InvoiceItem, error) {
			return items(2), nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			mu.Lock()
			defer mu.Unlock()
			if flagged {
				return map[fraud.Category]int{fraud.CategoryAll: 2}, nil
			}
			return map[fraud.Category]int{fraud.CategoryAll: 3}, nil
		},
		flagInvoice: func(ctx context.Context, invoiceId int) error {
			mu.Lock()
			defer mu.Unlock()
			flagged = true
			return nil
		},
	}
	c := NewController(api, nil, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if err := c.ApplyFilter(context.Background(), fraud.CategoryDuplicate); err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}

	if err := c.Flag(context.Background(), 2); err != nil {
		t.Fatalf("Flag: %v", err)
	}

	_, counts, active := c.Snapshot()
	if active != fraud.CategoryDuplicate {
		t.Fatalf("flag must keep the active filter, got %q", active)
	}
	if counts[fraud.CategoryAll] != 2 {
		t.Fatalf("flag must refresh population counts under a narrow filter, got all=%d", counts[fraud.CategoryAll])
	}
}

func TestLoadAll_StaleCountsDiscarded(t *testing.T) {
	var mu sync.Mutex
	summaryCalls := 0
	started := make(chan struct{})
	release := make(chan struct{})
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			return items(1), nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			mu.Lock()
			summaryCalls++
			call := summaryCalls
			mu.Unlock()
			if call == 1 {
				close(started)
				<-release
				return map[fraud.Category]int{fraud.CategoryAll: 1}, nil
			}
			return map[fraud.Category]int{fraud.CategoryAll: 5}, nil
		},
	}
	c := NewController(api, nil, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.LoadAll(context.Background())
	}()
	<-started

	// A newer refresh completes while the first summary is still in flight.
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	close(release)
	<-done

	_, counts, _ := c.Snapshot()
	if counts[fraud.CategoryAll] != 5 {
		t.Fatalf("slow counts response must not overwrite newer counts, got all=%d", counts[fraud.CategoryAll])
	}
}

func TestFlag_ConfirmThenRefresh(t *testing.T) {
	var mu sync.Mutex
	flagged := false
	api := &stubAPI{
		fetchHighRisk: func(ctx context.Context) ([]InvoiceItem, error) {
			mu.Lock()
			defer mu.Unlock()
			if flagged {
				return []InvoiceItem{{ID: 1, RiskScore: 50, Status: "flagged"}}, nil
			}
			return []InvoiceItem{{ID: 1, RiskScore: 50, Status: "pending"}}, nil
		},
		fetchSummary: func(ctx context.Context) (map[fraud.Category]int, error) {
			return map[fraud.Category]int{fraud.CategoryAll: 1}, nil
		},
		flagInvoice: func(ctx context.Context, invoiceId int) error {
			mu.Lock()
			defer mu.Unlock()
			flagged = true
			return nil
		},
	}
	notifier := &recordingNotifier{}
	c := NewController(api, notifier, nil)
	if err := c.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if err := c.Flag(context.Background(), 1); err != nil {
		t.Fatalf("Flag: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		displayed, _, _ := c.Snapshot()
		if len(displayed) == 1 && displayed[0].Status == "flagged" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("flagged status never reflected, got %+v", displayed)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
