package dashboard

import (
	"context"
	"sync"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"github.com/sirupsen/logrus"
)

// Notifier surfaces user-visible outcomes (toasts on the web dashboard).
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Controller drives the fraud review list. It keeps two stores: the full
// high-risk population (source of the category counts) and the displayed
// list (what the active filter shows). A fetch failure never clears the
// displayed list; the user keeps whatever was last rendered.
//
// Each displayed-list request claims a sequence tag at dispatch, and the
// active filter records the user's selection at dispatch time too. A
// response whose tag no longer matches the latest request is discarded, so
// rapid filter switching cannot let a slow earlier response overwrite a
// newer one. Population and counts refresh under their own tag: they change
// independently of which filter is displayed.
type Controller struct {
	api      API
	notifier Notifier
	logger   *logrus.Logger

	mu           sync.Mutex
	population   []InvoiceItem
	displayed    []InvoiceItem
	counts       map[fraud.Category]int
	activeFilter fraud.Category
	listSeq      uint64
	loadSeq      uint64
}

func NewController(api API, notifier Notifier, logger *logrus.Logger) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Controller{
		api:          api,
		notifier:     notifier,
		logger:       logger,
		counts:       map[fraud.Category]int{},
		activeFilter: fraud.CategoryAll,
	}
}

// Snapshot returns a copy of the rendered state.
func (c *Controller) Snapshot() (displayed []InvoiceItem, counts map[fraud.Category]int, activeFilter fraud.Category) {
	c.mu.Lock()
	defer c.mu.Unlock()

	displayed = make([]InvoiceItem, len(c.displayed))
	copy(displayed, c.displayed)
	counts = make(map[fraud.Category]int, len(c.counts))
	for k, v := range c.counts {
		counts[k] = v
	}
	return displayed, counts, c.activeFilter
}

// LoadAll fetches the population and the category counts. The displayed list
// is replaced only while no narrower filter is active, so a background
// refresh never clobbers the category the user selected.
func (c *Controller) LoadAll(ctx context.Context) error {
	c.mu.Lock()
	listSeq := c.listSeq
	c.loadSeq++
	loadSeq := c.loadSeq
	c.mu.Unlock()

	items, err := c.api.FetchHighRisk(ctx)
	if err != nil {
		c.reportError("failed to load invoices", err)
		return err
	}
	counts, err := c.api.FetchSummary(ctx)
	if err != nil {
		c.reportError("failed to load summary", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if loadSeq == c.loadSeq {
		c.population = items
		c.counts = counts
	}
	if listSeq == c.listSeq && c.activeFilter == fraud.CategoryAll {
		c.displayed = items
	}
	return nil
}

// ApplyFilter switches the displayed list to one category, or back to the
// full population for CategoryAll. The selected filter is recorded when the
// request is dispatched, so a concurrent Flag refreshes the category the
// user actually picked even while this fetch is still in flight. Counts are
// not touched: they always describe the population, never the filtered
// subset.
func (c *Controller) ApplyFilter(ctx context.Context, category fraud.Category) error {
	c.mu.Lock()
	c.listSeq++
	seq := c.listSeq
	previous := c.activeFilter
	c.activeFilter = category
	c.mu.Unlock()

	var items []InvoiceItem
	var err error
	if category == fraud.CategoryAll {
		items, err = c.api.FetchHighRisk(ctx)
	} else {
		items, err = c.api.FetchByCategory(ctx, category)
	}
	if err != nil {
		c.reportError("failed to apply filter", err)
		c.mu.Lock()
		if seq == c.listSeq {
			// Nothing newer in flight; fall back to the filter that is
			// still rendered.
			c.activeFilter = previous
		}
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.listSeq {
		// A newer request superseded this one while it was in flight.
		return nil
	}
	if category == fraud.CategoryAll {
		c.population = items
	}
	c.displayed = items
	return nil
}

// Flag asks the server to flag an invoice and refreshes the view only after
// the server confirms. On failure nothing changes locally; the list keeps
// rendering the pre-flag state.
func (c *Controller) Flag(ctx context.Context, invoiceId int) error {
	if err := c.api.FlagInvoice(ctx, invoiceId); err != nil {
		c.reportError("failed to flag invoice", err)
		return err
	}
	c.notifier.Success("invoice flagged for review")

	c.mu.Lock()
	activeFilter := c.activeFilter
	c.mu.Unlock()

	// The population with its counts and the active filter view refresh
	// concurrently. Either refresh failing leaves the previous data for
	// that part in place; both already report their own errors.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = c.LoadAll(ctx)
	}()
	go func() {
		defer wg.Done()
		_ = c.ApplyFilter(ctx, activeFilter)
	}()
	wg.Wait()
	return nil
}

// ViewDetail fetches one invoice for the detail view. It never mutates the
// list state.
func (c *Controller) ViewDetail(ctx context.Context, invoiceId int) (*InvoiceDetail, error) {
	detail, err := c.api.FetchInvoice(ctx, invoiceId)
	if err != nil {
		c.reportError("failed to load invoice detail", err)
		return nil, err
	}
	return detail, nil
}

func (c *Controller) reportError(message string, err error) {
	c.notifier.Error(message)
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"module": "dashboard",
		}).Error(message + ": " + err.Error())
	}
}
