package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/bookcart-smoke/internal/domain"
	"github.com/samvad-hq/bookcart-smoke/internal/logger"
	"github.com/samvad-hq/bookcart-smoke/pkg/bookcart"
	"github.com/samvad-hq/bookcart-smoke/pkg/httpclient"
)

// Step names, in execution order.
const (
	StepRegister          = "register"
	StepLogin             = "login"
	StepDuplicateRegister = "duplicate_register"
	StepListCategories    = "list_categories"
	StepListBooks         = "list_books"
	StepBookDetails       = "book_details"
	StepAddToCart         = "add_to_cart"
	StepStorefrontPage    = "storefront_page"
)

// Options controls the generated user and the optional checks.
type Options struct {
	Password               string
	FirstName              string
	LastName               string
	Gender                 string
	CheckDuplicateRegister bool
	StorefrontURL          string
}

// DefaultOptions mirrors the user the smoke suite has always registered.
func DefaultOptions() Options {
	return Options{
		Password:               "Test@123",
		FirstName:              "Test",
		LastName:               "User",
		Gender:                 "Male",
		CheckDuplicateRegister: true,
	}
}

// Session is what RegisterAndLogin hands to the browsing scenario.
type Session struct {
	Username string
	UserID   bookcart.ID
	Token    string
}

// Selection records what BrowseAndAddToCart picked.
type Selection struct {
	CategoryID bookcart.ID
	BookID     bookcart.ID
}

// Runner drives the storefront scenarios through one client. Like the client,
// it is meant for sequential use.
type Runner struct {
	client   *bookcart.Client
	pages    httpclient.Client
	opts     Options
	log      logger.Logger
	now      func() time.Time
	newRunID func() string
}

// NewRunner wires a runner around client.
func NewRunner(client *bookcart.Client, pages httpclient.Client, opts Options, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NopLogger{}
	}
	if pages == nil {
		pages = httpclient.NewRestyClient(0)
	}
	return &Runner{
		client:   client,
		pages:    pages,
		opts:     opts,
		log:      log,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Username returns a fresh "testuser_<unix seconds>" name.
func (r *Runner) Username() string {
	return "testuser_" + strconv.FormatInt(r.now().Unix(), 10)
}

// Run executes every step, stopping at the first failure. The returned error
// is that failure; the report is complete either way.
func (r *Runner) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     r.newRunID(),
		BaseURL:   r.client.BaseURL(),
		StartedAt: r.now().UTC(),
	}
	rec := &recorder{log: r.log, runID: report.RunID}

	sess, err := r.registerAndLogin(ctx, rec)
	report.Username = sess.Username
	if err == nil {
		_, err = r.browseAndAddToCart(ctx, rec, sess.UserID)
	}
	if err == nil && r.opts.StorefrontURL != "" {
		err = rec.step(StepStorefrontPage, func() (int, error) {
			return r.checkStorefront(ctx)
		})
	}

	report.Steps = rec.steps
	report.Passed = err == nil
	report.FinishedAt = r.now().UTC()

	r.log.InfoObj("smoke run finished", "smoke_run", map[string]any{
		"run_id":      report.RunID,
		"passed":      report.Passed,
		"steps":       len(report.Steps),
		"duration_ms": report.Duration().Milliseconds(),
	})
	return report, err
}

// RegisterAndLogin registers a fresh user and logs in as that user.
func (r *Runner) RegisterAndLogin(ctx context.Context) (Session, error) {
	return r.registerAndLogin(ctx, &recorder{log: r.log})
}

// BrowseAndAddToCart walks categories → books → details and adds the first
// book to userID's cart.
func (r *Runner) BrowseAndAddToCart(ctx context.Context, userID bookcart.ID) (Selection, error) {
	return r.browseAndAddToCart(ctx, &recorder{log: r.log}, userID)
}

func (r *Runner) registerAndLogin(ctx context.Context, rec *recorder) (Session, error) {
	sess := Session{Username: r.Username()}

	err := rec.step(StepRegister, func() (int, error) {
		resp, err := r.client.Register(ctx, sess.Username, r.opts.Password, r.opts.FirstName, r.opts.LastName, r.opts.Gender)
		if err != nil {
			return 0, err
		}
		if err := expectOK(StepRegister, resp, "Registration failed"); err != nil {
			return resp.StatusCode(), err
		}
		var body map[string]json.RawMessage
		if err := resp.JSON(&body); err != nil {
			return resp.StatusCode(), err
		}
		id, ok := idField(body, "userId")
		if !ok {
			return resp.StatusCode(), &AssertionError{Step: StepRegister, Message: "User ID not returned", StatusCode: resp.StatusCode()}
		}
		sess.UserID = id
		return resp.StatusCode(), nil
	})
	if err != nil {
		return sess, err
	}

	err = rec.step(StepLogin, func() (int, error) {
		resp, err := r.client.Login(ctx, sess.Username, r.opts.Password)
		if err != nil {
			return statusOf(resp), err
		}
		if err := expectOK(StepLogin, resp, "Login failed"); err != nil {
			return resp.StatusCode(), err
		}
		if r.client.Token() == "" {
			return resp.StatusCode(), &AssertionError{Step: StepLogin, Message: "Token not returned", StatusCode: resp.StatusCode()}
		}
		sess.Token = r.client.Token()
		return resp.StatusCode(), nil
	})
	if err != nil {
		return sess, err
	}

	if !r.opts.CheckDuplicateRegister {
		return sess, nil
	}
	err = rec.step(StepDuplicateRegister, func() (int, error) {
		resp, err := r.client.Register(ctx, sess.Username, r.opts.Password, r.opts.FirstName, r.opts.LastName, r.opts.Gender)
		if err != nil {
			return 0, err
		}
		if resp.StatusCode() == http.StatusOK {
			return resp.StatusCode(), &AssertionError{
				Step:       StepDuplicateRegister,
				Message:    "Registering the same username twice succeeded",
				StatusCode: resp.StatusCode(),
				Body:       resp.Text(),
			}
		}
		return resp.StatusCode(), nil
	})
	return sess, err
}

func (r *Runner) browseAndAddToCart(ctx context.Context, rec *recorder, userID bookcart.ID) (Selection, error) {
	var sel Selection

	err := rec.step(StepListCategories, func() (int, error) {
		resp, err := r.client.ListCategories(ctx)
		if err != nil {
			return 0, err
		}
		id, err := firstID(StepListCategories, resp, "Failed to retrieve categories", "No categories returned", "categoryId")
		sel.CategoryID = id
		return resp.StatusCode(), err
	})
	if err != nil {
		return sel, err
	}

	err = rec.step(StepListBooks, func() (int, error) {
		resp, err := r.client.ListBooksByCategory(ctx, sel.CategoryID)
		if err != nil {
			return 0, err
		}
		id, err := firstID(StepListBooks, resp, "Failed to retrieve books", "No books returned", "bookId")
		sel.BookID = id
		return resp.StatusCode(), err
	})
	if err != nil {
		return sel, err
	}

	err = rec.step(StepBookDetails, func() (int, error) {
		resp, err := r.client.GetBookDetails(ctx, sel.BookID)
		if err != nil {
			return 0, err
		}
		if err := expectOK(StepBookDetails, resp, "Failed to retrieve book details"); err != nil {
			return resp.StatusCode(), err
		}
		var body map[string]json.RawMessage
		if err := resp.JSON(&body); err != nil {
			return resp.StatusCode(), err
		}
		if id, _ := idField(body, "bookId"); !id.Equal(sel.BookID) {
			return resp.StatusCode(), &AssertionError{
				Step:       StepBookDetails,
				Message:    fmt.Sprintf("Incorrect book details: want bookId %s, got %q", sel.BookID, id),
				StatusCode: resp.StatusCode(),
			}
		}
		return resp.StatusCode(), nil
	})
	if err != nil {
		return sel, err
	}

	err = rec.step(StepAddToCart, func() (int, error) {
		resp, err := r.client.AddToCart(ctx, userID, sel.BookID, 1)
		if err != nil {
			return 0, err
		}
		return resp.StatusCode(), expectOK(StepAddToCart, resp, "Failed to add book to cart")
	})
	return sel, err
}

// firstID checks for a 200 with a non-empty array whose every element carries
// key, and returns the first element's value.
func firstID(step string, resp *bookcart.Response, failMsg, emptyMsg, key string) (bookcart.ID, error) {
	if err := expectOK(step, resp, failMsg); err != nil {
		return bookcart.ID{}, err
	}
	var items []map[string]json.RawMessage
	if err := resp.JSON(&items); err != nil {
		return bookcart.ID{}, err
	}
	if len(items) == 0 {
		return bookcart.ID{}, &AssertionError{Step: step, Message: emptyMsg, StatusCode: resp.StatusCode()}
	}
	var first bookcart.ID
	for i, item := range items {
		id, ok := idField(item, key)
		if !ok {
			return bookcart.ID{}, &AssertionError{
				Step:       step,
				Message:    fmt.Sprintf("item %d has no %s", i, key),
				StatusCode: resp.StatusCode(),
			}
		}
		if i == 0 {
			first = id
		}
	}
	return first, nil
}

func idField(obj map[string]json.RawMessage, key string) (bookcart.ID, bool) {
	raw, ok := obj[key]
	if !ok {
		return bookcart.ID{}, false
	}
	var id bookcart.ID
	if err := json.Unmarshal(raw, &id); err != nil || id.IsZero() {
		return bookcart.ID{}, false
	}
	return id, true
}

func statusOf(resp *bookcart.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode()
}

// recorder appends one StepResult per executed step.
type recorder struct {
	log   logger.Logger
	runID string
	steps []domain.StepResult
}

func (rec *recorder) step(name string, fn func() (int, error)) error {
	start := time.Now()
	status, err := fn()
	res := domain.StepResult{
		Name:       name,
		Passed:     err == nil,
		StatusCode: status,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		res.Message = err.Error()
		err = fmt.Errorf("step %s: %w", name, err)
	}
	rec.steps = append(rec.steps, res)

	fields := map[string]any{
		"run_id":      rec.runID,
		"step":        name,
		"status":      status,
		"duration_ms": res.DurationMs,
	}
	if err != nil {
		fields["error"] = res.Message
		rec.log.ErrorObj("smoke step failed", "smoke_step", fields)
	} else {
		rec.log.InfoObj("smoke step passed", "smoke_step", fields)
	}
	return err
}
