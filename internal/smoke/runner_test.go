package smoke

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samvad-hq/bookcart-smoke/internal/storefronttest"
	"github.com/samvad-hq/bookcart-smoke/pkg/bookcart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

func newTestRunner(t *testing.T, srv *storefronttest.Server, opts Options) *Runner {
	t.Helper()
	r := NewRunner(bookcart.New(srv.Config()), nil, opts, nil)
	r.now = func() time.Time { return fixedNow }
	r.newRunID = func() string { return "run-1" }
	return r
}

func newStorefront(t *testing.T) *storefronttest.Server {
	t.Helper()
	srv := storefronttest.NewServer()
	t.Cleanup(srv.Close)
	return srv
}

func TestRunPassesAgainstStorefront(t *testing.T) {
	srv := newStorefront(t)
	opts := DefaultOptions()
	opts.StorefrontURL = srv.URL + "/"
	runner := newTestRunner(t, srv, opts)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Passed)
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, srv.BaseURL(), report.BaseURL)
	assert.Equal(t, "testuser_1792143000", report.Username)

	var names []string
	for _, s := range report.Steps {
		names = append(names, s.Name)
		assert.True(t, s.Passed, s.Name)
	}
	assert.Equal(t, []string{
		StepRegister, StepLogin, StepDuplicateRegister,
		StepListCategories, StepListBooks, StepBookDetails, StepAddToCart,
		StepStorefrontPage,
	}, names)
	assert.Equal(t, http.StatusBadRequest, report.Steps[2].StatusCode)
	assert.Equal(t, 1, srv.CartQuantity(101, 2))
}

func TestRunSkipsOptionalChecks(t *testing.T) {
	srv := newStorefront(t)
	opts := DefaultOptions()
	opts.CheckDuplicateRegister = false
	runner := newTestRunner(t, srv, opts)

	report, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Steps, 6)
}

func TestRunStopsWhenDuplicateRegistrationSucceeds(t *testing.T) {
	srv := newStorefront(t)
	srv.AllowDuplicateUsers()
	runner := newTestRunner(t, srv, DefaultOptions())

	report, err := runner.Run(context.Background())
	require.Error(t, err)

	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, StepDuplicateRegister, assertErr.Step)
	assert.False(t, report.Passed)
	assert.Len(t, report.Steps, 3)

	failed, ok := report.FailedStep()
	require.True(t, ok)
	assert.Equal(t, StepDuplicateRegister, failed.Name)
}

func TestRegisterFailureCarriesResponseText(t *testing.T) {
	srv := newStorefront(t)
	srv.Fail(bookcart.OpRegister, http.StatusInternalServerError, "database down")
	runner := newTestRunner(t, srv, DefaultOptions())

	_, err := runner.RegisterAndLogin(context.Background())
	require.Error(t, err)

	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, "Registration failed", assertErr.Message)
	assert.Equal(t, http.StatusInternalServerError, assertErr.StatusCode)
	assert.Contains(t, err.Error(), "Registration failed: database down")
}

func TestRegisterAndLoginReturnsSession(t *testing.T) {
	srv := newStorefront(t)
	runner := newTestRunner(t, srv, DefaultOptions())

	sess, err := runner.RegisterAndLogin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "testuser_1792143000", sess.Username)
	assert.Equal(t, "101", sess.UserID.String())
	assert.NotEmpty(t, sess.Token)
}

func TestRegisterWithoutUserIDFails(t *testing.T) {
	for name, body := range map[string]string{
		"null":    `{"userId": null}`,
		"missing": `{"username": "testuser_1792143000"}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := newStorefront(t)
			srv.Fail(bookcart.OpRegister, http.StatusOK, body)
			runner := newTestRunner(t, srv, DefaultOptions())

			_, err := runner.RegisterAndLogin(context.Background())
			var assertErr *AssertionError
			require.True(t, errors.As(err, &assertErr))
			assert.Equal(t, StepRegister, assertErr.Step)
			assert.Equal(t, "User ID not returned", assertErr.Message)
			assert.EqualError(t, err, "step register: User ID not returned")
		})
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	srv := newStorefront(t)
	srv.Fail(bookcart.OpLogin, http.StatusOK, `{}`)
	runner := newTestRunner(t, srv, DefaultOptions())

	report, err := runner.Run(context.Background())
	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, StepLogin, assertErr.Step)
	assert.Equal(t, "Token not returned", assertErr.Message)
	assert.EqualError(t, err, "step login: Token not returned")
	assert.Len(t, report.Steps, 2)
}

func TestListItemWithoutIDFails(t *testing.T) {
	cases := []struct {
		name string
		op   string
		body string
		step string
		msg  string
	}{
		{"category", bookcart.OpCategories, `[{"name": "x"}]`, StepListCategories, "item 0 has no categoryId"},
		{"book", bookcart.OpBooksByCategory, `[{"bookId": 2}, {"title": "x"}]`, StepListBooks, "item 1 has no bookId"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newStorefront(t)
			srv.Fail(tc.op, http.StatusOK, tc.body)
			runner := newTestRunner(t, srv, DefaultOptions())

			_, err := runner.BrowseAndAddToCart(context.Background(), bookcart.IntID(101))
			var assertErr *AssertionError
			require.True(t, errors.As(err, &assertErr))
			assert.Equal(t, tc.step, assertErr.Step)
			assert.Equal(t, tc.msg, assertErr.Message)
		})
	}
}

func TestEmptyCatalogFailsBrowsing(t *testing.T) {
	srv := newStorefront(t)
	srv.ClearCatalog()
	runner := newTestRunner(t, srv, DefaultOptions())

	_, err := runner.BrowseAndAddToCart(context.Background(), bookcart.IntID(101))
	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, "No categories returned", assertErr.Message)
}

func TestBookDetailsMismatch(t *testing.T) {
	srv := newStorefront(t)
	srv.Fail(bookcart.OpBookDetails, http.StatusOK, `{"bookId": 99}`)
	runner := newTestRunner(t, srv, DefaultOptions())

	_, err := runner.BrowseAndAddToCart(context.Background(), bookcart.IntID(101))
	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, StepBookDetails, assertErr.Step)
	assert.Contains(t, assertErr.Message, "Incorrect book details")
}

func TestBookDetailsIDTypeChangeFails(t *testing.T) {
	srv := newStorefront(t)
	srv.Fail(bookcart.OpBookDetails, http.StatusOK, `{"bookId": "2"}`)
	runner := newTestRunner(t, srv, DefaultOptions())

	_, err := runner.BrowseAndAddToCart(context.Background(), bookcart.IntID(101))
	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, StepBookDetails, assertErr.Step)
}

func TestAddToCartWithoutLoginFails(t *testing.T) {
	srv := newStorefront(t)
	runner := newTestRunner(t, srv, DefaultOptions())

	sel, err := runner.BrowseAndAddToCart(context.Background(), bookcart.IntID(101))
	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, StepAddToCart, assertErr.Step)
	assert.Equal(t, http.StatusUnauthorized, assertErr.StatusCode)
	assert.Equal(t, "1", sel.CategoryID.String())
	assert.Equal(t, "2", sel.BookID.String())
}

func TestTransportFailureAbortsRun(t *testing.T) {
	srv := storefronttest.NewServer()
	runner := newTestRunner(t, srv, DefaultOptions())
	srv.Close()

	report, err := runner.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, bookcart.ErrTransport))
	require.Len(t, report.Steps, 1)
	assert.Equal(t, StepRegister, report.Steps[0].Name)
	assert.Zero(t, report.Steps[0].StatusCode)
}

func TestStorefrontPageWithoutTitleFails(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>maintenance</p></body></html>`))
	}))
	defer page.Close()

	srv := newStorefront(t)
	opts := DefaultOptions()
	opts.StorefrontURL = page.URL
	runner := newTestRunner(t, srv, opts)

	report, err := runner.Run(context.Background())
	var assertErr *AssertionError
	require.True(t, errors.As(err, &assertErr))
	assert.Equal(t, StepStorefrontPage, assertErr.Step)
	assert.False(t, report.Passed)
}

func TestParsePage(t *testing.T) {
	info, err := parsePage([]byte(`<html><head><title> BookCart </title></head><body><app-root></app-root></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "BookCart", info.Title)
	assert.True(t, info.HasAppRoot)

	info, err = parsePage([]byte(`<html><body></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, info.Title)
	assert.False(t, info.HasAppRoot)
}
