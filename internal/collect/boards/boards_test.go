package boards

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshift-engine/internal/collect/util"
)

const boardHTML = `<html><body>
<a href="/acme/jobs/101">Backend Engineer</a>
<a href="/acme/jobs/102">Platform Engineer</a>
<a href="/acme/jobs/101">Backend Engineer (duplicate anchor)</a>
<a href="/acme/about">About us</a>
<a href="https://example.com/jobs/999">External</a>
</body></html>`

func TestFetchCountsDistinctJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/acme", r.URL.Path)
		fmt.Fprint(w, boardHTML)
	}))
	defer srv.Close()

	f := New(Config{Boards: []Board{{Slug: "acme", Name: "Acme", Category: "Backend Developer"}}},
		util.NewHostLimiter(100, 100))
	f.baseOverride = srv.URL
	f.now = func() time.Time { return time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC) }

	res, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Observations, 1)

	o := res.Observations[0]
	// 101, 102 and the external 999 are distinct ids; the duplicate anchor is not
	assert.Equal(t, 3.0, o.Demand)
	assert.Equal(t, "boards:acme:2025-07-15", o.SourceID)
	assert.Equal(t, "Backend Developer", o.Category)
}

func TestFetchBoardDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			http.Error(w, "gone", 502)
			return
		}
		fmt.Fprint(w, boardHTML)
	}))
	defer srv.Close()

	f := New(Config{Boards: []Board{
		{Slug: "down", Name: "Down", Category: "X"},
		{Slug: "acme", Name: "Acme", Category: "Backend Developer"},
	}}, util.NewHostLimiter(100, 100))
	f.baseOverride = srv.URL

	res, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Observations, 1)
	assert.Equal(t, "Acme", res.Observations[0].RoleID)
}
