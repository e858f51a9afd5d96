package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmap/gymdex/internal/model"
)

func TestCandidates_ListWithFilter(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/admin/candidates", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(model.CandidatePage{
			Items: []model.Candidate{{ID: "c1", Name: "New Gym", Status: model.CandidatePending}},
			Meta:  model.SearchMeta{Total: 1, Page: 2},
		})
	}))

	page, err := c.Candidates(context.Background(), model.CandidateFilter{
		Status: model.CandidatePending,
		Page:   2,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, model.CandidatePending, page.Items[0].Status)
}

func TestUpdateCandidate_SendsPatch(t *testing.T) {
	t.Parallel()

	var got model.CandidatePatch
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/admin/candidates/c1", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(model.Candidate{ID: "c1", Name: "Renamed"})
	}))

	name := "Renamed"
	updated, err := c.UpdateCandidate(context.Background(), "c1", model.CandidatePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Renamed", *got.Name)
	assert.Nil(t, got.Address, "untouched fields omitted")
}

func TestApproveAndRejectCandidate(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/admin/candidates/c1/approve":
			_ = json.NewEncoder(w).Encode(model.Candidate{ID: "c1", Status: model.CandidateApproved})
		case "/admin/candidates/c2/reject":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			assert.Equal(t, "duplicate listing", body["note"])
			_ = json.NewEncoder(w).Encode(model.Candidate{
				ID: "c2", Status: model.CandidateRejected, RejectNote: body["note"],
			})
		default:
			http.NotFound(w, r)
		}
	}))

	approved, err := c.ApproveCandidate(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, model.CandidateApproved, approved.Status)

	rejected, err := c.RejectCandidate(context.Background(), "c2", "duplicate listing")
	require.NoError(t, err)
	assert.Equal(t, model.CandidateRejected, rejected.Status)
	assert.Equal(t, "duplicate listing", rejected.RejectNote)
}

func TestAdminCalls_RequireToken(t *testing.T) {
	t.Parallel()

	c := New(WithBaseURL("http://127.0.0.1:0"))

	_, err := c.Candidates(context.Background(), model.CandidateFilter{})
	require.ErrorIs(t, err, ErrNoAdminToken)

	_, err = c.ApproveCandidate(context.Background(), "c1")
	require.ErrorIs(t, err, ErrNoAdminToken)
}
