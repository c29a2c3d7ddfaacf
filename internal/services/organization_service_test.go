package services

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/validator"
)

func TestOrganizationService_GetOrgChart(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /org-chart/", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(`{"id": 1, "name": "Root", "children": [{"id": 2, "children": [{"id": 3}]}, {"id": 4}]}`)(w, r)
	})

	caches, _ := newCaches(t)
	svc := NewOrganizationService(newUpstream(t, mux), caches.Pages, validator.New(), discardLogger())

	resp, err := svc.GetOrgChart(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Roots, 1)
	assert.Equal(t, 4, resp.Headcount)
	assert.Equal(t, models.UnknownUserName, resp.Roots[0].Children[0].Name)

	_, err = svc.GetOrgChart(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOrganizationService_SendMessage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/messages/", writeJSON(`{"id": 77, "content": "hi"}`))

	caches, _ := newCaches(t)
	svc := NewOrganizationService(newUpstream(t, mux), caches.Pages, validator.New(), discardLogger())
	sender := &models.User{ID: 2, FirstName: "Kim"}

	msg, err := svc.SendMessage(context.Background(), sender, &validator.ChatMessageRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, int64(77), msg.ID)
	assert.Equal(t, "Kim", msg.SenderName)

	_, err = svc.SendMessage(context.Background(), sender, &validator.ChatMessageRequest{Content: "  "})
	var ve ValidationErrors
	assert.ErrorAs(t, err, &ve)

	_, err = svc.SendMessage(context.Background(), nil, &validator.ChatMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
