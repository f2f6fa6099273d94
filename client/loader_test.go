package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/luaraperilli/classroom-feedback-analyzer/analytics"
)

func TestLoaderDiscardsSupersededResult(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject := r.URL.Query().Get("subject_id")
		if subject == "slow" {
			<-release
		}
		_ = json.NewEncoder(w).Encode([]analytics.FeedbackRecord{{ID: subject}})
	}))
	defer server.Close()

	c := authedClient(t, server.URL)
	var mu sync.Mutex
	var applied [][]analytics.FeedbackRecord
	loader := NewFeedbackLoader(c, func(records []analytics.FeedbackRecord, err error) {
		if err != nil {
			t.Errorf("unexpected apply error: %v", err)
			return
		}
		mu.Lock()
		applied = append(applied, records)
		mu.Unlock()
	})

	slow := loader.Load(context.Background(), Filter{SubjectID: "slow"})
	fast := loader.Load(context.Background(), Filter{SubjectID: "fast"})
	<-fast
	close(release)
	<-slow

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 {
		t.Fatalf("expected one applied result, got %d", len(applied))
	}
	if applied[0][0].ID != "fast" {
		t.Fatalf("expected the superseding load to win, got %s", applied[0][0].ID)
	}
}

func TestLoaderCancelDropsInFlightLoad(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-r.Context().Done():
			return
		case <-time.After(5 * time.Second):
		}
		_ = json.NewEncoder(w).Encode([]analytics.FeedbackRecord{})
	}))
	defer server.Close()

	c := authedClient(t, server.URL)
	loader := NewFeedbackLoader(c, func([]analytics.FeedbackRecord, error) {
		t.Error("apply must not run for a cancelled load")
	})

	done := loader.Load(context.Background(), Filter{})
	<-started
	loader.Cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled load did not finish")
	}
}
