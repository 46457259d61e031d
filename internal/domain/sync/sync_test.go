package sync

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/vecsync/internal/domain/point"
	"github.com/kailas-cloud/vecsync/internal/domain/value"
)

func TestNewItem(t *testing.T) {
	if _, err := NewItem(point.ID{}, "t", "d", nil); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := NewItem(point.IntID(1), "t", "d", value.Map{"": value.String("x")}); err == nil {
		t.Error("expected error for empty metadata key")
	}
	if _, err := NewItem(point.IntID(1), "", "", nil); err != nil {
		t.Errorf("empty title and description must be accepted: %v", err)
	}
}

func TestItem_PayloadMetadataWins(t *testing.T) {
	item, err := NewItem(point.IntID(1), "Go Basics", "Learn Go", value.Map{
		"title": value.String("Overridden"),
		"level": value.String("beginner"),
	})
	if err != nil {
		t.Fatalf("NewItem: %v", err)
	}

	p := item.Payload()
	if p["title"].AsString() != "Overridden" {
		t.Errorf("title = %q, want metadata to win", p["title"].AsString())
	}
	if p["description"].AsString() != "Learn Go" {
		t.Errorf("description = %q", p["description"].AsString())
	}
	if p["level"].AsString() != "beginner" {
		t.Errorf("level = %q", p["level"].AsString())
	}
	if item.Title() != "Go Basics" {
		t.Errorf("Title() = %q, record title must stay untouched", item.Title())
	}
}

func TestSummarize(t *testing.T) {
	results := []ItemResult{
		NewOK(point.IntID(1)),
		NewOK(point.IntID(2)),
		NewError(point.IntID(3), errors.New("boom")),
		NewOK(point.IntID(4)),
		NewOK(point.IntID(5)),
	}

	br := Summarize(results)
	if br.Total != 5 || br.Succeeded != 4 || br.Failed != 1 {
		t.Fatalf("got total=%d succeeded=%d failed=%d, want 5/4/1", br.Total, br.Succeeded, br.Failed)
	}
	if br.Success() {
		t.Error("Success() = true with a failure")
	}
	if len(br.Errors) != 1 || !strings.Contains(br.Errors[0], "3") || !strings.Contains(br.Errors[0], "boom") {
		t.Errorf("Errors = %v, want one entry naming item 3", br.Errors)
	}
}

func TestSummarize_Empty(t *testing.T) {
	br := Summarize(nil)
	if !br.Success() || br.Total != 0 || br.Errors == nil {
		t.Errorf("unexpected empty summary: %+v", br)
	}
}

func TestItemResult(t *testing.T) {
	err := errors.New("failed")
	r := NewError(point.IntID(2), err)
	if r.Status() != StatusError || !errors.Is(r.Err(), err) || r.ID().String() != "2" {
		t.Errorf("unexpected result: %+v", r)
	}
	if ok := NewOK(point.IntID(1)); ok.Status() != StatusOK || ok.Err() != nil {
		t.Errorf("unexpected ok result: %+v", ok)
	}
}
