package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/cardsnap/cardsnap/constants"
	"github.com/cardsnap/cardsnap/internal/common"
	"github.com/cardsnap/cardsnap/internal/entity"
)

func TestProcessBatchIsolatesFailures(t *testing.T) {
	bad := []byte("card-2")
	rec := &fakeRecognizer{text: cardText, failOn: bad}
	o := NewOrchestrator(rec, &fakeExtractor{available: false}, testConfig(), nil, nil)

	inputs := []BatchInput{
		{Image: []byte("card-0")},
		{Image: []byte("card-1")},
		{Image: bad},
		{Image: []byte("card-3")},
		{Image: []byte("card-4")},
	}
	outcome := o.ProcessBatch(context.Background(), inputs, entity.ProcessingOptions{})

	if len(outcome.Items) != 5 {
		t.Fatalf("items = %d, want 5", len(outcome.Items))
	}
	if outcome.Succeeded != 4 || outcome.Failed != 1 {
		t.Fatalf("succeeded/failed = %d/%d, want 4/1", outcome.Succeeded, outcome.Failed)
	}
	for i, item := range outcome.Items {
		if item.Index != i {
			t.Fatalf("item %d carries index %d, order must be preserved", i, item.Index)
		}
	}
	if !errors.Is(outcome.Items[2].Err, common.ErrRecognitionUnavailable) {
		t.Fatalf("item 2 error = %v, want recognition unavailable", outcome.Items[2].Err)
	}
	if !bytes.Equal(outcome.Items[2].Input.Image, bad) {
		t.Fatalf("item 2 input = %q, failure record must echo the original payload", outcome.Items[2].Input.Image)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if outcome.Items[i].Err != nil {
			t.Fatalf("item %d unexpectedly failed: %v", i, outcome.Items[i].Err)
		}
		if outcome.Items[i].Result.Contact.Source != constants.SourceLocal {
			t.Fatalf("item %d source = %q", i, outcome.Items[i].Result.Contact.Source)
		}
	}
}

func TestProcessBatchEmpty(t *testing.T) {
	o := NewOrchestrator(&fakeRecognizer{text: cardText}, nil, testConfig(), nil, nil)
	outcome := o.ProcessBatch(context.Background(), nil, entity.ProcessingOptions{})
	if len(outcome.Items) != 0 || outcome.Succeeded != 0 || outcome.Failed != 0 {
		t.Fatalf("empty batch outcome = %+v", outcome)
	}
}

func TestProcessBatchCancelledContext(t *testing.T) {
	o := NewOrchestrator(&fakeRecognizer{text: cardText}, nil, common.PipelineConfig{
		ConfidenceThreshold: 0.7,
		LocalMinConfidence:  0.3,
		BatchConcurrency:    1,
	}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inputs := []BatchInput{{Image: []byte("a")}, {Image: []byte("b")}}
	outcome := o.ProcessBatch(ctx, inputs, entity.ProcessingOptions{})
	if len(outcome.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(outcome.Items))
	}
	for i, item := range outcome.Items {
		if !errors.Is(item.Err, context.Canceled) {
			t.Fatalf("item %d error = %v, want context.Canceled", i, item.Err)
		}
		if item.Result.State != constants.JobStateIdle {
			t.Fatalf("item %d state = %q, never-started work must stay idle", i, item.Result.State)
		}
		if len(item.Input.Image) == 0 {
			t.Fatalf("item %d lost its input", i)
		}
	}
	if outcome.Failed != 2 {
		t.Fatalf("failed = %d, want 2", outcome.Failed)
	}
}
