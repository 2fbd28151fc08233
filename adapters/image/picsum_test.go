package image

import (
	"context"
	"testing"
	"time"
)

func TestPicsum_Generate(t *testing.T) {
	p := NewPicsum("")
	p.now = func() time.Time { return time.Unix(1700000000, 0) }

	url, err := p.Generate(context.Background(), "ignored")
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://picsum.photos/512?random=1700000000" {
		t.Errorf("unexpected url %q", url)
	}
}
