package image

import (
	"context"
	"fmt"
	"time"

	"github.com/meomirror/server/domain/repositories"
)

const picsumBaseURL = "https://picsum.photos"

// Picsum implements ImageGenerator as a lookup: it never actually generates,
// it hands out a random-photo URL the display can load directly. The prompt
// is ignored. Suitable as the no-credentials default.
type Picsum struct {
	baseURL string
	now     func() time.Time
}

var _ repositories.ImageGenerator = (*Picsum)(nil)

// NewPicsum creates the adapter. baseURL, when empty, selects the public
// endpoint.
func NewPicsum(baseURL string) *Picsum {
	if baseURL == "" {
		baseURL = picsumBaseURL
	}
	return &Picsum{baseURL: baseURL, now: time.Now}
}

// Generate returns a fresh random-photo URL.
func (p *Picsum) Generate(ctx context.Context, prompt string) (string, error) {
	return fmt.Sprintf("%s/512?random=%d", p.baseURL, p.now().Unix()), nil
}
