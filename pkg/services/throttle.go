package services

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/kerbaras/novelist/pkg/providers"
)

// ThrottledText spaces the starts of text generation calls so no more than
// perMinute of them begin in any minute.
type ThrottledText struct {
	next    providers.TextGenerator
	limiter *rate.Limiter
}

func NewThrottledText(next providers.TextGenerator, perMinute int) *ThrottledText {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &ThrottledText{next: next, limiter: rate.NewLimiter(limit, 1)}
}

func (t *ThrottledText) Generate(ctx context.Context, req providers.TextRequest) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.next.Generate(ctx, req)
}
