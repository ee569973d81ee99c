package request

import "context"

// ListCache holds each owner's request list. It may be stale until the
// owner's key is invalidated after a committed write.
type ListCache interface {
	GetOwn(ctx context.Context, userID int64) ([]*Request, bool, error)
	SetOwn(ctx context.Context, userID int64, requests []*Request) error
	InvalidateOwn(ctx context.Context, userID int64) error
}

type NopCache struct{}

func (NopCache) GetOwn(context.Context, int64) ([]*Request, bool, error) { return nil, false, nil }

func (NopCache) SetOwn(context.Context, int64, []*Request) error { return nil }

func (NopCache) InvalidateOwn(context.Context, int64) error { return nil }
