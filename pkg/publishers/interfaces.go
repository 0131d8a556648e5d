package publishers

import "context"

// Publisher sends run events to a downstream sink (SQS, SNS, Pub/Sub, HTTP).
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// closer is implemented by publishers that hold client connections.
type closer interface {
	Close() error
}
