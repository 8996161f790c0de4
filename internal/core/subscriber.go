package core

type SessionID string

// Frame is a raw encoded message.
type Frame []byte

// Subscriber abstracts a push transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type Subscriber interface {
	TrySend(Frame) error
	Close()
}
