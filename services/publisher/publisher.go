package publisher

// Publisher represents a sink that receives each record as it is accumulated
type Publisher interface {
	// Publish publishes a message under key
	Publish(key string, message []byte) error

	// TrimStreams trims all streams to the configured maximum length
	TrimStreams() error

	// Close closes the publisher connection
	Close() error
}
