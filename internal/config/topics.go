package config

const (
	// TopicDocumentIngested is the NSQ topic announcing documents that were
	// uploaded to the ingestion platform and had chunking triggered.
	TopicDocumentIngested = "document.ingested"
)
