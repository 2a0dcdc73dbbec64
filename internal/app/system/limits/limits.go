// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody bounds every JSON request body. The largest legitimate
	// body is a brew snapshot with full notes and tags.
	MaxJSONBody = 64 << 10 // 64 KB
)
