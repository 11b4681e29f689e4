package utils

import "sync"

var mu sync.Mutex

// ExecuteWithMutex serializes calls into code that is not safe for
// concurrent use, such as GDAL driver registration and dataset opening.
func ExecuteWithMutex(fn func()) {
	mu.Lock()
	defer mu.Unlock()
	fn()
}
