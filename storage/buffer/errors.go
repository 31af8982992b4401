package buffer

import "errors"

var (
	// ErrBufferPoolFull means every frame is pinned and nothing can be
	// evicted.
	ErrBufferPoolFull = errors.New("buffer pool is full")

	// ErrPageNotFound means the page is not resident.
	ErrPageNotFound = errors.New("page not found in buffer pool")

	// ErrPagePinned means the operation needs an unpinned page.
	ErrPagePinned = errors.New("page is pinned")
)

// IsNotFound reports whether err is a page-not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPageNotFound)
}
