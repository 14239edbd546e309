//go:build ebr_cachelinesize_64

package opt

// CacheLineSize_ is forced to 64 bytes by the ebr_cachelinesize_64 tag.
const CacheLineSize_ = uintptr(64)
