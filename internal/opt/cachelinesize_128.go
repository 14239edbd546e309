//go:build ebr_cachelinesize_128

package opt

// CacheLineSize_ is forced to 128 bytes by the ebr_cachelinesize_128 tag.
const CacheLineSize_ = uintptr(128)
