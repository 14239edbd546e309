//go:build ebr_cachelinesize_32

package opt

// CacheLineSize_ is forced to 32 bytes by the ebr_cachelinesize_32 tag.
const CacheLineSize_ = uintptr(32)
