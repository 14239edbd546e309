//go:build ebr_cachelinesize_256

package opt

// CacheLineSize_ is forced to 256 bytes by the ebr_cachelinesize_256 tag.
const CacheLineSize_ = uintptr(256)
