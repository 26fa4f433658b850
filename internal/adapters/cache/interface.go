package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// A keyed cache where one caller at a time may claim a missing entry and fill it
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
