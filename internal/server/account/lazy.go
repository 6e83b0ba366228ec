package account

// lazy caches the first successful result of a load. Failures are not
// cached, so a later access retries the store.
type lazy[T any] struct {
	done bool
	val  T
}

func (l *lazy[T]) get(load func() (T, error)) (T, error) {
	if l.done {
		return l.val, nil
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	l.val, l.done = v, true
	return v, nil
}

func (l *lazy[T]) reset() {
	var zero T
	l.val, l.done = zero, false
}
