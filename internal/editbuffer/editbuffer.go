// Package editbuffer хранит несохранённые правки строк таблицы до явного подтверждения или отмены.
package editbuffer

import "sync"

// Buffer содержит по одной ожидающей правке на ключ строки.
type Buffer[K comparable, V any] struct {
	mu      sync.Mutex
	pending map[K]V
}

// New создаёт пустой буфер.
func New[K comparable, V any]() *Buffer[K, V] {
	return &Buffer[K, V]{pending: make(map[K]V)}
}

// Stage запоминает правку строки key, заменяя предыдущую.
func (b *Buffer[K, V]) Stage(key K, value V) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[key] = value
}

// Get возвращает ожидающую правку строки key.
func (b *Buffer[K, V]) Get(key K) (V, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.pending[key]
	return v, ok
}

// Keys возвращает ключи строк с ожидающими правками в произвольном порядке.
func (b *Buffer[K, V]) Keys() []K {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]K, 0, len(b.pending))
	for k := range b.pending {
		keys = append(keys, k)
	}
	return keys
}

// Commit передаёт правку строки key в apply и удаляет её из буфера, если apply не вернул ошибку.
// Возвращает false, если правки для key нет.
func (b *Buffer[K, V]) Commit(key K, apply func(V) error) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.pending[key]
	if !ok {
		return false, nil
	}
	if err := apply(v); err != nil {
		return true, err
	}
	delete(b.pending, key)
	return true, nil
}

// Cancel отбрасывает правку строки key.
func (b *Buffer[K, V]) Cancel(key K) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[key]
	delete(b.pending, key)
	return ok
}

// Reset отбрасывает все правки.
func (b *Buffer[K, V]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.pending)
}
