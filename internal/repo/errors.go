package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedEvent — событие не может быть сохранено.
	ErrUnsupportedEvent = errors.New("unsupported event")
)
