package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput — нечитаемое изображение или отсутствуют обязательные поля запроса.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDetection — сбой инференса.
	ErrDetection = errors.New("detection failed")
	// ErrChatService — исчерпаны все уровни генерации.
	ErrChatService = errors.New("chat service unavailable")
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyProcessed — повторное обновление уже обработанной записи.
	ErrAlreadyProcessed = errors.New("record already processed")
)

// InputError оборачивает ErrInvalidInput с пояснением.
func InputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// DetectionError оборачивает ErrDetection вместе с исходной ошибкой.
func DetectionError(err error) error {
	return fmt.Errorf("%w: %w", ErrDetection, err)
}
