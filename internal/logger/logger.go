package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger пишет сообщения по уровням (info/warning/error) в консоль и, при наличии каталога, в файлы.
type Logger struct {
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	files      []*os.File
	mu         sync.Mutex
}

// New создаёт логгер, пишущий все уровни в w.
func New(w io.Writer) *Logger {
	return newLogger(w, w, w)
}

// NewFile создаёт логгер с файлами info.log, warning.log и error.log в logDir.
// Пустой logDir означает вывод только в консоль.
func NewFile(logDir string) (*Logger, error) {
	if logDir == "" {
		return newLogger(os.Stdout, os.Stdout, os.Stderr), nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	var files []*os.File
	open := func(name string) (*os.File, error) {
		f, err := os.OpenFile(filepath.Join(logDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", name, err)
		}
		files = append(files, f)
		return f, nil
	}

	infoFile, err := open("info.log")
	if err != nil {
		return nil, err
	}
	warningFile, err := open("warning.log")
	if err != nil {
		closeAll(files)
		return nil, err
	}
	errorFile, err := open("error.log")
	if err != nil {
		closeAll(files)
		return nil, err
	}

	l := newLogger(
		io.MultiWriter(os.Stdout, infoFile),
		io.MultiWriter(os.Stdout, warningFile),
		io.MultiWriter(os.Stderr, errorFile),
	)
	l.files = files
	return l, nil
}

// Discard возвращает логгер без вывода, удобно для тестов.
func Discard() *Logger {
	return New(io.Discard)
}

func newLogger(info, warning, errw io.Writer) *Logger {
	flags := log.Ldate | log.Ltime | log.Lmsgprefix
	return &Logger{
		infoLog:    log.New(info, "INFO    ", flags),
		warningLog: log.New(warning, "WARNING ", flags),
		errorLog:   log.New(errw, "ERROR   ", flags),
	}
}

// Info пишет сообщение уровня info.
func (l *Logger) Info(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Printf(format, v...)
}

// Warning пишет сообщение уровня warning.
func (l *Logger) Warning(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Printf(format, v...)
}

// Error пишет сообщение уровня error.
func (l *Logger) Error(format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Printf(format, v...)
}

// Close закрывает файлы логов.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	closeAll(l.files)
	l.files = nil
	return nil
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}
