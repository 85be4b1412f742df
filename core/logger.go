package core

// Logger is any service that can record application events.
// expected args fmt: error, map[string]interface{}, Author
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Author identifies the student whose request triggered a logged event.
type Author string
