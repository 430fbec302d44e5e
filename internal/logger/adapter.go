package logger

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lokutor-ai/delivery-coach/pkg/analyzer"
)

// Adapter exposes a zerolog logger through the library Logger interface.
// Arguments are read as alternating key/value pairs.
type Adapter struct {
	log zerolog.Logger
}

var _ analyzer.Logger = (*Adapter)(nil)

func NewAdapter(log zerolog.Logger) *Adapter {
	return &Adapter{log: log}
}

func (a *Adapter) Debug(msg string, args ...interface{}) { a.emit(a.log.Debug(), msg, args) }
func (a *Adapter) Info(msg string, args ...interface{})  { a.emit(a.log.Info(), msg, args) }
func (a *Adapter) Warn(msg string, args ...interface{})  { a.emit(a.log.Warn(), msg, args) }
func (a *Adapter) Error(msg string, args ...interface{}) { a.emit(a.log.Error(), msg, args) }

func (a *Adapter) emit(ev *zerolog.Event, msg string, args []interface{}) {
	if ev == nil {
		return
	}
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		if i+1 >= len(args) {
			ev = ev.Interface("!BADKEY", args[i])
			break
		}
		if err, ok := args[i+1].(error); ok {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
