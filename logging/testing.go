package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the timestamp layout used by test output.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// testCore is a zapcore.Core that writes entries through `testing.TB.Log`. Writing logs with
// `tb.Log` associates each line with the right "Test*" function, which matters once tests run in
// parallel. zap's own zaptest logger forgets a `tb.Helper` call, so every line is attributed to
// zap's logger.go instead of the code that logged.
type testCore struct {
	tb     testing.TB
	level  zapcore.LevelEnabler
	fields []zapcore.Field
}

func newTestCore(tb testing.TB, level zapcore.LevelEnabler) zapcore.Core {
	return &testCore{tb: tb, level: level}
}

func (tc *testCore) Enabled(level zapcore.Level) bool {
	return tc.level.Enabled(level)
}

func (tc *testCore) With(fields []zapcore.Field) zapcore.Core {
	combined := make([]zapcore.Field, 0, len(tc.fields)+len(fields))
	combined = append(combined, tc.fields...)
	combined = append(combined, fields...)
	return &testCore{tb: tc.tb, level: tc.level, fields: combined}
}

func (tc *testCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if tc.Enabled(entry.Level) {
		return checked.AddCore(entry, tc)
	}
	return checked
}

// Write outputs the log entry to the underlying test object `Log` method.
func (tc *testCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	tc.tb.Helper()
	const maxLength = 10
	toPrint := make([]string, 0, maxLength)
	toPrint = append(toPrint, entry.Time.Format(DefaultTimeFormatStr))

	toPrint = append(toPrint, strings.ToUpper(entry.Level.String()))
	toPrint = append(toPrint, entry.LoggerName)
	if entry.Caller.Defined {
		toPrint = append(toPrint, entry.Caller.TrimmedPath())
	}
	toPrint = append(toPrint, entry.Message)

	all := append(append([]zapcore.Field{}, tc.fields...), fields...)
	if len(all) == 0 {
		tc.tb.Log(strings.Join(toPrint, "\t"))
		return nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order. As opposed to the
	// random iteration order of a map. Call it with an empty Entry object such that only the fields
	// become "map-ified".
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, all)
	if err != nil {
		// Log what we have and return the error.
		tc.tb.Log(strings.Join(toPrint, "\t"))
		return err
	}
	toPrint = append(toPrint, buf.String())
	buf.Free()
	tc.tb.Log(strings.Join(toPrint, "\t"))
	return nil
}

// Sync is a no-op.
func (tc *testCore) Sync() error {
	return nil
}
