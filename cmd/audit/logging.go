package audit

import (
	"os"
	"unicode"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

type consoleEncoder struct {
	zapcore.Encoder
}

func (e consoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf, err := e.Encoder.EncodeEntry(entry, fields)
	if err != nil {
		return nil, err
	}

	b := buf.Bytes()
	for i := range b {
		if unicode.IsControl(rune(b[i])) && !unicode.IsSpace(rune(b[i])) {
			b[i] = '\x1A' // Substitute character
		}
	}

	return buf, nil
}

// NewLogger builds the stderr console logger shared by the subcommands. Findings go to stdout, so log
// lines never interleave with the audit stream.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return zap.New(zapcore.NewCore(
		consoleEncoder{zapcore.NewConsoleEncoder(
			zap.NewDevelopmentEncoderConfig())},
		zapcore.AddSync(zapcore.Lock(os.Stderr)),
		zap.NewAtomicLevelAt(lvl))), nil
}
