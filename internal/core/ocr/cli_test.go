package ocr

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	name   string
	args   []string
	stdout string
	stderr string
	err    error
	input  bool // whether the PNG argument existed during the call
}

func (f *fakeRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if len(args) > 0 {
		_, statErr := os.Stat(args[0])
		f.input = statErr == nil
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestCLIEngineRecognize(t *testing.T) {
	r := &fakeRunner{stdout: "Dear John Smith\n-----\n"}
	e := NewCLIEngine(CLIConfig{TessdataDir: "/usr/share/tessdata"}, r, nil)

	got, err := e.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 20, 20)), DefaultOptions(""))
	require.NoError(t, err)

	assert.Equal(t, "Dear John Smith", got)
	assert.Equal(t, "tesseract", r.name)
	assert.True(t, r.input, "input PNG must exist while tesseract runs")
	assert.Equal(t, []string{
		"stdout", "-l", "eng", "--psm", "3",
		"--tessdata-dir", "/usr/share/tessdata",
		"-c", "tessedit_char_whitelist=ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789&.- ",
	}, r.args[1:])

	_, statErr := os.Stat(r.args[0])
	assert.True(t, os.IsNotExist(statErr), "temp input is removed afterwards")
}

func TestCLIEngineFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1"), stderr: "Error opening data file"}
	e := NewCLIEngine(CLIConfig{Tesseract: "/opt/bin/tesseract"}, r, nil)

	_, err := e.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 5, 5)), DefaultOptions("deu"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error opening data file")
	assert.Equal(t, "/opt/bin/tesseract", r.name)
	assert.Contains(t, r.args, "deu")
}

func TestCLIEngineEmptyImage(t *testing.T) {
	r := &fakeRunner{}
	e := NewCLIEngine(CLIConfig{}, r, nil)

	_, err := e.Recognize(context.Background(), image.NewRGBA(image.Rectangle{}), DefaultOptions(""))
	assert.ErrorIs(t, err, ErrEmptyImage)
	assert.Empty(t, r.name, "runner must not be invoked")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "ab...(truncated)", Truncate("abc", 2))
}
