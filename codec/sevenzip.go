package codec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/docker/go-units"
)

// ExternalProcess7zCoder shells out to a 7-Zip-compatible binary for sites
// that standardize tooling around it instead of linking a Go compressor.
// Spawn idiom (exec.Command, piped stdio, captured stderr) is grounded on
// the teacher's storage/scan_helper.go NewEstimator helper-process launch.
type ExternalProcess7zCoder struct {
	// BinaryPath is the path to the 7z/7za/7zr executable. Empty means
	// "read it from SEVEN_ZIP_PATH at call time".
	BinaryPath string
}

var _ Coder = (*ExternalProcess7zCoder)(nil)

// NewExternalProcess7z returns a coder that shells out to binaryPath (or, if
// empty, to $SEVEN_ZIP_PATH resolved lazily on first use).
func NewExternalProcess7z(binaryPath string) *ExternalProcess7zCoder {
	return &ExternalProcess7zCoder{BinaryPath: binaryPath}
}

func (c *ExternalProcess7zCoder) Name() string { return ID7z.String() }

func (c *ExternalProcess7zCoder) resolvePath() (string, error) {
	if c.BinaryPath != "" {
		return c.BinaryPath, nil
	}
	if p := os.Getenv("SEVEN_ZIP_PATH"); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("codec: SEVEN_ZIP_PATH not set and no BinaryPath configured")
}

// run pipes src to the 7z binary's stdin under args and returns stdout.
func (c *ExternalProcess7zCoder) run(ctx context.Context, args []string, src []byte) ([]byte, error) {
	path, err := c.resolvePath()
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w (%s)", path, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

// Encode runs `7z a -txz -si -so -mx=9 -md=<size> -mmt=<N>`: read the block
// from stdin, write an xz-compatible LZMA2 stream to stdout. Unlike the
// native LZMA2Coder, 7-Zip's CLI genuinely honors both dictionary size
// (-md) and thread count (-mmt), so this is the coder where opts.Threads
// actually changes the encoder's own behavior rather than just block-level
// parallelism.
func (c *ExternalProcess7zCoder) Encode(src []byte, opts Options) ([]byte, error) {
	args := []string{
		"a", "-txz", "-si", "-so", "-mx=9",
		fmt.Sprintf("-md=%dm", int64(opts.dictSize())/units.MiB),
		"-mmt=" + strconv.Itoa(opts.threads()),
		"dummy.xz",
	}
	out, err := c.run(context.Background(), args, src)
	if err != nil {
		return nil, &EncodeFailError{Coder: c.Name(), Err: err}
	}
	return out, nil
}

// Decode runs `7z e -txz -si -so`: read the compressed stream from stdin,
// write the original bytes to stdout.
func (c *ExternalProcess7zCoder) Decode(src []byte) ([]byte, error) {
	out, err := c.run(context.Background(), []string{"e", "-txz", "-si", "-so"}, src)
	if err != nil {
		return nil, &DecodeFailError{Coder: c.Name(), Err: err}
	}
	return out, nil
}
