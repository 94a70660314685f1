package firefox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/sevenzip"

	"github.com/hamflx/fetchbrowser/internal/fetcherr"
)

// The installer is a self-extracting executable: a PE stub followed by a
// 7z archive. The archive starts at this signature.
var sfxSignature = []byte{'7', 'z', 0xBC, 0xAF, 0x27, 0x1C}

// Download fetches the installer, carves the 7z payload out of it and
// unpacks the payload's core/ directory into baseDir/firefox-<version>.
// A pre-existing directory of that name is replaced.
func (rel *Release) Download(ctx context.Context, baseDir string) (string, error) {
	r := rel.releases
	installer, err := r.fetchInstaller(ctx, rel.version)
	if err != nil {
		return "", err
	}

	payload, err := carvePayload(installer)
	if err != nil {
		// Keep the installer on disk so the user can run it manually.
		exePath := filepath.Join(baseDir, fmt.Sprintf("Firefox Setup %s.exe", rel.version))
		if writeErr := os.WriteFile(exePath, installer, 0o644); writeErr == nil {
			return "", fmt.Errorf("%w (installer saved at %s)", err, exePath)
		}
		return "", err
	}

	tmpDir := filepath.Join(baseDir, ".tmp-firefox-"+rel.version)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return "", &fetcherr.PathError{Op: "create dir", Path: tmpDir, Err: err}
	}
	if err := extractPayload(payload, tmpDir); err != nil {
		return "", err
	}

	// The payload keeps the browser under core/; everything else is
	// installer plumbing.
	dest := filepath.Join(baseDir, "firefox-"+rel.version)
	if err := os.RemoveAll(dest); err != nil {
		return "", &fetcherr.PathError{Op: "remove dir", Path: dest, Err: err}
	}
	if err := os.Rename(filepath.Join(tmpDir, "core"), dest); err != nil {
		return "", &fetcherr.PathError{Op: "rename", Path: dest, Err: err}
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", &fetcherr.PathError{Op: "remove dir", Path: tmpDir, Err: err}
	}
	return dest, nil
}

// carvePayload returns the embedded 7z archive.
func carvePayload(installer []byte) ([]byte, error) {
	i := bytes.Index(installer, sfxSignature)
	if i < 0 {
		return nil, &fetcherr.FormatError{
			Source: "firefox installer",
			Err:    errors.New("no 7z signature found"),
		}
	}
	return installer[i:], nil
}

func extractPayload(payload []byte, dest string) error {
	reader, err := sevenzip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return &fetcherr.FormatError{Source: "firefox installer payload", Err: err}
	}
	for _, file := range reader.File {
		path := filepath.Join(dest, filepath.FromSlash(file.Name))
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return &fetcherr.PathError{Op: "create dir", Path: path, Err: err}
			}
			continue
		}
		if err := writePayloadFile(file, path); err != nil {
			return err
		}
	}
	return nil
}

func writePayloadFile(file *sevenzip.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &fetcherr.PathError{Op: "create dir", Path: filepath.Dir(path), Err: err}
	}
	in, err := file.Open()
	if err != nil {
		return &fetcherr.FormatError{Source: "firefox installer payload", Err: err}
	}
	defer in.Close()
	out, err := os.Create(path)
	if err != nil {
		return &fetcherr.PathError{Op: "create file", Path: path, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return &fetcherr.PathError{Op: "write file", Path: path, Err: err}
	}
	if err := out.Close(); err != nil {
		return &fetcherr.PathError{Op: "close file", Path: path, Err: err}
	}
	return nil
}
