package cli

import (
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/bkmrdev/bkmr-lsp-client-go/internal/errors"
)

// binaryName is the server binary searched for when no explicit path is set.
const binaryName = "bkmr"

// Discover locates the bkmr binary.
//
// An explicit path, when given, is used and only it. Otherwise the search
// order is PATH, /usr/local/bin, /usr/bin, ~/.local/bin, and ~/.cargo/bin
// (bkmr is typically installed with cargo install).
//
// Returns ServerNotFoundError listing every searched location on failure.
func Discover(log *slog.Logger, explicit string) (string, error) {
	if explicit != "" {
		log.Debug("Using explicit server path", "path", explicit)

		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}

		return "", &errors.ServerNotFoundError{SearchedPaths: []string{explicit}}
	}

	searched := make([]string, 0, 5)

	if path, err := exec.LookPath(binaryName); err == nil {
		log.Debug("Found server in PATH", "path", path)

		return path, nil
	}

	searched = append(searched, "$PATH")

	common := []string{
		"/usr/local/bin/" + binaryName,
		"/usr/bin/" + binaryName,
	}

	if home, err := os.UserHomeDir(); err == nil {
		common = append(common,
			filepath.Join(home, ".local/bin", binaryName),
			filepath.Join(home, ".cargo/bin", binaryName),
		)
	}

	for _, path := range common {
		searched = append(searched, path)

		if _, err := os.Stat(path); err == nil {
			log.Debug("Found server at common path", "path", path)

			return path, nil
		}
	}

	log.Warn("Server binary not found", "searched_paths", searched)

	return "", &errors.ServerNotFoundError{SearchedPaths: searched}
}
