package mnist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL serves the canonical archives. The original Yann LeCun
// host throttles anonymous clients, so the CVDF mirror is the default.
const DefaultBaseURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"

// ErrChecksum reports a downloaded archive whose digest does not match
// the published one.
var ErrChecksum = errors.New("mnist: checksum mismatch")

// Archive is one distribution file together with its published digest.
type Archive struct {
	Name   string
	SHA256 string
}

// Archives lists the four files every MNIST mirror serves, with the
// digests of the canonical distribution.
var Archives = []Archive{
	{TrainImagesFile + ".gz", "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609"},
	{TrainLabelsFile + ".gz", "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c"},
	{TestImagesFile + ".gz", "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6"},
	{TestLabelsFile + ".gz", "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6"},
}

// FetchOptions configures Fetch. The zero value downloads the canonical
// archives into the current directory.
type FetchOptions struct {
	// BaseURL is the mirror to download from. Empty means DefaultBaseURL.
	BaseURL string

	// Dir is the destination directory, created if missing.
	Dir string

	// Force re-downloads archives that already verify.
	Force bool

	Client *http.Client
	Logger *log.Logger

	// archives overrides the published table in tests.
	archives []Archive
}

// Fetch downloads the archives concurrently, verifying each against its
// digest and writing via a temp file so a failed download never leaves
// a partial archive behind.
func Fetch(ctx context.Context, opts FetchOptions) error {
	var baseURL = opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var client = opts.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	var logger = opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	var archives = opts.archives
	if archives == nil {
		archives = Archives
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, archive := range archives {
		var archive = archive
		g.Go(func() error {
			return fetchArchive(ctx, client, logger, baseURL, opts.Dir, archive, opts.Force)
		})
	}
	return g.Wait()
}

func fetchArchive(ctx context.Context, client *http.Client, logger *log.Logger,
	baseURL, dir string, archive Archive, force bool) error {
	var dest = filepath.Join(dir, archive.Name)
	if !force {
		if digest, err := fileDigest(dest); err == nil && digest == archive.SHA256 {
			logger.Printf("%v up to date", archive.Name)
			return nil
		}
	}

	srcURL, err := url.JoinPath(baseURL, archive.Name)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mnist: fetching %v: status %v", archive.Name, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, archive.Name+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var hasher = sha256.New()
	var written, copyErr = io.Copy(io.MultiWriter(tmp, hasher), resp.Body)
	if closeErr := tmp.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return copyErr
	}
	var digest = hex.EncodeToString(hasher.Sum(nil))
	if digest != archive.SHA256 {
		return fmt.Errorf("%w for %v: got %v want %v",
			ErrChecksum, archive.Name, digest, archive.SHA256)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return err
	}
	logger.Printf("%v downloaded (%v bytes)", archive.Name, written)
	return nil
}

// fileDigest streams the file through SHA-256.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	var hasher = sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
