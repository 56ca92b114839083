package cmd

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/laelblog/blogctl/client"
	"github.com/laelblog/blogctl/pkg/clierr"
	"github.com/laelblog/blogctl/pkg/hasher"
	"github.com/laelblog/blogctl/pkg/validation"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// uploadCmd sends a file to the media library and prints its public URL.
func uploadCmd(a *app) *cobra.Command {
	var uploadType, algo string
	var rate int64
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image, document or favicon",
		Long: "Upload a file to the media library. Favicon uploads also update the site's favicon setting. " +
			"A digest of the bytes sent is printed so the stored object can be verified.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateUploadType(uploadType); err != nil {
				return invalid(err)
			}
			if !hasher.IsValidHashAlgo(algo) {
				return invalid(fmt.Errorf("unsupported hash algorithm: %s", algo))
			}
			if cmd.Flags().Changed("limit-rate") {
				if rate < 0 {
					return invalid(fmt.Errorf("limit-rate must not be negative, got %d", rate))
				}
				a.client.SetUploadRateLimit(rate)
			}

			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return invalid(fmt.Errorf("failed to open %s: %w", path, err))
			}
			defer file.Close()
			info, err := file.Stat()
			if err != nil {
				return clierr.New(clierr.Internal, fmt.Sprintf("Failed to read %s.", path), err)
			}
			if info.IsDir() {
				return invalid(fmt.Errorf("%s is a directory", path))
			}
			contentType, err := detectContentType(file)
			if err != nil {
				return clierr.New(clierr.Internal, fmt.Sprintf("Failed to read %s.", path), err)
			}

			digest, err := hasher.New(algo)
			if err != nil {
				return invalid(err)
			}
			progress := io.Writer(digest)
			if !noProgress {
				bar := progressbar.NewOptions64(
					info.Size(),
					progressbar.OptionSetDescription(fmt.Sprintf("Uploading %s", filepath.Base(path))),
					progressbar.OptionShowBytes(true),
					progressbar.OptionSetWriter(cmd.ErrOrStderr()),
					progressbar.OptionThrottle(100*time.Millisecond),
					progressbar.OptionClearOnFinish(),
					progressbar.OptionSetPredictTime(false),
				)
				defer bar.Close()
				progress = io.MultiWriter(bar, digest)
			}

			in := client.UploadInput{
				Filename:    filepath.Base(path),
				ContentType: contentType,
				Size:        info.Size(),
				Body:        file,
				Type:        uploadType,
				Progress:    progress,
			}
			log.Info().Str("file", path).Str("type", uploadType).Int64("size", info.Size()).Msg("Uploading file")

			var result *client.UploadResult
			if uploadType == client.UploadFavicon {
				result, err = a.client.UploadFavicon(cmd.Context(), in)
			} else {
				result, err = a.client.UploadFile(cmd.Context(), in)
			}
			if err != nil {
				return err
			}

			sum := hasher.Hex(digest)
			return a.render(cmd, map[string]any{"upload": result, algo: sum}, func(w io.Writer) {
				fmt.Fprintf(w, "URL: %s\n", result.URL)
				fmt.Fprintf(w, "Key: %s\n", result.Key)
				fmt.Fprintf(w, "%s: %s\n", algo, sum)
			})
		},
	}

	cmd.Flags().StringVarP(&uploadType, "type", "t", client.UploadImage, "Upload type [image, document, favicon]")
	cmd.Flags().StringVarP(&algo, "algo", "a", "sha256", "Hash algorithm for the printed digest [md5, sha1, sha256, sha512]")
	cmd.Flags().Int64Var(&rate, "limit-rate", 0, "Maximum upload speed in bytes per second, 0 for unlimited")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Do not show a progress bar")

	return cmd
}

// detectContentType guesses from the extension, then from the first bytes,
// and rewinds the file.
func detectContentType(f *os.File) (string, error) {
	if ct := mime.TypeByExtension(filepath.Ext(f.Name())); ct != "" {
		return ct, nil
	}
	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
