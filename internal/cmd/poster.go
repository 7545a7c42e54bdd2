package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/vibecheck/vibecheck/internal/api"
	"github.com/vibecheck/vibecheck/internal/config"
)

var posterCmd = &cobra.Command{
	Use:   "poster <movie title>",
	Short: "Download the poster for a movie",
	Long:  "Resolve a movie through the analysis service and download its poster, optionally emitting a resized thumbnail.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPoster,
}

func init() {
	rootCmd.AddCommand(posterCmd)

	posterCmd.Flags().String("out", "", "Output file (defaults to <title>.jpg in the working directory)")
	posterCmd.Flags().String("api-url", "", "Analysis service base URL (overrides config)")
	posterCmd.Flags().Bool("thumb", false, "Also write a resized thumbnail next to the poster")
	posterCmd.Flags().Int("max-size", 256, "Max thumbnail dimension (64-1024)")
	posterCmd.Flags().String("format", "jpeg", "Thumbnail format: jpeg or png")
	posterCmd.Flags().Int("jpeg-quality", 80, "JPEG quality (1-100)")
}

func runPoster(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return errors.New("movie title is required")
	}

	outPath, _ := cmd.Flags().GetString("out")
	apiURL, _ := cmd.Flags().GetString("api-url")
	thumb, _ := cmd.Flags().GetBool("thumb")
	maxSize, _ := cmd.Flags().GetInt("max-size")
	format, _ := cmd.Flags().GetString("format")
	jpegQuality, _ := cmd.Flags().GetInt("jpeg-quality")

	format = strings.ToLower(strings.TrimSpace(format))
	if thumb && (maxSize < 64 || maxSize > 1024) {
		return errors.New("--max-size must be between 64 and 1024")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = cfg.API.BaseURL
	}

	client := api.New(apiURL)
	client.Timeout = 60 * time.Second

	result, err := client.Analyze(cmd.Context(), title)
	if err != nil {
		return err
	}
	if result.PosterURL == nil || strings.TrimSpace(*result.PosterURL) == "" {
		return fmt.Errorf("no poster available for %q", result.MovieTitle)
	}

	if strings.TrimSpace(outPath) == "" {
		outPath = posterFilename(result.MovieTitle)
	}

	if err := downloadFile(cmd.Context(), *result.PosterURL, outPath); err != nil {
		return fmt.Errorf("download poster: %w", err)
	}
	fmt.Printf("Saved poster for %s to %s\n", result.MovieTitle, outPath)

	if thumb {
		thumbPath := thumbnailPath(outPath, format)
		if err := writeThumbnail(outPath, thumbPath, maxSize, format, jpegQuality); err != nil {
			return fmt.Errorf("thumbnail: %w", err)
		}
		fmt.Printf("Saved thumbnail to %s\n", thumbPath)
	}

	return nil
}

func posterFilename(title string) string {
	name := strings.ToLower(strings.Join(strings.Fields(title), "-"))
	cleaned := make([]rune, 0, len(name))
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			cleaned = append(cleaned, r)
		}
	}
	if len(cleaned) == 0 {
		return "poster.jpg"
	}
	return string(cleaned) + ".jpg"
}

func downloadFile(ctx context.Context, url, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	outFile, err := os.Create(outPath) // #nosec G304 -- output path is user-provided
	if err != nil {
		return err
	}
	defer outFile.Close() // nolint:errcheck

	_, err = io.Copy(outFile, resp.Body)
	return err
}

func thumbnailPath(posterPath, format string) string {
	base := strings.TrimSuffix(posterPath, filepath.Ext(posterPath))
	ext := "jpg"
	if format == "png" {
		ext = "png"
	}
	return fmt.Sprintf("%s.thumbnail.%s", base, ext)
}

func writeThumbnail(inPath, outPath string, maxSize int, format string, jpegQuality int) error {
	inFile, err := os.Open(inPath) // #nosec G304 -- path derives from user-provided output
	if err != nil {
		return err
	}
	defer inFile.Close() // nolint:errcheck

	srcImg, _, err := image.Decode(inFile)
	if err != nil {
		return err
	}

	bounds := srcImg.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return errors.New("invalid image dimensions")
	}

	longest := width
	if height > longest {
		longest = height
	}
	scale := float64(maxSize) / float64(longest)
	if scale > 1 {
		scale = 1
	}
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), srcImg, bounds, draw.Over, nil)

	outFile, err := os.Create(outPath) // #nosec G304 -- path derives from user-provided output
	if err != nil {
		return err
	}
	defer outFile.Close() // nolint:errcheck

	return encodeImage(outFile, dst, format, jpegQuality)
}

func encodeImage(w io.Writer, img image.Image, format string, jpegQuality int) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg", "":
		q := jpegQuality
		if q < 1 {
			q = 1
		}
		if q > 100 {
			q = 100
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
