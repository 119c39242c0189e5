package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/your-org/gallery/internal/gallery"
	"github.com/your-org/gallery/internal/models"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <event-id> <folder-path> [folder-path...]",
	Short: "Bulk upload photos to an event",
	Long: `Upload every image in one or more folders to an event gallery.

Each file goes through the same pipeline as an API upload: it is stored,
recorded, and sent to the face recognition service. A file whose face
extraction fails is still uploaded.

Example:
  galleryctl upload 42 /path/to/photos
  galleryctl upload -r -j 8 42 /path/to/day1 /path/to/day2`,
	Args: cobra.MinimumNArgs(2),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().BoolP("recursive", "r", false, "Search for photos recursively in subdirectories")
	uploadCmd.Flags().IntP("jobs", "j", 4, "Number of concurrent uploads")
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// collectImages lists image files under the given folders in a stable order.
func collectImages(folders []string, recursive bool) ([]string, error) {
	var files []string
	for _, folder := range folders {
		info, err := os.Stat(folder)
		if err != nil {
			return nil, fmt.Errorf("cannot access folder %s: %w", folder, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", folder)
		}

		err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != folder && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if isImageFile(d.Name()) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan folder %s: %w", folder, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	eventID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || eventID <= 0 {
		return fmt.Errorf("invalid event id %q", args[0])
	}
	recursive, _ := cmd.Flags().GetBool("recursive")
	jobs, _ := cmd.Flags().GetInt("jobs")
	if jobs < 1 {
		jobs = 1
	}

	files, err := collectImages(args[1:], recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No photos found")
		return nil
	}

	ctx := cmd.Context()
	a, err := loadApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Uploading %d photos to event %d\n\n", len(files), eventID)

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	var (
		mu                    sync.Mutex
		uploaded, unprocessed int
		failures              []string
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, path := range files {
		path := path
		g.Go(func() error {
			defer bar.Add(1)

			data, err := os.ReadFile(path)
			if err == nil {
				var photo *models.Photo
				photo, err = a.svc.UploadPhoto(gCtx, eventID, gallery.Upload{
					FileName: filepath.Base(path),
					Data:     data,
				})
				if err == nil {
					mu.Lock()
					uploaded++
					if !photo.Processed {
						unprocessed++
					}
					mu.Unlock()
					return nil
				}
			}
			mu.Lock()
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
			mu.Unlock()
			// keep going; one bad file should not stop the batch
			return nil
		})
	}
	_ = g.Wait()
	fmt.Println()

	fmt.Printf("Uploaded: %d, without face data: %d, failed: %d\n", uploaded, unprocessed, len(failures))
	for _, f := range failures {
		fmt.Println("  " + f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d uploads failed", len(failures))
	}
	return ctx.Err()
}
